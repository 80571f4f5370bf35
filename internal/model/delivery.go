package model

// DeliveryZone with a nil PostalCode serves the whole city.
type DeliveryZone struct {
	ID         int64   `json:"id"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode *string `json:"postalCode,omitempty"`
	Active     bool    `json:"active"`
}
