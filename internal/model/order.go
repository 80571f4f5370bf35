package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
}

type Order struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"userId"`
	Total             decimal.Decimal `json:"totalAmount"`
	Status            Status          `json:"status"`
	Address           ShippingAddress `json:"shippingAddress"`
	GatewayOrderRef   string          `json:"gatewayOrderRef,omitempty"`
	GatewayPaymentRef *string         `json:"gatewayPaymentRef,omitempty"`
	Items             []OrderItem     `json:"items,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// OrderItem prices are captured at order time and never re-read from the catalog.
type OrderItem struct {
	ID        int64           `json:"-"`
	OrderID   int64           `json:"-"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums quantity × unit price over items.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// IsWholeCents reports whether d fits NUMERIC(12,2) without rounding.
func IsWholeCents(d decimal.Decimal) bool {
	return d.Truncate(2).Equal(d)
}
