// Package gateway talks to the external payment service that issues
// payment-intent references and signs completed payments.
package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderRef is the gateway's payment intent for one local order.
type OrderRef struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Client interface {
	// CreateOrder registers a payment intent for amountMinor minor units.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*OrderRef, error)
}

// Error is returned for every failed gateway exchange: transport failures,
// timeouts, non-2xx answers and unreadable bodies.
type Error struct {
	Op         string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("gateway %s: timed out: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ToMinorUnits converts a two-decimal amount to minor units, truncating any
// fraction below one minor unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}
