package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Sandbox issues gateway references locally. Used when no gateway credentials
// are configured.
type Sandbox struct{}

func (Sandbox) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*OrderRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: createOrderOp, Timeout: isTimeout(err), Err: err}
	}
	return &OrderRef{
		ID:       "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}
