package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/events"
	"storefront/internal/model"
	"storefront/internal/storage"
)

type SignatureVerifier interface {
	Verify(orderRef, paymentRef, signature string) bool
}

type PaymentService struct {
	store     storage.OrderStore
	signer    SignatureVerifier
	publisher events.Publisher
	recorder  Recorder
}

func NewPaymentService(store storage.OrderStore, signer SignatureVerifier, publisher events.Publisher, recorder Recorder) *PaymentService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &PaymentService{store: store, signer: signer, publisher: publisher, recorder: recorder}
}

// VerifyPayment checks the gateway signature and marks the order paid.
// Replaying an already recorded payment ref succeeds without writing.
func (s *PaymentService) VerifyPayment(ctx context.Context, orderRef, paymentRef, signature string) error {
	orderRef = strings.TrimSpace(orderRef)
	paymentRef = strings.TrimSpace(paymentRef)
	signature = strings.TrimSpace(signature)
	if orderRef == "" || paymentRef == "" || signature == "" {
		return validationError("gatewayOrderRef, gatewayPaymentRef and signature are required")
	}

	if !s.signer.Verify(orderRef, paymentRef, signature) {
		s.recorder.OrderEvent("verification_failed")
		slog.Warn("payment signature mismatch", "gateway_order_ref", orderRef, "gateway_payment_ref", paymentRef)
		return newError(KindVerification, "payment signature is invalid", nil)
	}

	var (
		order  *model.Order
		replay bool
	)
	err := s.store.WithTx(ctx, func(tx storage.OrderTx) error {
		var err error
		order, err = tx.LockOrderByGatewayRef(ctx, orderRef)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return newError(KindNotFound, "order not found", err)
			}
			return newError(KindStorage, "failed to load order", err)
		}

		if alreadyPaid(order, paymentRef) {
			replay = true
			return nil
		}

		if err := model.CanTransition(order.Status, model.PaidStatus, model.ActorSystem); err != nil {
			return transitionError(err)
		}
		if err := tx.RecordPayment(ctx, order.ID, model.PaidStatus, paymentRef); err != nil {
			return newError(KindStorage, "failed to record payment", err)
		}
		order.Status = model.PaidStatus
		order.GatewayPaymentRef = &paymentRef
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}

	if replay {
		slog.Info("payment already recorded", "order_id", order.ID, "gateway_payment_ref", paymentRef)
		return nil
	}

	s.recorder.OrderEvent("paid")
	slog.Info("payment verified", "order_id", order.ID, "gateway_order_ref", orderRef, "gateway_payment_ref", paymentRef)
	publishEvent(ctx, s.publisher, events.Event{
		Type:            events.OrderPaid,
		OrderID:         order.ID,
		UserID:          order.UserID,
		Status:          string(order.Status),
		PreviousStatus:  string(model.StatusPending),
		Total:           order.Total.StringFixed(2),
		GatewayOrderRef: orderRef,
		OccurredAt:      time.Now().UTC(),
	})
	return nil
}

func alreadyPaid(o *model.Order, paymentRef string) bool {
	if o.GatewayPaymentRef == nil || *o.GatewayPaymentRef != paymentRef {
		return false
	}
	return o.Status == model.StatusProcessing || o.Status == model.StatusCompleted
}
