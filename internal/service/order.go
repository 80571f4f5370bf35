package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/events"
	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/storage"
)

const (
	defaultCurrency       = "INR"
	defaultGatewayTimeout = 10 * time.Second
	defaultListLimit      = 100
	maxListLimit          = 500
	publishTimeout        = 2 * time.Second
)

type DeliveryChecker interface {
	IsDeliverable(ctx context.Context, city, postalCode string) bool
}

type OrderOptions struct {
	Currency       string
	GatewayTimeout time.Duration
	Publisher      events.Publisher
	Recorder       Recorder
}

// Recorder counts order lifecycle outcomes.
type Recorder interface {
	OrderEvent(event string)
}

type OrderService struct {
	store          storage.OrderStore
	delivery       DeliveryChecker
	gateway        gateway.Client
	currency       string
	gatewayTimeout time.Duration
	publisher      events.Publisher
	recorder       Recorder
	now            func() time.Time
}

func NewOrderService(store storage.OrderStore, delivery DeliveryChecker, gw gateway.Client, opts OrderOptions) *OrderService {
	s := &OrderService{
		store:          store,
		delivery:       delivery,
		gateway:        gw,
		currency:       opts.Currency,
		gatewayTimeout: opts.GatewayTimeout,
		publisher:      opts.Publisher,
		recorder:       opts.Recorder,
		now:            func() time.Time { return time.Now().UTC() },
	}
	if s.currency == "" {
		s.currency = defaultCurrency
	}
	if s.gatewayTimeout <= 0 {
		s.gatewayTimeout = defaultGatewayTimeout
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	return s
}

type CreateOrderInput struct {
	UserID  int64
	Amount  decimal.Decimal
	Items   []model.OrderItem
	Address model.ShippingAddress
}

type CreateOrderResult struct {
	OrderID         int64  `json:"orderId"`
	GatewayOrderRef string `json:"gatewayOrderRef"`
}

func (in CreateOrderInput) validate() error {
	if in.UserID <= 0 {
		return validationError("user is required")
	}
	if !in.Amount.IsPositive() {
		return validationError("amount must be greater than zero")
	}
	if gateway.ToMinorUnits(in.Amount) < 1 {
		return validationError("amount must be at least 0.01")
	}
	if !model.IsWholeCents(in.Amount) {
		return validationError("amount %s has more than two decimal places", in.Amount)
	}
	if len(in.Items) == 0 {
		return validationError("order must contain at least one item")
	}
	for i, it := range in.Items {
		if it.Quantity <= 0 {
			return validationError("item %d: quantity must be positive", i)
		}
		if it.Price.IsNegative() {
			return validationError("item %d: price must not be negative", i)
		}
		if !model.IsWholeCents(it.Price) {
			return validationError("item %d: price %s has more than two decimal places", i, it.Price)
		}
	}
	if strings.TrimSpace(in.Address.City) == "" {
		return validationError("shipping city is required")
	}
	if total := model.ItemsTotal(in.Items); !total.Equal(in.Amount) {
		return validationError("amount %s does not match items total %s", in.Amount.StringFixed(2), total.StringFixed(2))
	}
	return nil
}

// CreateOrder stores a pending order and its gateway payment intent atomically.
// If the gateway leg fails the local rows are rolled back and the caller may retry.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if err := in.validate(); err != nil {
		s.recorder.OrderEvent("rejected")
		return nil, err
	}

	if !s.delivery.IsDeliverable(ctx, in.Address.City, in.Address.PostalCode) {
		s.recorder.OrderEvent("undeliverable")
		return nil, newError(KindDeliveryUnavailable,
			fmt.Sprintf("delivery is not available for %s %s", in.Address.City, in.Address.PostalCode), nil)
	}

	order := &model.Order{
		UserID:    in.UserID,
		Total:     in.Amount,
		Status:    model.StatusPending,
		Address:   in.Address,
		CreatedAt: s.now(),
	}
	items := make([]model.OrderItem, len(in.Items))
	copy(items, in.Items)

	err := s.store.WithTx(ctx, func(tx storage.OrderTx) error {
		if err := tx.InsertOrder(ctx, order); err != nil {
			return newError(KindStorage, "failed to save order", err)
		}
		if err := tx.InsertItems(ctx, order.ID, items); err != nil {
			return newError(KindStorage, "failed to save order items", err)
		}

		gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
		defer cancel()
		ref, err := s.gateway.CreateOrder(gwCtx, gateway.ToMinorUnits(order.Total), s.currency, strconv.FormatInt(order.ID, 10))
		if err != nil {
			return newError(KindGatewayUnavailable, "payment gateway is unavailable, please retry", err)
		}

		if err := tx.SetGatewayOrderRef(ctx, order.ID, ref.ID); err != nil {
			return newError(KindStorage, "failed to save gateway reference", err)
		}
		order.GatewayOrderRef = ref.ID
		return nil
	})
	if err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			appErr = newError(KindStorage, "failed to save order", err)
		}
		s.recorder.OrderEvent("failed")
		slog.Error("create order failed", "user_id", in.UserID, "kind", appErr.Kind, "error", err)
		return nil, appErr
	}

	order.Items = items
	s.recorder.OrderEvent("created")
	slog.Info("order created", "order_id", order.ID, "user_id", order.UserID, "gateway_order_ref", order.GatewayOrderRef)
	s.publish(ctx, events.Event{
		Type:            events.OrderCreated,
		OrderID:         order.ID,
		UserID:          order.UserID,
		Status:          string(order.Status),
		Total:           order.Total.StringFixed(2),
		GatewayOrderRef: order.GatewayOrderRef,
		OccurredAt:      order.CreatedAt,
	})

	return &CreateOrderResult{OrderID: order.ID, GatewayOrderRef: order.GatewayOrderRef}, nil
}

// UpdateStatus is the admin console transition.
func (s *OrderService) UpdateStatus(ctx context.Context, p model.Principal, orderID int64, to model.Status) (*model.Order, error) {
	if !p.IsAdmin() {
		return nil, newError(KindForbidden, "admin access required", nil)
	}
	if !to.Valid() {
		return nil, validationError("unknown order status %q", to)
	}
	return s.transition(ctx, p, orderID, to, model.ActorAdmin)
}

// Cancel lets the owner cancel their own order.
func (s *OrderService) Cancel(ctx context.Context, p model.Principal, orderID int64) (*model.Order, error) {
	return s.transition(ctx, p, orderID, model.StatusCancelled, model.ActorOwner)
}

func (s *OrderService) transition(ctx context.Context, p model.Principal, orderID int64, to model.Status, actor model.Actor) (*model.Order, error) {
	var (
		order *model.Order
		from  model.Status
	)
	err := s.store.WithTx(ctx, func(tx storage.OrderTx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return newError(KindNotFound, "order not found", err)
			}
			return newError(KindStorage, "failed to load order", err)
		}
		if actor == model.ActorOwner && order.UserID != p.UserID {
			return newError(KindForbidden, "order belongs to another user", nil)
		}

		if err := model.CanTransition(order.Status, to, actor); err != nil {
			return transitionError(err)
		}
		if err := tx.UpdateStatus(ctx, order.ID, to); err != nil {
			return newError(KindStorage, "failed to update order status", err)
		}
		from = order.Status
		order.Status = to
		order.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	slog.Info("order status changed", "order_id", order.ID, "from", from, "to", to, "actor", actor, "by", p.UserID)
	s.publish(ctx, events.Event{
		Type:           events.OrderStatusChanged,
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         string(to),
		PreviousStatus: string(from),
		OccurredAt:     order.UpdatedAt,
	})
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, p model.Principal, orderID int64) (*model.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newError(KindNotFound, "order not found", err)
		}
		return nil, newError(KindStorage, "failed to load order", err)
	}
	if order.UserID != p.UserID && !p.IsAdmin() {
		return nil, newError(KindForbidden, "order belongs to another user", nil)
	}
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, newError(KindStorage, "failed to list orders", err)
	}
	return orders, nil
}

// ListAddresses returns the distinct shipping addresses of a user's orders,
// most recently used first.
func (s *OrderService) ListAddresses(ctx context.Context, userID int64) ([]model.ShippingAddress, error) {
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, newError(KindStorage, "failed to list addresses", err)
	}

	seen := make(map[model.ShippingAddress]bool, len(orders))
	addresses := []model.ShippingAddress{}
	for _, o := range orders {
		key := model.ShippingAddress{
			Street:     strings.ToLower(strings.TrimSpace(o.Address.Street)),
			City:       strings.ToLower(strings.TrimSpace(o.Address.City)),
			PostalCode: strings.TrimSpace(o.Address.PostalCode),
			Phone:      strings.TrimSpace(o.Address.Phone),
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		addresses = append(addresses, o.Address)
	}
	return addresses, nil
}

func (s *OrderService) ListOrders(ctx context.Context, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	orders, err := s.store.ListOrders(ctx, limit)
	if err != nil {
		return nil, newError(KindStorage, "failed to list orders", err)
	}
	return orders, nil
}

// publish is best effort: the order is already committed.
func (s *OrderService) publish(ctx context.Context, evt events.Event) {
	publishEvent(ctx, s.publisher, evt)
}

func publishEvent(ctx context.Context, p events.Publisher, evt events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, evt); err != nil {
		slog.Warn("publish event failed", "type", evt.Type, "order_id", evt.OrderID, "error", err)
	}
}

func transitionError(err error) *Error {
	if errors.Is(err, model.ErrActorNotAllowed) {
		return newError(KindForbidden, err.Error(), err)
	}
	return newError(KindIllegalTransition, err.Error(), err)
}

func asServiceError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return newError(KindStorage, "storage failure", err)
}

type nopRecorder struct{}

func (nopRecorder) OrderEvent(string) {}
