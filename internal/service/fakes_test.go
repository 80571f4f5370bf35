package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/events"
	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/storage"
)

// memStore applies a transaction's writes only on commit. One transaction runs
// at a time, which stands in for row locks.
type memStore struct {
	mu        sync.Mutex
	orders    map[int64]model.Order
	items     map[int64][]model.OrderItem
	nextID    int64
	zones     []model.DeliveryZone
	zoneErr   error
	commitErr error

	txCount   int
	commits   int
	rollbacks int
	writes    int
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[int64]model.Order{},
		items:  map[int64][]model.OrderItem{},
		zones: []model.DeliveryZone{
			{ID: 1, City: "Pune", State: "MH", Active: true},
			{ID: 2, City: "Mumbai", State: "MH", PostalCode: strPtr("400001"), Active: true},
			{ID: 3, City: "Nagpur", State: "MH", Active: false},
		},
	}
}

func strPtr(s string) *string { return &s }

type memTx struct {
	orders map[int64]model.Order
	items  map[int64][]model.OrderItem
	nextID int64
	writes int
}

func (s *memStore) WithTx(ctx context.Context, fn func(tx storage.OrderTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	tx := &memTx{
		orders: make(map[int64]model.Order, len(s.orders)),
		items:  make(map[int64][]model.OrderItem, len(s.items)),
		nextID: s.nextID,
	}
	for id, o := range s.orders {
		tx.orders[id] = o
	}
	for id, it := range s.items {
		tx.items[id] = append([]model.OrderItem(nil), it...)
	}

	if err := fn(tx); err != nil {
		s.rollbacks++
		return err
	}
	if s.commitErr != nil {
		s.rollbacks++
		return fmt.Errorf("commit tx: %w", s.commitErr)
	}

	s.orders, s.items, s.nextID = tx.orders, tx.items, tx.nextID
	s.writes += tx.writes
	s.commits++
	return nil
}

func (s *memStore) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	o.Items = append([]model.OrderItem(nil), s.items[id]...)
	return &o, nil
}

func (s *memStore) ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) ListOrders(ctx context.Context, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Order{}
	for _, o := range s.orders {
		if len(out) == limit {
			break
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *memStore) FindActiveZone(ctx context.Context, city, postalCode string) (*model.DeliveryZone, error) {
	if s.zoneErr != nil {
		return nil, s.zoneErr
	}
	for _, z := range s.zones {
		if !z.Active || !strings.EqualFold(z.City, city) {
			continue
		}
		if postalCode == "" || z.PostalCode == nil || *z.PostalCode == postalCode {
			zone := z
			return &zone, nil
		}
	}
	return nil, storage.ErrNotFound
}

// put seeds a committed order directly.
func (s *memStore) put(o model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		s.nextID++
		o.ID = s.nextID
	} else if o.ID > s.nextID {
		s.nextID = o.ID
	}
	s.orders[o.ID] = o
}

func (s *memStore) order(id int64) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *memStore) counts() (orders, items int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		items += len(it)
	}
	return len(s.orders), items
}

func (t *memTx) InsertOrder(ctx context.Context, o *model.Order) error {
	t.nextID++
	o.ID = t.nextID
	o.UpdatedAt = o.CreatedAt
	t.orders[o.ID] = *o
	t.writes++
	return nil
}

func (t *memTx) InsertItems(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if _, ok := t.orders[orderID]; !ok {
		return errors.New("foreign key violation")
	}
	for i := range items {
		items[i].OrderID = orderID
		items[i].ID = int64(len(t.items[orderID]) + 1)
		t.items[orderID] = append(t.items[orderID], items[i])
	}
	t.writes++
	return nil
}

func (t *memTx) SetGatewayOrderRef(ctx context.Context, orderID int64, ref string) error {
	o, ok := t.orders[orderID]
	if !ok {
		return storage.ErrNotFound
	}
	o.GatewayOrderRef = ref
	t.orders[orderID] = o
	t.writes++
	return nil
}

func (t *memTx) LockOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &o, nil
}

func (t *memTx) LockOrderByGatewayRef(ctx context.Context, ref string) (*model.Order, error) {
	for _, o := range t.orders {
		if o.GatewayOrderRef == ref {
			o := o
			return &o, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (t *memTx) UpdateStatus(ctx context.Context, id int64, status model.Status) error {
	o, ok := t.orders[id]
	if !ok {
		return storage.ErrNotFound
	}
	o.Status = status
	t.orders[id] = o
	t.writes++
	return nil
}

func (t *memTx) RecordPayment(ctx context.Context, id int64, status model.Status, paymentRef string) error {
	o, ok := t.orders[id]
	if !ok {
		return storage.ErrNotFound
	}
	o.Status = status
	o.GatewayPaymentRef = &paymentRef
	t.orders[id] = o
	t.writes++
	return nil
}

type gatewayCall struct {
	amountMinor int64
	currency    string
	receipt     string
}

type fakeGateway struct {
	mu    sync.Mutex
	err   error
	hang  bool
	calls []gatewayCall
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*gateway.OrderRef, error) {
	g.mu.Lock()
	g.calls = append(g.calls, gatewayCall{amountMinor: amountMinor, currency: currency, receipt: receipt})
	n := len(g.calls)
	err, hang := g.err, g.hang
	g.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, &gateway.Error{Op: "create_order", Timeout: true, Err: ctx.Err()}
	}
	if err != nil {
		return nil, err
	}
	return &gateway.OrderRef{ID: fmt.Sprintf("order_test%d", n), Amount: amountMinor, Currency: currency, Receipt: receipt}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) OrderEvent(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[event]++
}

func (r *countingRecorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[event]
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
