package storage

import (
	"context"
	"errors"

	"storefront/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// OrderTx is the set of order mutations available inside one storage transaction.
// Lock* methods take a row lock held until the transaction ends.
type OrderTx interface {
	InsertOrder(ctx context.Context, o *model.Order) error
	InsertItems(ctx context.Context, orderID int64, items []model.OrderItem) error
	SetGatewayOrderRef(ctx context.Context, orderID int64, ref string) error
	LockOrder(ctx context.Context, id int64) (*model.Order, error)
	LockOrderByGatewayRef(ctx context.Context, ref string) (*model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status model.Status) error
	RecordPayment(ctx context.Context, id int64, status model.Status, paymentRef string) error
}

type OrderStore interface {
	// WithTx commits when fn returns nil and rolls back otherwise, including on panic.
	WithTx(ctx context.Context, fn func(tx OrderTx) error) error
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListOrders(ctx context.Context, limit int) ([]model.Order, error)
}

type DeliveryStore interface {
	FindActiveZone(ctx context.Context, city, postalCode string) (*model.DeliveryZone, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByID(ctx context.Context, id int64) (*model.User, error)
}

// Storage is everything the server needs from the database.
type Storage interface {
	OrderStore
	DeliveryStore
	UserStore

	Ping(ctx context.Context) error
	Close() error
}
