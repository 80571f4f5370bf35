package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/storage"
)

const orderColumns = `id, user_id, total_amount, status, street, city, postal_code, phone,
	gateway_order_id, gateway_payment_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o          model.Order
		orderRef   sql.NullString
		paymentRef sql.NullString
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.Status,
		&o.Address.Street, &o.Address.City, &o.Address.PostalCode, &o.Address.Phone,
		&orderRef, &paymentRef, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.GatewayOrderRef = orderRef.String
	if paymentRef.Valid {
		o.GatewayPaymentRef = &paymentRef.String
	}
	return &o, nil
}

type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) InsertOrder(ctx context.Context, o *model.Order) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, total_amount, status, street, city, postal_code, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`, o.UserID, o.Total, o.Status, o.Address.Street, o.Address.City, o.Address.PostalCode, o.Address.Phone, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.UpdatedAt = o.CreatedAt
	return nil
}

func (t *orderTx) InsertItems(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for i := range items {
		items[i].OrderID = orderID
		err := t.tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4) RETURNING id`,
			orderID, items[i].ProductID, items[i].Quantity, items[i].Price,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert order item %d: %w", items[i].ProductID, err)
		}
	}
	return nil
}

func (t *orderTx) SetGatewayOrderRef(ctx context.Context, orderID int64, ref string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE orders SET gateway_order_id = $1, updated_at = NOW() WHERE id = $2`,
		ref, orderID,
	)
	if err != nil {
		return fmt.Errorf("set gateway order ref: %w", err)
	}
	return expectOneRow(res)
}

func (t *orderTx) LockOrder(ctx context.Context, id int64) (*model.Order, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return o, nil
}

func (t *orderTx) LockOrderByGatewayRef(ctx context.Context, ref string) (*model.Order, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE gateway_order_id = $1 FOR UPDATE`, ref)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("lock order by gateway ref: %w", err)
	}
	return o, nil
}

func (t *orderTx) UpdateStatus(ctx context.Context, id int64, status model.Status) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return expectOneRow(res)
}

func (t *orderTx) RecordPayment(ctx context.Context, id int64, status model.Status, paymentRef string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, gateway_payment_id = $2, updated_at = NOW() WHERE id = $3`,
		status, paymentRef, id,
	)
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return o, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return collectOrders(rows)
}

func (s *Store) ListOrders(ctx context.Context, limit int) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return collectOrders(rows)
}

func collectOrders(rows *sql.Rows) ([]model.Order, error) {
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}
