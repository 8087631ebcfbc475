// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"candelora/internal/models"
)

// OrderStore manages orders and their line items. An order and its items
// form one unit of durability and are only ever written together.
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore returns a new OrderStore.
func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `id, name, email, phone, address, city, payment_method, total, created_at`

// scanOrder scans a row into an Order struct.
func scanOrder(scanner interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	err := scanner.Scan(
		&o.ID, &o.Name, &o.Email, &o.Phone, &o.Address, &o.City,
		&o.PaymentMethod, &o.Total, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateWithItems inserts the order row and all of its items in a single
// transaction. If any insert fails the whole order is rolled back — a
// partial order is never visible. Items carry the name/price snapshots
// the caller resolved; this method does not consult the products table.
func (s *OrderStore) CreateWithItems(ctx context.Context, o *models.Order, items []models.OrderItem) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO orders (name, email, phone, address, city, payment_method, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+orderColumns,
		o.Name, o.Email, o.Phone, o.Address, o.City, o.PaymentMethod, o.Total,
	)
	created, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items (order_id, product_name, price, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("prepare order items: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		item.OrderID = created.ID
		err := stmt.QueryRowContext(ctx, created.ID, item.ProductName, item.Price, item.Quantity).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("create order item %q: %w", item.ProductName, err)
		}
		created.Items = append(created.Items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return created, nil
}

// FindByID retrieves an order with its items. Returns nil if not found.
func (s *OrderStore) FindByID(id uuid.UUID) (*models.Order, error) {
	row := s.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order by id: %w", err)
	}

	items, err := s.listItems(id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// listItems returns the line items of an order in insertion order.
func (s *OrderStore) listItems(orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := s.db.Query(`
		SELECT id, order_id, product_name, price, quantity
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var i models.OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductName, &i.Price, &i.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// List returns all orders without items, newest first. Used by the admin
// back office; item details are loaded per order via FindByID.
func (s *OrderStore) List() ([]models.Order, error) {
	rows, err := s.db.Query(`SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var items []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		items = append(items, *o)
	}
	return items, rows.Err()
}

// Count returns the total number of orders.
func (s *OrderStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}
