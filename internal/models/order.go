// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the durable record of a completed checkout. Orders are guest
// checkouts: the customer is identified only by the contact fields below,
// never by a user reference. Total and the owned items are immutable once
// written.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`

	// Items is populated by OrderStore reads. An order without its items
	// is invalid; the two are written in one transaction.
	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem is one line of an order. ProductName and Price are snapshots
// taken at checkout time — editing or deleting the source product later
// must not change them, so there is no product foreign key.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// LineTotal returns price × quantity for this order line.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
