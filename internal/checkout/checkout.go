// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package checkout converts a visitor's cart into a durable order. The
// contract is resolve-then-snapshot: every cart entry is re-resolved
// against the live catalog strictly before any write, and the order item
// rows carry copies of the product name and price so that later catalog
// edits never change a placed order.
package checkout

import (
	"context"
	"errors"

	"candelora/internal/cart"
	"candelora/internal/models"
)

// ErrEmptyCart is returned when checkout is attempted with no resolvable
// cart contents. Callers should send the visitor back to the cart view;
// this is a recoverable condition, not a server fault.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// Contact is the customer contact snapshot stamped onto the order.
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
}

// OrderWriter persists an order and its items atomically.
type OrderWriter interface {
	CreateWithItems(ctx context.Context, o *models.Order, items []models.OrderItem) (*models.Order, error)
}

// Converter turns carts into orders.
type Converter struct {
	pricer *cart.Pricer
	orders OrderWriter
}

// NewConverter returns a Converter using the given pricer and order store.
func NewConverter(pricer *cart.Pricer, orders OrderWriter) *Converter {
	return &Converter{pricer: pricer, orders: orders}
}

// Checkout resolves the cart, computes the total from the freshly
// resolved prices, and writes the order plus one item per resolved line
// in a single transaction. Entries whose product has been deleted are
// skipped, same as the cart view; if nothing resolves, ErrEmptyCart.
//
// On success the created order (with generated ID and items) is
// returned; the caller clears the session cart. On failure the cart is
// left untouched so the visitor can retry. Stock is never checked or
// decremented — concurrent checkouts of the last unit both succeed.
func (c *Converter) Checkout(ctx context.Context, crt cart.Cart, contact Contact, paymentMethod string) (*models.Order, error) {
	if crt.IsEmpty() {
		return nil, ErrEmptyCart
	}

	view, err := c.pricer.Resolve(crt)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	order := &models.Order{
		Name:          contact.Name,
		Email:         contact.Email,
		Phone:         contact.Phone,
		Address:       contact.Address,
		City:          contact.City,
		PaymentMethod: paymentMethod,
		Total:         view.Total,
	}

	items := make([]models.OrderItem, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, models.OrderItem{
			ProductName: line.Product.Name,
			Price:       line.Product.Price,
			Quantity:    line.Quantity,
		})
	}

	return c.orders.CreateWithItems(ctx, order, items)
}
