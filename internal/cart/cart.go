// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cart implements the session-scoped shopping cart: a mapping of
// product identifier to quantity, plus the pricing logic that re-joins
// those entries against the live catalog. The cart is plain data with no
// server-side identity of its own — it lives inside the visitor's session
// payload and is passed into operations explicitly, which keeps it
// testable without an HTTP request.
package cart

import "github.com/google/uuid"

// Cart maps a product ID (string form of its UUID) to a requested
// quantity. Entries only exist for quantities >= 1.
type Cart map[string]int

// New returns an empty cart.
func New() Cart {
	return make(Cart)
}

// Add increments the stored quantity for a product. Quantities below 1
// are coerced to 1 (an add is always an add). Existing quantities are
// added to, never overwritten.
func (c Cart) Add(productID uuid.UUID, qty int) {
	if qty < 1 {
		qty = 1
	}
	c[productID.String()] += qty
}

// Remove deletes the entry for a product. Removing an absent product is
// a no-op, not an error.
func (c Cart) Remove(productID uuid.UUID) {
	delete(c, productID.String())
}

// Clear empties the cart unconditionally.
func (c Cart) Clear() {
	for k := range c {
		delete(c, k)
	}
}

// Quantity returns the stored quantity for a product, or 0 if absent.
func (c Cart) Quantity(productID uuid.UUID) int {
	return c[productID.String()]
}

// Count returns the total number of units across all entries. Shown as
// the cart badge in the storefront header.
func (c Cart) Count() int {
	var n int
	for _, qty := range c {
		n += qty
	}
	return n
}

// IsEmpty returns true when the cart holds no entries.
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}
