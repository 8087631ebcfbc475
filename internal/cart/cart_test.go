// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cart

import (
	"testing"

	"github.com/google/uuid"
)

func TestAddAccumulates(t *testing.T) {
	c := New()
	id := uuid.New()

	c.Add(id, 2)
	c.Add(id, 3)

	if got := c.Quantity(id); got != 5 {
		t.Errorf("Quantity() = %d, want 5", got)
	}
}

func TestAddCoercesLowQuantities(t *testing.T) {
	for _, qty := range []int{0, -1, -100} {
		c := New()
		id := uuid.New()

		c.Add(id, qty)

		if got := c.Quantity(id); got != 1 {
			t.Errorf("Add(%d): Quantity() = %d, want 1", qty, got)
		}
	}
}

func TestAddCoercedQuantityStillAccumulates(t *testing.T) {
	c := New()
	id := uuid.New()

	c.Add(id, 4)
	c.Add(id, -5) // coerced to 1

	if got := c.Quantity(id); got != 5 {
		t.Errorf("Quantity() = %d, want 5", got)
	}
}

func TestRemove(t *testing.T) {
	c := New()
	id := uuid.New()
	c.Add(id, 2)

	c.Remove(id)

	if got := c.Quantity(id); got != 0 {
		t.Errorf("Quantity() after remove = %d, want 0", got)
	}
	if !c.IsEmpty() {
		t.Error("cart should be empty after removing its only entry")
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	c := New()
	kept := uuid.New()
	c.Add(kept, 1)

	c.Remove(uuid.New())

	if got := c.Quantity(kept); got != 1 {
		t.Errorf("removing an absent product disturbed another entry: got %d", got)
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.Add(uuid.New(), 1)
	c.Add(uuid.New(), 2)

	c.Clear()

	if !c.IsEmpty() {
		t.Error("cart should be empty after Clear()")
	}
	if got := c.Count(); got != 0 {
		t.Errorf("Count() after clear = %d, want 0", got)
	}
}

func TestCount(t *testing.T) {
	c := New()
	if got := c.Count(); got != 0 {
		t.Errorf("empty cart Count() = %d, want 0", got)
	}

	c.Add(uuid.New(), 2)
	c.Add(uuid.New(), 3)

	if got := c.Count(); got != 5 {
		t.Errorf("Count() = %d, want 5", got)
	}
}
