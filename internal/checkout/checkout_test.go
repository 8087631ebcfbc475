// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"candelora/internal/cart"
	"candelora/internal/models"
)

type fakeCatalog struct {
	products map[uuid.UUID]*models.Product
}

func (f *fakeCatalog) FindByID(id uuid.UUID) (*models.Product, error) {
	return f.products[id], nil
}

// fakeOrderWriter records the single write it receives.
type fakeOrderWriter struct {
	calls int
	order *models.Order
	items []models.OrderItem
}

func (f *fakeOrderWriter) CreateWithItems(ctx context.Context, o *models.Order, items []models.OrderItem) (*models.Order, error) {
	f.calls++
	f.order = o
	f.items = items

	created := *o
	created.ID = uuid.New()
	created.Items = items
	return &created, nil
}

func price(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testContact() Contact {
	return Contact{
		Name:    "Ana Pop",
		Email:   "ana@example.com",
		Phone:   "+40 700 000 000",
		Address: "Strada Lunga 1",
		City:    "Cluj-Napoca",
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	writer := &fakeOrderWriter{}
	conv := NewConverter(cart.NewPricer(&fakeCatalog{}), writer)

	_, err := conv.Checkout(context.Background(), cart.New(), testContact(), "cod")

	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
	if writer.calls != 0 {
		t.Errorf("order writer called %d times for an empty cart", writer.calls)
	}
}

func TestCheckoutAllProductsDeleted(t *testing.T) {
	writer := &fakeOrderWriter{}
	conv := NewConverter(cart.NewPricer(&fakeCatalog{products: map[uuid.UUID]*models.Product{}}), writer)

	c := cart.New()
	c.Add(uuid.New(), 2) // no longer in the catalog

	_, err := conv.Checkout(context.Background(), c, testContact(), "cod")

	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
	if writer.calls != 0 {
		t.Errorf("order writer called %d times when nothing resolved", writer.calls)
	}
}

func TestCheckoutSnapshotsNameAndPrice(t *testing.T) {
	candle := &models.Product{ID: uuid.New(), Name: "Vanilla Candle", Price: price("45.00")}
	catalog := &fakeCatalog{products: map[uuid.UUID]*models.Product{candle.ID: candle}}
	writer := &fakeOrderWriter{}
	conv := NewConverter(cart.NewPricer(catalog), writer)

	c := cart.New()
	c.Add(candle.ID, 3)

	order, err := conv.Checkout(context.Background(), c, testContact(), "card")
	if err != nil {
		t.Fatalf("Checkout() error: %v", err)
	}

	if writer.calls != 1 {
		t.Fatalf("order writer called %d times, want 1", writer.calls)
	}
	if len(writer.items) != 1 {
		t.Fatalf("got %d items, want 1", len(writer.items))
	}

	item := writer.items[0]
	if item.ProductName != "Vanilla Candle" {
		t.Errorf("ProductName = %q", item.ProductName)
	}
	if !item.Price.Equal(price("45.00")) {
		t.Errorf("item price = %s, want 45.00", item.Price)
	}
	if item.Quantity != 3 {
		t.Errorf("Quantity = %d, want 3", item.Quantity)
	}
	if !order.Total.Equal(price("135.00")) {
		t.Errorf("Total = %s, want 135.00", order.Total)
	}
	if order.PaymentMethod != "card" {
		t.Errorf("PaymentMethod = %q, want card", order.PaymentMethod)
	}
}

func TestCheckoutTotalFromFreshPrices(t *testing.T) {
	candle := &models.Product{ID: uuid.New(), Name: "Vanilla Candle", Price: price("45.00")}
	catalog := &fakeCatalog{products: map[uuid.UUID]*models.Product{candle.ID: candle}}
	writer := &fakeOrderWriter{}
	conv := NewConverter(cart.NewPricer(catalog), writer)

	c := cart.New()
	c.Add(candle.ID, 2)

	// The price changed after the product went into the cart.
	candle.Price = price("50.00")

	order, err := conv.Checkout(context.Background(), c, testContact(), "cod")
	if err != nil {
		t.Fatalf("Checkout() error: %v", err)
	}
	if !order.Total.Equal(price("100.00")) {
		t.Errorf("Total = %s, want 100.00 from the current price", order.Total)
	}
	if !writer.items[0].Price.Equal(price("50.00")) {
		t.Errorf("snapshot price = %s, want the current 50.00", writer.items[0].Price)
	}
}

func TestCheckoutSkipsDeletedLines(t *testing.T) {
	candle := &models.Product{ID: uuid.New(), Name: "Vanilla Candle", Price: price("45.00")}
	catalog := &fakeCatalog{products: map[uuid.UUID]*models.Product{candle.ID: candle}}
	writer := &fakeOrderWriter{}
	conv := NewConverter(cart.NewPricer(catalog), writer)

	c := cart.New()
	c.Add(candle.ID, 1)
	c.Add(uuid.New(), 5) // deleted product

	order, err := conv.Checkout(context.Background(), c, testContact(), "cod")
	if err != nil {
		t.Fatalf("Checkout() error: %v", err)
	}
	if len(writer.items) != 1 {
		t.Fatalf("got %d items, want 1", len(writer.items))
	}
	if !order.Total.Equal(price("45.00")) {
		t.Errorf("Total = %s, want 45.00", order.Total)
	}
}

func TestCheckoutStampsContact(t *testing.T) {
	candle := &models.Product{ID: uuid.New(), Name: "Vanilla Candle", Price: price("45.00")}
	catalog := &fakeCatalog{products: map[uuid.UUID]*models.Product{candle.ID: candle}}
	writer := &fakeOrderWriter{}
	conv := NewConverter(cart.NewPricer(catalog), writer)

	c := cart.New()
	c.Add(candle.ID, 1)

	contact := testContact()
	if _, err := conv.Checkout(context.Background(), c, contact, "cod"); err != nil {
		t.Fatalf("Checkout() error: %v", err)
	}

	o := writer.order
	if o.Name != contact.Name || o.Email != contact.Email || o.Phone != contact.Phone ||
		o.Address != contact.Address || o.City != contact.City {
		t.Errorf("contact snapshot mismatch: %+v", o)
	}
}
