// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cart

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"candelora/internal/models"
)

// Catalog is the product lookup the pricer resolves cart entries against.
// Implementations must return (nil, nil) for unknown IDs.
type Catalog interface {
	FindByID(id uuid.UUID) (*models.Product, error)
}

// Line is one resolved cart entry: the live product, the requested
// quantity, and the line total at the product's current price.
type Line struct {
	Product   models.Product
	Quantity  int
	LineTotal decimal.Decimal
}

// View is a priced snapshot of the cart at resolution time. It is not
// stored anywhere — the cart itself stays (id, qty) pairs, and every
// view reflects current catalog prices.
type View struct {
	Lines []Line
	Total decimal.Decimal
}

// Pricer resolves cart entries against the catalog.
type Pricer struct {
	catalog Catalog
}

// NewPricer returns a Pricer backed by the given catalog.
func NewPricer(catalog Catalog) *Pricer {
	return &Pricer{catalog: catalog}
}

// Resolve joins every cart entry against the live catalog and computes
// line totals and the running total. Entries whose product no longer
// exists are silently dropped — products may be deleted after being
// added to a cart, and a stale entry must not break the page. Entries
// whose key is not a valid UUID are dropped the same way.
func (p *Pricer) Resolve(c Cart) (*View, error) {
	view := &View{Total: decimal.Zero}

	// Stable line order regardless of map iteration order.
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		qty := c[key]
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}

		product, err := p.catalog.FindByID(id)
		if err != nil {
			return nil, err
		}
		if product == nil {
			continue
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
		view.Lines = append(view.Lines, Line{
			Product:   *product,
			Quantity:  qty,
			LineTotal: lineTotal,
		})
		view.Total = view.Total.Add(lineTotal)
	}

	return view, nil
}
