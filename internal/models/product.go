// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a single catalog item. Prices are NUMERIC(10,2) in the
// database and exact decimals in Go. Stock is advisory display data —
// nothing in the order flow reserves or decrements it.
type Product struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	OldPrice    *decimal.Decimal `json:"old_price,omitempty"`
	Stock       int              `json:"stock"`
	ImageURL    *string          `json:"image_url,omitempty"`
	Fragrance   *string          `json:"fragrance,omitempty"`
	BurnTime    *string          `json:"burn_time,omitempty"`
	Weight      *string          `json:"weight,omitempty"`
	WaxType     string           `json:"wax_type"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// OnPromotion returns true when the product has a crossed-out old price.
func (p *Product) OnPromotion() bool {
	return p.OldPrice != nil
}
