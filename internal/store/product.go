// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all Candelora
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"candelora/internal/models"
)

// ProductStore handles all product-related database operations.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore creates a new ProductStore with the given database connection.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, name, slug, description, price, old_price, stock,
	image_url, fragrance, burn_time, weight, wax_type, category_id,
	created_at, updated_at`

// scanProduct scans a row into a Product struct.
func scanProduct(scanner interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.OldPrice, &p.Stock,
		&p.ImageURL, &p.Fragrance, &p.BurnTime, &p.Weight, &p.WaxType, &p.CategoryID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// scanProducts collects all rows of a product query.
func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	defer rows.Close()

	var items []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindByID retrieves a product by ID. Returns nil if not found. The
// cart and checkout flows depend on this returning either the current
// row or nil — never a stale value.
func (s *ProductStore) FindByID(id uuid.UUID) (*models.Product, error) {
	row := s.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a product by its URL slug. Returns nil if not found.
func (s *ProductStore) FindBySlug(slug string) (*models.Product, error) {
	row := s.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by slug: %w", err)
	}
	return p, nil
}

// List returns all products, newest first.
func (s *ProductStore) List() ([]models.Product, error) {
	rows, err := s.db.Query(`SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return scanProducts(rows)
}

// ListByCategory returns all products in a category, newest first.
func (s *ProductStore) ListByCategory(categoryID uuid.UUID) ([]models.Product, error) {
	rows, err := s.db.Query(`
		SELECT `+productColumns+` FROM products
		WHERE category_id = $1 ORDER BY created_at DESC
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	return scanProducts(rows)
}

// ListNewest returns the most recently added products, up to limit.
func (s *ProductStore) ListNewest(limit int) ([]models.Product, error) {
	rows, err := s.db.Query(`
		SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list newest products: %w", err)
	}
	return scanProducts(rows)
}

// ListPromotions returns products with an old price set, up to limit.
func (s *ProductStore) ListPromotions(limit int) ([]models.Product, error) {
	rows, err := s.db.Query(`
		SELECT `+productColumns+` FROM products
		WHERE old_price IS NOT NULL ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	return scanProducts(rows)
}

// ListSimilar returns up to limit other products from the same category.
func (s *ProductStore) ListSimilar(p *models.Product, limit int) ([]models.Product, error) {
	if p.CategoryID == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT `+productColumns+` FROM products
		WHERE category_id = $1 AND id <> $2
		ORDER BY created_at DESC LIMIT $3
	`, *p.CategoryID, p.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list similar products: %w", err)
	}
	return scanProducts(rows)
}

// Create inserts a new product and returns it.
func (s *ProductStore) Create(p *models.Product) (*models.Product, error) {
	row := s.db.QueryRow(`
		INSERT INTO products (name, slug, description, price, old_price, stock,
			image_url, fragrance, burn_time, weight, wax_type, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+productColumns,
		p.Name, p.Slug, p.Description, p.Price, p.OldPrice, p.Stock,
		p.ImageURL, p.Fragrance, p.BurnTime, p.Weight, p.WaxType, p.CategoryID,
	)
	result, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return result, nil
}

// Update modifies an existing product. Historical order items are not
// affected — they carry their own name/price snapshots.
func (s *ProductStore) Update(p *models.Product) error {
	_, err := s.db.Exec(`
		UPDATE products SET
			name = $1, slug = $2, description = $3, price = $4, old_price = $5,
			stock = $6, image_url = $7, fragrance = $8, burn_time = $9,
			weight = $10, wax_type = $11, category_id = $12, updated_at = NOW()
		WHERE id = $13
	`, p.Name, p.Slug, p.Description, p.Price, p.OldPrice,
		p.Stock, p.ImageURL, p.Fragrance, p.BurnTime,
		p.Weight, p.WaxType, p.CategoryID, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes a product by ID. Reviews cascade; carts referencing the
// product drop the line on their next resolution; order items are untouched.
func (s *ProductStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// Count returns the total number of products.
func (s *ProductStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}
