// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"candelora/internal/models"
)

// ReviewStore manages product reviews in the database.
type ReviewStore struct {
	db *sql.DB
}

// NewReviewStore returns a new ReviewStore.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

// Create inserts a review for a product, stamped with the current time.
// Both product and user must exist; the foreign keys reject orphans.
func (s *ReviewStore) Create(productID, userID uuid.UUID, rating int, comment string) (*models.Review, error) {
	var r models.Review
	err := s.db.QueryRow(`
		INSERT INTO reviews (product_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, product_id, user_id, rating, comment, created_at
	`, productID, userID, rating, comment).Scan(
		&r.ID, &r.ProductID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &r, nil
}

// ListByProduct returns all reviews for a product, newest first, with the
// author's email joined in for display.
func (s *ReviewStore) ListByProduct(productID uuid.UUID) ([]models.Review, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.created_at,
		       u.email
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var items []models.Review
	for rows.Next() {
		var r models.Review
		err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt, &r.AuthorEmail)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// AverageRating returns the arithmetic mean rating for a product. The
// second return value is false when the product has no reviews — an
// absent average, not zero.
func (s *ReviewStore) AverageRating(productID uuid.UUID) (float64, bool, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT AVG(rating) FROM reviews WHERE product_id = $1
	`, productID).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("average rating: %w", err)
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}
