// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"candelora/internal/models"
)

// ContactStore manages contact form messages.
type ContactStore struct {
	db *sql.DB
}

// NewContactStore returns a new ContactStore.
func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

// Create inserts a contact message stamped with the current time.
func (s *ContactStore) Create(name, email, message string) (*models.ContactMessage, error) {
	var m models.ContactMessage
	err := s.db.QueryRow(`
		INSERT INTO contact_messages (name, email, message)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, message, created_at
	`, name, email, message).Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return &m, nil
}

// List returns all contact messages, newest first.
func (s *ContactStore) List() ([]models.ContactMessage, error) {
	rows, err := s.db.Query(`
		SELECT id, name, email, message, created_at
		FROM contact_messages ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	var items []models.ContactMessage
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Count returns the total number of contact messages.
func (s *ContactStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM contact_messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contact messages: %w", err)
	}
	return n, nil
}
