package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a default
// admin account, the starter categories, and a few demo candles.
// No-op when data already exists.
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default admin password.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// Insert default admin user. 2FA is not enabled — they must set it up
	// on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, is_admin, totp_enabled)
		VALUES ($1, $2, TRUE, FALSE)
	`, "admin@candelora.local", string(hash))
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	// Starter categories.
	categories := []struct{ name, slug string }{
		{"Scented Candles", "scented-candles"},
		{"Gift Sets", "gift-sets"},
		{"Accessories", "accessories"},
	}
	catIDs := make(map[string]string)
	for _, c := range categories {
		var id string
		err := db.QueryRow(`
			INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id
		`, c.name, c.slug).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", c.name, err)
		}
		catIDs[c.slug] = id
	}

	// Demo products.
	products := []struct {
		name, slug, description   string
		price                     string
		oldPrice                  *string
		stock                     int
		category                  string
		fragrance, burnTime, wght string
	}{
		{
			name:        "Soy Candle — Vanilla & Amber",
			slug:        "soy-candle-vanilla-amber",
			description: "Hand-poured artisanal soy wax candle with a warm vanilla and amber fragrance.",
			price:       "45.00",
			oldPrice:    strPtr("55.00"),
			stock:       30,
			category:    "scented-candles",
			fragrance:   "Vanilla, amber",
			burnTime:    "35-40 hours",
			wght:        "200 g",
		},
		{
			name:        "Soy Candle — Lavender & Bergamot",
			slug:        "soy-candle-lavender-bergamot",
			description: "Soy wax candle with a fresh floral fragrance, perfect for evening relaxation.",
			price:       "42.00",
			stock:       25,
			category:    "scented-candles",
			fragrance:   "Lavender, bergamot",
			burnTime:    "30-35 hours",
			wght:        "180 g",
		},
		{
			name:        "Gift Set — 3 Mini Candles",
			slug:        "gift-set-3-mini-candles",
			description: "Gift set of three mini soy wax candles in assorted fragrances.",
			price:       "75.00",
			stock:       15,
			category:    "gift-sets",
			fragrance:   "Assorted",
			burnTime:    "3x15 hours",
			wght:        "3 x 80 g",
		},
	}
	for _, p := range products {
		_, err := db.Exec(`
			INSERT INTO products (name, slug, description, price, old_price, stock,
				fragrance, burn_time, weight, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, p.name, p.slug, p.description, p.price, p.oldPrice, p.stock,
			p.fragrance, p.burnTime, p.wght, catIDs[p.category])
		if err != nil {
			return fmt.Errorf("seed insert product %q: %w", p.name, err)
		}
	}

	slog.Info("database seeded with default admin user and demo catalog",
		"email", "admin@candelora.local",
		"password", "admin",
	)

	return nil
}

func strPtr(s string) *string { return &s }
