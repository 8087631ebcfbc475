// Package session provides Valkey-backed HTTP session management.
// Sessions are identified by a secure cookie and stored as JSON in Valkey
// with automatic TTL expiry. A session belongs to one visitor: it carries
// their cart and, once they log in, their identity. Anonymous visitors
// get a session on their first cart mutation.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"candelora/internal/cart"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "cd_session"

	// DefaultTTL is how long a session lives in Valkey before automatic
	// expiry. When it lapses, the cart goes with it — accepted behavior.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// Data holds the session payload stored in Valkey. UserID is the nil
// UUID for anonymous visitors; the cart is present either way.
type Data struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	TwoFADone bool      `json:"two_fa_done"`
	Cart      cart.Cart `json:"cart"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticated returns true when the session belongs to a logged-in user.
func (d *Data) Authenticated() bool {
	return d.UserID != uuid.Nil
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// secure marks session cookies HTTPS-only; disable only in development.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// Create generates a new session, stores it in Valkey, and sets the
// session cookie on the response. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now()
	if data.Cart == nil {
		data.Cart = cart.New()
	}

	if err := s.write(ctx, id, data); err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id, nil
}

// Get retrieves session data from Valkey using the session ID from the
// request cookie. Returns nil if no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if err == redis.Nil {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	if data.Cart == nil {
		data.Cart = cart.New()
	}

	return &data, nil
}

// GetOrCreate returns the visitor's session and its ID, creating an
// anonymous one (and setting the cookie) if none exists. Cart mutations
// use this so that first-time visitors get a cart without logging in;
// the ID lets the caller save mutations even when the cookie was set on
// this very response and is not yet on the request.
func (s *Store) GetOrCreate(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Data, string, error) {
	data, err := s.Get(ctx, r)
	if err != nil {
		return nil, "", err
	}
	if data != nil {
		cookie, _ := r.Cookie(CookieName)
		return data, cookie.Value, nil
	}

	data = &Data{Cart: cart.New()}
	id, err := s.Create(ctx, w, data)
	if err != nil {
		return nil, "", err
	}
	return data, id, nil
}

// Save stores the session payload under a known session ID. Resets the TTL.
func (s *Store) Save(ctx context.Context, id string, data *Data) error {
	return s.write(ctx, id, data)
}

// Update replaces the session data in Valkey without changing the session
// ID or cookie. Resets the TTL.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return fmt.Errorf("session update: no cookie")
	}
	return s.write(ctx, cookie.Value, data)
}

// write marshals and stores the payload under the given session ID.
func (s *Store) write(ctx context.Context, id string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Destroy removes the session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil // No cookie, nothing to destroy
	}

	s.client.Del(ctx, keyPrefix+cookie.Value)

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
