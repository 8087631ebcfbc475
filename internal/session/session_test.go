// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testClient connects to a local Valkey, skipping the test when none is
// running.
func testClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("valkey not reachable: %v", err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

// requestWithCookie builds a request carrying the session cookie that
// was set on the given recorder.
func requestWithCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			req.AddCookie(c)
			return req
		}
	}
	t.Fatal("no session cookie set on response")
	return nil
}

func TestCreateAndGet(t *testing.T) {
	store := NewStore(testClient(t), false)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	data := &Data{UserID: uuid.New(), Email: "ana@example.com", IsAdmin: true}
	id, err := store.Create(ctx, rec, data)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if id == "" {
		t.Fatal("Create() returned empty session ID")
	}

	got, err := store.Get(ctx, requestWithCookie(t, rec))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for a live session")
	}
	if got.UserID != data.UserID || got.Email != data.Email || !got.IsAdmin {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.Cart == nil {
		t.Error("Cart should be initialized on read")
	}
}

func TestGetWithoutCookie(t *testing.T) {
	store := NewStore(testClient(t), false)

	got, err := store.Get(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("Get() without a cookie = %+v, want nil", got)
	}
}

func TestGetExpiredSession(t *testing.T) {
	store := NewStore(testClient(t), false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "deadbeef"})

	got, err := store.Get(context.Background(), req)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("Get() for unknown session = %+v, want nil", got)
	}
}

func TestGetOrCreateAnonymous(t *testing.T) {
	store := NewStore(testClient(t), false)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cart/add/x", nil)

	data, id, err := store.GetOrCreate(ctx, rec, req)
	if err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}
	if data.Authenticated() {
		t.Error("fresh anonymous session should not be authenticated")
	}
	if data.Cart == nil {
		t.Fatal("anonymous session has no cart")
	}

	// The ID must be usable for saving mutations made in this request.
	data.Cart.Add(uuid.New(), 2)
	if err := store.Save(ctx, id, data); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Get(ctx, requestWithCookie(t, rec))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil || got.Cart.Count() != 2 {
		t.Errorf("saved cart not visible on next request: %+v", got)
	}
}

func TestGetOrCreateExisting(t *testing.T) {
	store := NewStore(testClient(t), false)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	original := &Data{Email: "keep@example.com"}
	createdID, err := store.Create(ctx, rec, original)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	req := requestWithCookie(t, rec)
	data, id, err := store.GetOrCreate(ctx, httptest.NewRecorder(), req)
	if err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}
	if id != createdID {
		t.Errorf("GetOrCreate() id = %q, want the existing %q", id, createdID)
	}
	if data.Email != "keep@example.com" {
		t.Errorf("GetOrCreate() replaced the existing session: %+v", data)
	}
}

func TestUpdate(t *testing.T) {
	store := NewStore(testClient(t), false)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	data := &Data{}
	if _, err := store.Create(ctx, rec, data); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	req := requestWithCookie(t, rec)
	data.TwoFADone = true
	if err := store.Update(ctx, req, data); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := store.Get(ctx, req)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil || !got.TwoFADone {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestDestroy(t *testing.T) {
	store := NewStore(testClient(t), false)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	if _, err := store.Create(ctx, rec, &Data{}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	req := requestWithCookie(t, rec)
	if err := store.Destroy(ctx, httptest.NewRecorder(), req); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}

	got, err := store.Get(ctx, req)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("session survived Destroy(): %+v", got)
	}
}
