// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers_test

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"candelora/internal/cache"
	"candelora/internal/cart"
	"candelora/internal/checkout"
	"candelora/internal/config"
	"candelora/internal/database"
	"candelora/internal/handlers"
	"candelora/internal/models"
	"candelora/internal/render"
	"candelora/internal/router"
	"candelora/internal/session"
	"candelora/internal/store"
)

const csrfToken = "test-csrf-token"

// env is a full storefront wired against the development PostgreSQL and
// Valkey instances.
type env struct {
	handler  http.Handler
	db       *sql.DB
	products *store.ProductStore
	orders   *store.OrderStore
	users    *store.UserStore
}

// setup builds the whole stack, skipping when either backing service is
// not reachable.
func setup(t *testing.T) *env {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	valkey := redis.NewClient(&redis.Options{Addr: cfg.ValkeyHost + ":" + cfg.ValkeyPort})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := valkey.Ping(pingCtx).Err(); err != nil {
		t.Skipf("valkey not reachable: %v", err)
	}
	t.Cleanup(func() { valkey.Close() })

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	sessions := session.NewStore(valkey, false)
	pages := cache.NewPageCache(valkey, time.Minute)
	pages.InvalidateAll(context.Background())

	categories := store.NewCategoryStore(db)
	products := store.NewProductStore(db)
	reviews := store.NewReviewStore(db)
	orders := store.NewOrderStore(db)
	users := store.NewUserStore(db)
	contacts := store.NewContactStore(db)

	pricer := cart.NewPricer(products)
	converter := checkout.NewConverter(pricer, orders)

	handler := router.New(router.Deps{
		Sessions: sessions,
		Public:   handlers.NewPublicHandlers(renderer, categories, products, reviews, contacts, pages),
		Cart:     handlers.NewCartHandlers(renderer, sessions, categories, products, orders, pricer, converter),
		Auth:     handlers.NewAuthHandlers(renderer, sessions, users),
		Admin:    handlers.NewAdminHandlers(renderer, products, categories, orders, users, contacts, pages, nil),
	})

	return &env{handler: handler, db: db, products: products, orders: orders, users: users}
}

// createProduct inserts a product and registers its cleanup.
func (e *env) createProduct(t *testing.T, price string) *models.Product {
	t.Helper()

	d, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", price, err)
	}
	suffix := uuid.NewString()[:8]
	p, err := e.products.Create(&models.Product{
		Name:    "Test Candle " + suffix,
		Slug:    "test-candle-" + suffix,
		Price:   d,
		WaxType: "Soy wax",
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	t.Cleanup(func() { e.products.Delete(p.ID) })
	return p
}

// get performs a GET carrying the given cookies.
func (e *env) get(path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// post performs a form POST with a valid CSRF pair and the given cookies.
func (e *env) post(path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", csrfToken)
	req.AddCookie(&http.Cookie{Name: "cd_csrf", Value: csrfToken})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// mergeCookies folds cookies set on a response into the carried set.
func mergeCookies(carried []*http.Cookie, rec *httptest.ResponseRecorder) []*http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		replaced := false
		for i, old := range carried {
			if old.Name == c.Name {
				carried[i] = c
				replaced = true
			}
		}
		if !replaced {
			carried = append(carried, c)
		}
	}
	return carried
}

func TestHealth(t *testing.T) {
	e := setup(t)

	rec := e.get("/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHomePage(t *testing.T) {
	e := setup(t)
	p := e.createProduct(t, "45.00")

	rec := e.get("/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), p.Name) {
		t.Error("newly created product missing from the homepage")
	}
}

func TestProductPage(t *testing.T) {
	e := setup(t)
	p := e.createProduct(t, "45.00")

	rec := e.get("/product/"+p.Slug, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, p.Name) {
		t.Error("product name missing")
	}
	if !strings.Contains(body, "$45.00") {
		t.Error("price missing")
	}
	if !strings.Contains(body, "No reviews yet") {
		t.Error("a fresh product should show no reviews")
	}
}

func TestProductPageUnknownSlug(t *testing.T) {
	e := setup(t)

	rec := e.get("/product/no-such-candle", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCartFlow(t *testing.T) {
	e := setup(t)
	p := e.createProduct(t, "45.00")

	// First add creates an anonymous session.
	rec := e.post("/cart/add/"+p.ID.String(), url.Values{"quantity": {"2"}}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add status = %d, want 303", rec.Code)
	}
	cookies := mergeCookies(nil, rec)

	rec = e.get("/cart", cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("cart status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, p.Name) {
		t.Error("cart page missing the added product")
	}
	if !strings.Contains(body, "$90.00") {
		t.Error("cart page missing the line total for qty 2")
	}

	// Second add accumulates.
	rec = e.post("/cart/add/"+p.ID.String(), url.Values{"quantity": {"1"}}, cookies)
	cookies = mergeCookies(cookies, rec)

	rec = e.get("/cart", cookies)
	if !strings.Contains(rec.Body.String(), "$135.00") {
		t.Error("quantities did not accumulate across adds")
	}

	// Remove empties it.
	rec = e.post("/cart/remove/"+p.ID.String(), nil, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("remove status = %d", rec.Code)
	}
	rec = e.get("/cart", cookies)
	if !strings.Contains(rec.Body.String(), "Your cart is empty") {
		t.Error("cart not empty after removing its only line")
	}
}

func TestCartAddUnknownProduct(t *testing.T) {
	e := setup(t)

	rec := e.post("/cart/add/"+uuid.NewString(), nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCheckoutFlow(t *testing.T) {
	e := setup(t)
	p := e.createProduct(t, "45.00")

	rec := e.post("/cart/add/"+p.ID.String(), url.Values{"quantity": {"2"}}, nil)
	cookies := mergeCookies(nil, rec)

	rec = e.post("/checkout", url.Values{
		"name":           {"Ana Pop"},
		"email":          {"ana@example.com"},
		"phone":          {"+40 700 000 000"},
		"address":        {"Strada Lunga 1"},
		"city":           {"Cluj-Napoca"},
		"payment_method": {"cod"},
	}, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("checkout status = %d, body: %s", rec.Code, rec.Body.String())
	}

	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/checkout/success/") {
		t.Fatalf("Location = %q", loc)
	}
	orderID, err := uuid.Parse(strings.TrimPrefix(loc, "/checkout/success/"))
	if err != nil {
		t.Fatalf("bad order id in redirect: %v", err)
	}
	t.Cleanup(func() { e.db.Exec(`DELETE FROM orders WHERE id = $1`, orderID) })

	// The durable order carries the snapshot and the computed total.
	order, err := e.orders.FindByID(orderID)
	if err != nil || order == nil {
		t.Fatalf("order lookup: %v, %v", order, err)
	}
	if !order.Total.Equal(decimal.NewFromInt(90)) {
		t.Errorf("order total = %s, want 90", order.Total)
	}
	if len(order.Items) != 1 || order.Items[0].ProductName != p.Name {
		t.Errorf("order items = %+v", order.Items)
	}

	// The cart was cleared on success.
	rec = e.get("/cart", cookies)
	if !strings.Contains(rec.Body.String(), "Your cart is empty") {
		t.Error("cart not cleared after checkout")
	}

	// The confirmation page shows the order.
	rec = e.get(loc, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("success page status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ana@example.com") {
		t.Error("confirmation page missing the contact email")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	e := setup(t)

	rec := e.post("/checkout", url.Values{
		"name":    {"Ana Pop"},
		"email":   {"ana@example.com"},
		"phone":   {"1"},
		"address": {"x"},
		"city":    {"y"},
	}, nil)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/cart" {
		t.Errorf("Location = %q, want /cart", loc)
	}

	var n int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM orders WHERE email = 'ana@example.com'`).Scan(&n); err == nil && n > 0 {
		t.Errorf("empty-cart checkout wrote %d order(s)", n)
	}
}

func TestCheckoutValidation(t *testing.T) {
	e := setup(t)
	p := e.createProduct(t, "45.00")

	rec := e.post("/cart/add/"+p.ID.String(), nil, nil)
	cookies := mergeCookies(nil, rec)

	rec = e.post("/checkout", url.Values{
		"name":  {"Ana Pop"},
		"email": {"not-an-email"},
	}, cookies)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 re-render", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "valid email") {
		t.Error("validation message missing")
	}

	// The cart survives a rejected submission.
	rec = e.get("/cart", cookies)
	if !strings.Contains(rec.Body.String(), p.Name) {
		t.Error("cart lost after failed checkout")
	}
}

func TestLoginFlow(t *testing.T) {
	e := setup(t)

	email := fmt.Sprintf("shopper-%s@example.com", uuid.NewString()[:8])
	u, err := e.users.Create(email, "hunter2", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { e.db.Exec(`DELETE FROM users WHERE id = $1`, u.ID) })

	rec := e.post("/login", url.Values{"email": {email}, "password": {"wrong"}}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bad login status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Error("bad credentials message missing")
	}

	rec = e.post("/login", url.Values{"email": {email}, "password": {"hunter2"}}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
	cookies := mergeCookies(nil, rec)

	// Logged-in visitors are sent away from the login page.
	rec = e.get("/login", cookies)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("login page for a logged-in user = %d, want redirect", rec.Code)
	}
}

func TestLoginKeepsAnonymousCart(t *testing.T) {
	e := setup(t)
	p := e.createProduct(t, "45.00")

	email := fmt.Sprintf("shopper-%s@example.com", uuid.NewString()[:8])
	u, err := e.users.Create(email, "hunter2", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { e.db.Exec(`DELETE FROM users WHERE id = $1`, u.ID) })

	rec := e.post("/cart/add/"+p.ID.String(), nil, nil)
	cookies := mergeCookies(nil, rec)

	rec = e.post("/login", url.Values{"email": {email}, "password": {"hunter2"}}, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d", rec.Code)
	}
	cookies = mergeCookies(cookies, rec)

	rec = e.get("/cart", cookies)
	if !strings.Contains(rec.Body.String(), p.Name) {
		t.Error("anonymous cart lost on login")
	}
}

func TestReviewRequiresAuth(t *testing.T) {
	e := setup(t)
	p := e.createProduct(t, "45.00")

	rec := e.post("/product/"+p.Slug+"/review", url.Values{"rating": {"5"}}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestReviewSubmit(t *testing.T) {
	e := setup(t)
	p := e.createProduct(t, "45.00")

	email := fmt.Sprintf("reviewer-%s@example.com", uuid.NewString()[:8])
	u, err := e.users.Create(email, "hunter2", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { e.db.Exec(`DELETE FROM users WHERE id = $1`, u.ID) })

	rec := e.post("/login", url.Values{"email": {email}, "password": {"hunter2"}}, nil)
	cookies := mergeCookies(nil, rec)

	rec = e.post("/product/"+p.Slug+"/review",
		url.Values{"rating": {"4"}, "comment": {"Smells wonderful"}}, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("review status = %d", rec.Code)
	}

	rec = e.get("/product/"+p.Slug, cookies)
	body := rec.Body.String()
	if !strings.Contains(body, "Smells wonderful") {
		t.Error("review comment missing from product page")
	}
	if !strings.Contains(body, "4.0") {
		t.Error("average rating missing from product page")
	}
}

func TestReviewRejectsBadRating(t *testing.T) {
	e := setup(t)
	p := e.createProduct(t, "45.00")

	email := fmt.Sprintf("reviewer-%s@example.com", uuid.NewString()[:8])
	u, err := e.users.Create(email, "hunter2", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { e.db.Exec(`DELETE FROM users WHERE id = $1`, u.ID) })

	rec := e.post("/login", url.Values{"email": {email}, "password": {"hunter2"}}, nil)
	cookies := mergeCookies(nil, rec)

	rec = e.post("/product/"+p.Slug+"/review", url.Values{"rating": {"6"}}, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 re-render", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "between 1 and 5") {
		t.Error("rating validation message missing")
	}
}

func TestAdminRequiresAuth(t *testing.T) {
	e := setup(t)

	rec := e.get("/admin", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q", loc)
	}
}

func TestAdminForbidsRegularUser(t *testing.T) {
	e := setup(t)

	email := fmt.Sprintf("shopper-%s@example.com", uuid.NewString()[:8])
	u, err := e.users.Create(email, "hunter2", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { e.db.Exec(`DELETE FROM users WHERE id = $1`, u.ID) })

	rec := e.post("/login", url.Values{"email": {email}, "password": {"hunter2"}}, nil)
	cookies := mergeCookies(nil, rec)

	rec = e.get("/admin", cookies)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestContactForm(t *testing.T) {
	e := setup(t)

	rec := e.get("/contact", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("contact page status = %d", rec.Code)
	}

	rec = e.post("/contact", url.Values{
		"name":    {"Ana Pop"},
		"email":   {"ana@example.com"},
		"message": {"Do you ship abroad?"},
	}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("contact submit status = %d", rec.Code)
	}
	t.Cleanup(func() {
		e.db.Exec(`DELETE FROM contact_messages WHERE email = 'ana@example.com'`)
	})

	rec = e.post("/contact", url.Values{"name": {"Ana"}, "email": {"bad"}, "message": {"hi"}}, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "valid email") {
		t.Error("contact validation message missing")
	}
}

func TestCSRFEnforced(t *testing.T) {
	e := setup(t)
	p := e.createProduct(t, "45.00")

	// POST without any CSRF token.
	req := httptest.NewRequest(http.MethodPost, "/cart/add/"+p.ID.String(), nil)
	req.AddCookie(&http.Cookie{Name: "cd_csrf", Value: csrfToken})
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
