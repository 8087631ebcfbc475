// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"candelora/internal/cache"
	"candelora/internal/markdown"
	"candelora/internal/middleware"
	"candelora/internal/render"
	"candelora/internal/store"
)

// PublicHandlers serves the customer-facing catalog, product, review and
// contact pages.
type PublicHandlers struct {
	renderer   *render.Renderer
	categories *store.CategoryStore
	products   *store.ProductStore
	reviews    *store.ReviewStore
	contacts   *store.ContactStore
	pages      *cache.PageCache
}

// NewPublicHandlers creates the public storefront handlers.
func NewPublicHandlers(
	renderer *render.Renderer,
	categories *store.CategoryStore,
	products *store.ProductStore,
	reviews *store.ReviewStore,
	contacts *store.ContactStore,
	pages *cache.PageCache,
) *PublicHandlers {
	return &PublicHandlers{
		renderer:   renderer,
		categories: categories,
		products:   products,
		reviews:    reviews,
		contacts:   contacts,
		pages:      pages,
	}
}

// teeWriter duplicates the response body into a buffer so a successful
// render can be stored in the page cache.
type teeWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (t *teeWriter) WriteHeader(code int) {
	if t.status == 0 {
		t.status = code
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *teeWriter) Write(b []byte) (int, error) {
	if t.status == 0 {
		t.status = http.StatusOK
	}
	t.buf.Write(b)
	return t.ResponseWriter.Write(b)
}

// cacheable reports whether this request may be served from / written to
// the page cache. Only anonymous full-page GETs qualify: sessions carry
// a cart badge and login state that must never leak between visitors.
func cacheable(r *http.Request) bool {
	if middleware.SessionFromCtx(r.Context()) != nil {
		return false
	}
	return r.Header.Get("HX-Request") != "true"
}

// Home renders the storefront landing page: newest products plus any
// running promotions. Cached for anonymous visitors.
func (h *PublicHandlers) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cacheable(r) {
		if html, ok := h.pages.Get(ctx, cache.HomepageKey()); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(html)
			return
		}
	}

	cats, err := h.categories.List()
	if err != nil {
		slog.Error("home: list categories", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	newest, err := h.products.ListNewest(4)
	if err != nil {
		slog.Error("home: list newest", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	promos, err := h.products.ListPromotions(4)
	if err != nil {
		slog.Error("home: list promotions", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := &render.PageData{
		Title:      "Hand-poured soy candles",
		Section:    "home",
		Categories: cats,
		Data: map[string]any{
			"NewProducts":   newest,
			"PromoProducts": promos,
		},
	}

	if cacheable(r) {
		tee := &teeWriter{ResponseWriter: w}
		h.renderer.Page(tee, r, "home", data)
		if tee.status == http.StatusOK {
			h.pages.Set(ctx, cache.HomepageKey(), tee.buf.Bytes())
		}
		return
	}
	h.renderer.Page(w, r, "home", data)
}

// CategoryPage lists the products of one category. Cached per slug for
// anonymous visitors.
func (h *PublicHandlers) CategoryPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	if cacheable(r) {
		if html, ok := h.pages.Get(ctx, cache.CategoryKey(slug)); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(html)
			return
		}
	}

	category, err := h.categories.FindBySlug(slug)
	if err != nil {
		slog.Error("category page: find by slug", "slug", slug, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if category == nil {
		notFound(w)
		return
	}

	products, err := h.products.ListByCategory(category.ID)
	if err != nil {
		slog.Error("category page: list products", "slug", slug, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	cats, err := h.categories.List()
	if err != nil {
		slog.Error("category page: list categories", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := &render.PageData{
		Title:      category.Name,
		Section:    "category",
		Categories: cats,
		Data: map[string]any{
			"Category": category,
			"Products": products,
		},
	}

	if cacheable(r) {
		tee := &teeWriter{ResponseWriter: w}
		h.renderer.Page(tee, r, "category", data)
		if tee.status == http.StatusOK {
			h.pages.Set(ctx, cache.CategoryKey(slug), tee.buf.Bytes())
		}
		return
	}
	h.renderer.Page(w, r, "category", data)
}

// ProductDetail renders one product with its markdown description,
// reviews, average rating and similar products. Never cached: the review
// form depends on the viewer's session.
func (h *PublicHandlers) ProductDetail(w http.ResponseWriter, r *http.Request) {
	h.renderProduct(w, r, "")
}

// renderProduct renders the product detail page, optionally with a
// review form error after a rejected submission.
func (h *PublicHandlers) renderProduct(w http.ResponseWriter, r *http.Request, reviewErr string) {
	slug := chi.URLParam(r, "slug")

	product, err := h.products.FindBySlug(slug)
	if err != nil {
		slog.Error("product page: find by slug", "slug", slug, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		notFound(w)
		return
	}

	descHTML, err := markdown.ToHTML(product.Description)
	if err != nil {
		slog.Warn("product page: render description", "slug", slug, "error", err)
		descHTML = ""
	}

	similar, err := h.products.ListSimilar(product, 4)
	if err != nil {
		slog.Error("product page: list similar", "slug", slug, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	reviews, err := h.reviews.ListByProduct(product.ID)
	if err != nil {
		slog.Error("product page: list reviews", "slug", slug, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	avg, hasAvg, err := h.reviews.AverageRating(product.ID)
	if err != nil {
		slog.Error("product page: average rating", "slug", slug, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	cats, err := h.categories.List()
	if err != nil {
		slog.Error("product page: list categories", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "product", &render.PageData{
		Title:      product.Name,
		Section:    "product",
		Categories: cats,
		Data: map[string]any{
			"Product":         product,
			"DescriptionHTML": descHTML,
			"Similar":         similar,
			"Reviews":         reviews,
			"AvgRating":       avg,
			"AvgStars":        int(math.Round(avg)),
			"HasAvg":          hasAvg,
			"Error":           reviewErr,
		},
	})
}

// ReviewSubmit records a logged-in visitor's review. Routed behind
// RequireAuth, so the session always carries a user ID here.
func (h *PublicHandlers) ReviewSubmit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	sess := middleware.SessionFromCtx(r.Context())

	product, err := h.products.FindBySlug(slug)
	if err != nil {
		slog.Error("review submit: find product", "slug", slug, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		notFound(w)
		return
	}

	rating := formInt(r, "rating", 0)
	comment := formValue(r, "comment")

	if msg := validateReview(rating, comment); msg != "" {
		h.renderProduct(w, r, msg)
		return
	}

	if _, err := h.reviews.Create(product.ID, sess.UserID, rating, comment); err != nil {
		slog.Error("review submit: create", "slug", slug, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render.SetFlash(w, "success", "Thanks for your review!")
	http.Redirect(w, r, "/product/"+slug, http.StatusSeeOther)
}

// ContactPage renders the contact form.
func (h *PublicHandlers) ContactPage(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, "", map[string]string{})
}

// ContactSubmit stores a contact form message.
func (h *PublicHandlers) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	name := formValue(r, "name")
	email := formValue(r, "email")
	message := formValue(r, "message")

	if msg := validateContact(name, email, message); msg != "" {
		h.renderContact(w, r, msg, map[string]string{
			"name": name, "email": email, "message": message,
		})
		return
	}

	if _, err := h.contacts.Create(name, email, message); err != nil {
		slog.Error("contact submit: create", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render.SetFlash(w, "success", "Message sent. We will get back to you soon.")
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

func (h *PublicHandlers) renderContact(w http.ResponseWriter, r *http.Request, errMsg string, form map[string]string) {
	cats, err := h.categories.List()
	if err != nil {
		slog.Error("contact page: list categories", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "contact", &render.PageData{
		Title:      "Contact us",
		Section:    "contact",
		Categories: cats,
		Data: map[string]any{
			"Error": errMsg,
			"Form":  form,
		},
	})
}
