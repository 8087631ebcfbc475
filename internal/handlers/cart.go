// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"candelora/internal/cart"
	"candelora/internal/checkout"
	"candelora/internal/middleware"
	"candelora/internal/render"
	"candelora/internal/session"
	"candelora/internal/store"
)

// CartHandlers serves the cart and checkout flow. The cart lives in the
// visitor's session; every page view re-resolves it against the live
// catalog, so prices are always current and deleted products drop out.
type CartHandlers struct {
	renderer   *render.Renderer
	sessions   *session.Store
	categories *store.CategoryStore
	products   *store.ProductStore
	orders     *store.OrderStore
	pricer     *cart.Pricer
	converter  *checkout.Converter
}

// NewCartHandlers creates the cart and checkout handlers.
func NewCartHandlers(
	renderer *render.Renderer,
	sessions *session.Store,
	categories *store.CategoryStore,
	products *store.ProductStore,
	orders *store.OrderStore,
	pricer *cart.Pricer,
	converter *checkout.Converter,
) *CartHandlers {
	return &CartHandlers{
		renderer:   renderer,
		sessions:   sessions,
		categories: categories,
		products:   products,
		orders:     orders,
		pricer:     pricer,
		converter:  converter,
	}
}

// View renders the cart page with current catalog prices.
func (h *CartHandlers) View(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	crt := cart.New()
	if sess != nil {
		crt = sess.Cart
	}

	view, err := h.pricer.Resolve(crt)
	if err != nil {
		slog.Error("cart view: resolve", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	cats, err := h.categories.List()
	if err != nil {
		slog.Error("cart view: list categories", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "cart", &render.PageData{
		Title:      "Your cart",
		Section:    "cart",
		Categories: cats,
		Data: map[string]any{
			"Lines": view.Lines,
			"Total": view.Total,
		},
	})
}

// Add puts a product in the cart, creating an anonymous session for
// first-time visitors. Quantities accumulate across adds.
func (h *CartHandlers) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	product, err := h.products.FindByID(id)
	if err != nil {
		slog.Error("cart add: find product", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		notFound(w)
		return
	}

	sess, sessID, err := h.sessions.GetOrCreate(ctx, w, r)
	if err != nil {
		slog.Error("cart add: session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess.Cart.Add(id, formInt(r, "quantity", 1))
	if err := h.sessions.Save(ctx, sessID, sess); err != nil {
		slog.Error("cart add: save session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render.SetFlash(w, "success", product.Name+" added to your cart.")
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// Remove drops a product from the cart. Removing something that is not
// in the cart is a silent no-op.
func (h *CartHandlers) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sess := middleware.SessionFromCtx(ctx)
	if sess != nil {
		sess.Cart.Remove(id)
		if err := h.sessions.Update(ctx, r, sess); err != nil {
			slog.Error("cart remove: save session", "error", err)
		}
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// Clear empties the cart.
func (h *CartHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := middleware.SessionFromCtx(ctx)
	if sess != nil {
		sess.Cart.Clear()
		if err := h.sessions.Update(ctx, r, sess); err != nil {
			slog.Error("cart clear: save session", "error", err)
		}
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CheckoutPage renders the checkout form with the current cart summary.
// An empty cart (including one that only held since-deleted products)
// goes back to the cart view.
func (h *CartHandlers) CheckoutPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.Cart.IsEmpty() {
		render.SetFlash(w, "warning", "Your cart is empty.")
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	view, err := h.pricer.Resolve(sess.Cart)
	if err != nil {
		slog.Error("checkout page: resolve", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(view.Lines) == 0 {
		render.SetFlash(w, "warning", "Your cart is empty.")
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	h.renderCheckout(w, r, view, "", map[string]string{})
}

// CheckoutSubmit validates the contact details and converts the cart
// into an order. The session cart is cleared only after the order is
// durably written; any failure leaves it intact for a retry.
func (h *CartHandlers) CheckoutSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := middleware.SessionFromCtx(ctx)
	if sess == nil || sess.Cart.IsEmpty() {
		render.SetFlash(w, "warning", "Your cart is empty.")
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	contact := checkout.Contact{
		Name:    formValue(r, "name"),
		Email:   formValue(r, "email"),
		Phone:   formValue(r, "phone"),
		Address: formValue(r, "address"),
		City:    formValue(r, "city"),
	}
	payment := normalizePaymentMethod(formValue(r, "payment_method"))

	if msg := validateCheckout(contact); msg != "" {
		view, err := h.pricer.Resolve(sess.Cart)
		if err != nil {
			slog.Error("checkout submit: resolve", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		h.renderCheckout(w, r, view, msg, map[string]string{
			"name": contact.Name, "email": contact.Email, "phone": contact.Phone,
			"address": contact.Address, "city": contact.City,
		})
		return
	}

	order, err := h.converter.Checkout(ctx, sess.Cart, contact, payment)
	if errors.Is(err, checkout.ErrEmptyCart) {
		render.SetFlash(w, "warning", "Your cart is empty.")
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	if err != nil {
		slog.Error("checkout submit: convert", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess.Cart.Clear()
	if err := h.sessions.Update(ctx, r, sess); err != nil {
		// The order exists; a stale cart is the lesser problem.
		slog.Warn("checkout submit: clear cart", "order", order.ID, "error", err)
	}

	slog.Info("order placed", "order", order.ID, "total", order.Total, "items", len(order.Items))
	http.Redirect(w, r, "/checkout/success/"+order.ID.String(), http.StatusSeeOther)
}

// OrderSuccess shows the confirmation page for a placed order.
func (h *CartHandlers) OrderSuccess(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	order, err := h.orders.FindByID(id)
	if err != nil {
		slog.Error("order success: find order", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if order == nil {
		notFound(w)
		return
	}

	cats, err := h.categories.List()
	if err != nil {
		slog.Error("order success: list categories", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "order_success", &render.PageData{
		Title:      "Order placed",
		Section:    "checkout",
		Categories: cats,
		Data:       map[string]any{"Order": order},
	})
}

func (h *CartHandlers) renderCheckout(w http.ResponseWriter, r *http.Request, view *cart.View, errMsg string, form map[string]string) {
	cats, err := h.categories.List()
	if err != nil {
		slog.Error("checkout: list categories", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "checkout", &render.PageData{
		Title:      "Checkout",
		Section:    "checkout",
		Categories: cats,
		Data: map[string]any{
			"Lines": view.Lines,
			"Total": view.Total,
			"Error": errMsg,
			"Form":  form,
		},
	})
}

// normalizePaymentMethod restricts the payment method to the supported
// set, defaulting to cash on delivery.
func normalizePaymentMethod(m string) string {
	switch m {
	case "cod", "card", "bank_transfer":
		return m
	default:
		return "cod"
	}
}
