// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router wires the HTTP routes to their handlers and assembles
// the middleware chain.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"candelora/internal/handlers"
	"candelora/internal/middleware"
	"candelora/internal/session"
)

// Deps carries everything the router needs to wire up.
type Deps struct {
	Sessions *session.Store
	Public   *handlers.PublicHandlers
	Cart     *handlers.CartHandlers
	Auth     *handlers.AuthHandlers
	Admin    *handlers.AdminHandlers
}

// New builds the route tree. Middleware order matters: the session must
// be loaded before anything reads it, and CSRF validation runs on every
// state-changing request, public and admin alike.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CSRF)
	r.Use(middleware.LoadSession(d.Sessions))

	// Abuse-prone endpoints get their own limits.
	loginLimiter := middleware.NewRateLimiter(5, time.Minute)
	checkoutLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Public storefront.
	r.Get("/", d.Public.Home)
	r.Get("/category/{slug}", d.Public.CategoryPage)
	r.Get("/product/{slug}", d.Public.ProductDetail)
	r.With(middleware.RequireAuth).Post("/product/{slug}/review", d.Public.ReviewSubmit)
	r.Get("/contact", d.Public.ContactPage)
	r.Post("/contact", d.Public.ContactSubmit)

	// Cart and checkout. All open to anonymous visitors.
	r.Get("/cart", d.Cart.View)
	r.Post("/cart/add/{id}", d.Cart.Add)
	r.Post("/cart/remove/{id}", d.Cart.Remove)
	r.Post("/cart/clear", d.Cart.Clear)
	r.Get("/checkout", d.Cart.CheckoutPage)
	r.With(checkoutLimiter.Middleware).Post("/checkout", d.Cart.CheckoutSubmit)
	r.Get("/checkout/success/{id}", d.Cart.OrderSuccess)

	// Authentication.
	r.Get("/login", d.Auth.LoginPage)
	r.With(loginLimiter.Middleware).Post("/login", d.Auth.LoginSubmit)
	r.Post("/logout", d.Auth.Logout)

	// Admin back office. The 2FA routes sit outside Require2FA so an
	// admin can actually reach enrollment and verification.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireAdmin)

		r.Get("/2fa/setup", d.Auth.TwoFASetupPage)
		r.Post("/2fa/setup", d.Auth.TwoFASetupSubmit)
		r.Get("/2fa/verify", d.Auth.TwoFAVerifyPage)
		r.Post("/2fa/verify", d.Auth.TwoFAVerifySubmit)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Require2FA)

			r.Get("/", d.Admin.Dashboard)

			r.Get("/products", d.Admin.ProductsList)
			r.Get("/products/new", d.Admin.ProductNewPage)
			r.Post("/products/new", d.Admin.ProductCreate)
			r.Get("/products/{id}/edit", d.Admin.ProductEditPage)
			r.Post("/products/{id}/edit", d.Admin.ProductUpdate)
			r.Post("/products/{id}/delete", d.Admin.ProductDelete)

			r.Get("/categories", d.Admin.CategoriesList)
			r.Get("/categories/new", d.Admin.CategoryNewPage)
			r.Post("/categories/new", d.Admin.CategoryCreate)
			r.Get("/categories/{id}/edit", d.Admin.CategoryEditPage)
			r.Post("/categories/{id}/edit", d.Admin.CategoryUpdate)
			r.Post("/categories/{id}/delete", d.Admin.CategoryDelete)

			r.Get("/orders", d.Admin.OrdersList)
			r.Get("/orders/{id}", d.Admin.OrderDetail)

			r.Get("/messages", d.Admin.MessagesList)
		})
	})

	return r
}
