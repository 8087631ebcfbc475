// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"candelora/internal/middleware"
	"candelora/internal/render"
	"candelora/internal/session"
	"candelora/internal/store"
)

// totpIssuer labels Candelora in authenticator apps.
const totpIssuer = "Candelora"

// AuthHandlers serves login, logout and the admin TOTP flow.
type AuthHandlers struct {
	renderer *render.Renderer
	sessions *session.Store
	users    *store.UserStore
}

// NewAuthHandlers creates the authentication handlers.
func NewAuthHandlers(renderer *render.Renderer, sessions *session.Store, users *store.UserStore) *AuthHandlers {
	return &AuthHandlers{renderer: renderer, sessions: sessions, users: users}
}

// LoginPage renders the login form. Logged-in visitors go home.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && sess.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, "", map[string]string{})
}

// LoginSubmit verifies credentials and starts a fresh authenticated
// session. The anonymous cart, if any, carries over into it.
func (h *AuthHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := formValue(r, "email")
	password := r.FormValue("password")

	user, err := h.users.FindByEmail(email)
	if err != nil {
		slog.Error("login: find user", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user == nil || !h.users.CheckPassword(user, password) {
		// One message for both cases; never reveal which field was wrong.
		h.renderLogin(w, r, "Invalid email or password.", map[string]string{"email": email})
		return
	}

	data := &session.Data{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}
	if old := middleware.SessionFromCtx(ctx); old != nil {
		data.Cart = old.Cart
	}

	// Rotate the session ID on privilege change.
	if err := h.sessions.Destroy(ctx, w, r); err != nil {
		slog.Warn("login: destroy old session", "error", err)
	}
	if _, err := h.sessions.Create(ctx, w, data); err != nil {
		slog.Error("login: create session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("user logged in", "user", user.ID, "admin", user.IsAdmin)

	if user.IsAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout destroys the session, cart included.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("logout: destroy session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, errMsg string, form map[string]string) {
	h.renderer.Page(w, r, "login", &render.PageData{
		Title: "Log in",
		Data: map[string]any{
			"Error": errMsg,
			"Form":  form,
		},
	})
}

// TwoFASetupPage shows the enrollment QR code. A secret is generated on
// first visit and kept across refreshes so the scanned code stays valid;
// admins who already enrolled are sent to verification instead.
func (h *AuthHandlers) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := h.users.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("2fa setup: find user", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPEnabled {
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
		return
	}

	secret := ""
	if user.TOTPSecret != nil {
		secret = *user.TOTPSecret
	}
	if secret == "" {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      totpIssuer,
			AccountName: user.Email,
		})
		if err != nil {
			slog.Error("2fa setup: generate secret", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		secret = key.Secret()
		if err := h.users.SetTOTPSecret(user.ID, secret); err != nil {
			slog.Error("2fa setup: store secret", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	h.renderTwoFASetup(w, r, user.Email, secret, "")
}

// TwoFASetupSubmit confirms enrollment by validating the first code.
func (h *AuthHandlers) TwoFASetupSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	user, err := h.users.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("2fa setup: find user", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPSecret == nil || *user.TOTPSecret == "" {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	code := formValue(r, "code")
	if !totp.Validate(code, *user.TOTPSecret) {
		h.renderTwoFASetup(w, r, user.Email, *user.TOTPSecret, "That code didn't match. Try again.")
		return
	}

	if err := h.users.EnableTOTP(user.ID); err != nil {
		slog.Error("2fa setup: enable", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess.TwoFADone = true
	if err := h.sessions.Update(ctx, r, sess); err != nil {
		slog.Error("2fa setup: save session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render.SetFlash(w, "success", "Two-factor authentication enabled.")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// TwoFAVerifyPage asks an enrolled admin for their current code.
func (h *AuthHandlers) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess.TwoFADone {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.renderTwoFAVerify(w, r, "")
}

// TwoFAVerifySubmit validates the code and unlocks the back office for
// this session.
func (h *AuthHandlers) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	user, err := h.users.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("2fa verify: find user", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPSecret == nil || !user.TOTPEnabled {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	code := formValue(r, "code")
	if !totp.Validate(code, *user.TOTPSecret) {
		h.renderTwoFAVerify(w, r, "That code didn't match. Try again.")
		return
	}

	sess.TwoFADone = true
	if err := h.sessions.Update(ctx, r, sess); err != nil {
		slog.Error("2fa verify: save session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *AuthHandlers) renderTwoFASetup(w http.ResponseWriter, r *http.Request, email, secret, errMsg string) {
	png, err := qrcode.Encode(provisioningURL(email, secret), qrcode.Medium, 256)
	if err != nil {
		slog.Error("2fa setup: encode qr", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set up two-factor authentication",
		Data: map[string]any{
			"QRCode": base64.StdEncoding.EncodeToString(png),
			"Secret": secret,
			"Error":  errMsg,
		},
	})
}

func (h *AuthHandlers) renderTwoFAVerify(w http.ResponseWriter, r *http.Request, errMsg string) {
	h.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-factor authentication",
		Data:  map[string]any{"Error": errMsg},
	})
}

// provisioningURL builds the otpauth URL encoded into the QR code.
func provisioningURL(email, secret string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(totpIssuer), url.PathEscape(email),
		url.QueryEscape(secret), url.QueryEscape(totpIssuer))
}
