// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the storefront and
// the admin back office. It supports full-page and HTMX partial rendering,
// automatically detecting the request type via the HX-Request header.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"candelora/internal/middleware"
	"candelora/internal/models"
	"candelora/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData holds all data passed to templates.
type PageData struct {
	Title      string            // Page title for <title> tag
	Section    string            // Active nav section (e.g., "products", "orders")
	Session    *session.Data     // Current visitor session (nil if none)
	CSRFToken  string            // CSRF token for forms and HTMX headers
	Categories []models.Category // Global category nav
	CartCount  int               // Total units in the visitor's cart
	Year       int               // Current year for the footer
	Data       map[string]any    // Page-specific data
	Flashes    []Flash           // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// flashCookie carries a single flash message across one redirect.
const flashCookie = "cd_flash"

// SetFlash stores a one-time message in a cookie, shown on the next render.
func SetFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    kind + "|" + strings.ReplaceAll(message, "|", " "),
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60,
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(w http.ResponseWriter, r *http.Request) []Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	kind, message, ok := strings.Cut(cookie.Value, "|")
	if !ok {
		return nil
	}
	return []Flash{{Type: kind, Message: message}}
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates lists templates that render as full HTML pages
// without a layout (they have their own <html>, <head>, etc.).
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_setup":  true,
	"2fa_verify": true,
}

// New creates a Renderer by parsing all templates from the embedded
// filesystem. Shop pages pair with base.html, admin pages (admin_*
// prefix) pair with admin_base.html, and standalone pages parse alone.
func New() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			// money formats a decimal price for display.
			"money": func(d decimal.Decimal) string {
				return "$" + d.StringFixed(2)
			},
			// moneyPtr formats an optional price (old/promotion price).
			"moneyPtr": func(d *decimal.Decimal) string {
				if d == nil {
					return ""
				}
				return "$" + d.StringFixed(2)
			},
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			// stars renders a ★★★☆☆-style string for a rating.
			"stars": func(rating int) string {
				if rating < 0 {
					rating = 0
				}
				if rating > 5 {
					rating = 5
				}
				return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
			},
			// safeHTML marks pre-rendered markdown output as safe.
			"safeHTML": func(s string) template.HTML {
				return template.HTML(s)
			},
		},
	}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		tmplName := strings.TrimSuffix(name, ".html")
		if tmplName == "base" || tmplName == "admin_base" {
			continue
		}

		var tmpl *template.Template
		var parseErr error

		switch {
		case standaloneTemplates[tmplName]:
			tmpl, parseErr = template.New(name).Funcs(r.funcMap).ParseFS(
				templateFS, "templates/"+name,
			)
		case strings.HasPrefix(tmplName, "admin_"):
			tmpl, parseErr = template.New("admin_base.html").Funcs(r.funcMap).ParseFS(
				templateFS, "templates/admin_base.html", "templates/"+name,
			)
		default:
			tmpl, parseErr = template.New("base.html").Funcs(r.funcMap).ParseFS(
				templateFS, "templates/base.html", "templates/"+name,
			)
		}

		if parseErr != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, parseErr)
		}

		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Page renders a full page or an HTMX partial, depending on the request
// headers. For HTMX requests, only the "content" block is sent. For full
// page loads, the entire layout is rendered.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	// Inject CSRF token from context (set by CSRF middleware).
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())

	// Inject session from context.
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
	if data.Session != nil {
		data.CartCount = data.Session.Cart.Count()
	}

	data.Year = time.Now().Year()
	data.Flashes = append(data.Flashes, popFlash(w, r)...)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	// HTMX request: render only the content fragment.
	if isHTMX(r) {
		if err := executeTemplate(w, tmpl, "content", data); err != nil {
			http.Error(w, "template error", http.StatusInternalServerError)
		}
		return
	}

	// Full page request: render the complete layout.
	execName := "base.html"
	switch {
	case standaloneTemplates[name]:
		execName = name + ".html"
	case strings.HasPrefix(name, "admin_"):
		execName = "admin_base.html"
	}

	if err := executeTemplate(w, tmpl, execName, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
