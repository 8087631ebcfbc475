// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the public storefront
// and the admin back office. Handlers are grouped into small structs by
// area, each holding exactly the stores and services it needs.
package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

// formValue returns a trimmed form value.
func formValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

// formInt parses a form value as an int, returning fallback on absence
// or garbage.
func formInt(r *http.Request, name string, fallback int) int {
	v := formValue(r, name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// notFound renders a plain 404. The catalog pages use it for unknown slugs.
func notFound(w http.ResponseWriter) {
	http.Error(w, "Not Found", http.StatusNotFound)
}
