// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"regexp"
	"unicode/utf8"

	"candelora/internal/checkout"
)

// emailRx is a permissive shape check; deliverability is not our problem.
var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validateCheckout checks the checkout contact fields, returning a
// user-facing message for the first problem found.
func validateCheckout(c checkout.Contact) string {
	switch {
	case c.Name == "":
		return "Enter your full name."
	case utf8.RuneCountInString(c.Name) > 120:
		return "Name is too long."
	case c.Email == "" || !emailRx.MatchString(c.Email):
		return "Enter a valid email address."
	case c.Phone == "":
		return "Enter a phone number."
	case utf8.RuneCountInString(c.Phone) > 40:
		return "Phone number is too long."
	case c.Address == "":
		return "Enter a delivery address."
	case utf8.RuneCountInString(c.Address) > 500:
		return "Address is too long."
	case c.City == "":
		return "Enter a city."
	case utf8.RuneCountInString(c.City) > 120:
		return "City is too long."
	}
	return ""
}

// validateContact checks the contact form fields.
func validateContact(name, email, message string) string {
	switch {
	case name == "":
		return "Enter your name."
	case utf8.RuneCountInString(name) > 120:
		return "Name is too long."
	case email == "" || !emailRx.MatchString(email):
		return "Enter a valid email address."
	case message == "":
		return "Enter a message."
	case utf8.RuneCountInString(message) > 5000:
		return "Message is too long."
	}
	return ""
}

// validateReview checks a submitted review. Ratings are whole stars,
// one through five.
func validateReview(rating int, comment string) string {
	switch {
	case rating < 1 || rating > 5:
		return "Rating must be between 1 and 5."
	case utf8.RuneCountInString(comment) > 2000:
		return "Comment is too long."
	}
	return ""
}

// validateProductName checks the catalog product name.
func validateProductName(name string) string {
	switch {
	case name == "":
		return "Enter a product name."
	case utf8.RuneCountInString(name) > 200:
		return "Product name is too long."
	}
	return ""
}

// validateCategoryName checks the category name.
func validateCategoryName(name string) string {
	switch {
	case name == "":
		return "Enter a category name."
	case utf8.RuneCountInString(name) > 100:
		return "Category name is too long."
	}
	return ""
}
