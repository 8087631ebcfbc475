package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a storefront account. Regular users can leave reviews; admins
// additionally manage the catalog through the back office and must
// complete TOTP 2FA after login.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	IsAdmin      bool      `json:"is_admin"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// Needs2FASetup returns true if an admin has not completed 2FA enrollment.
// Non-admin accounts never enroll.
func (u *User) Needs2FASetup() bool {
	return u.IsAdmin && !u.TOTPEnabled
}
