// Package identity owns accounts: registration, login, profile state, and
// the email verification-code protocol.
package identity

import (
	"errors"
	"time"

	"cgms.org/internal/auth"
)

var (
	ErrNotFound        = errors.New("identity: account not found")
	ErrEmailTaken      = errors.New("identity: email already registered")
	ErrInvalidPassword = errors.New("identity: invalid password")
	// ErrCodeInvalidOrExpired deliberately does not distinguish a wrong code
	// from an expired one; the ambiguity avoids leaking which codes were
	// ever issued.
	ErrCodeInvalidOrExpired = errors.New("identity: invalid or expired verification code")
)

// VerificationCode is the pending one-time code on an account. Code and
// expiry travel as one value so they can only be set and cleared together.
type VerificationCode struct {
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Account is a stored identity record.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`

	// Pending is nil unless a verification code has been requested and not
	// yet consumed or replaced. Once Verified flips true the pair is cleared
	// and stays clear.
	Pending *VerificationCode `json:"-"`
}

// ProfileUpdate carries optional profile mutations.
type ProfileUpdate struct {
	Username *string
	Email    *string
}
