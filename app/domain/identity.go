package domain

import (
	"net/mail"
	"strings"
)

// Identity represents the authenticated principal's public profile
// as reported by the identity provider.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// SessionChange is a single notification on the identity provider's
// change stream. Identity is nil when no principal is authenticated.
type SessionChange struct {
	Identity *Identity
}

// ValidateEmail checks that the given address is a parseable email.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return NewAuthError(CodeInvalidEmail, "email is required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return NewAuthError(CodeInvalidEmail, "invalid email format", err)
	}
	return nil
}
