package core

import "strings"

type (
	// Account is a backend user. Email is the identity key and compares
	// case-insensitively.
	Account struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Image string `json:"image,omitempty"`
	}

	// AuthResult is what the backend answers to a login or a registration.
	AuthResult struct {
		User        Account `json:"user"`
		AccessToken string  `json:"access_token"`
	}

	// UserSummary is the denormalized account view embedded in lists and
	// items.
	UserSummary struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
)

// NormalizeEmail returns the canonical form of an email used as an
// identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
