package core

import (
	"context"
	"time"
)

type (
	// Session is one signed-in browser or CLI session of the gateway. It
	// carries the backend credential obtained at sign-in; Linked is false
	// when the identity bridge could not produce one.
	Session struct {
		ID         string    `json:"id"`
		AccountID  string    `json:"accountId"`
		Email      string    `json:"email"`
		Name       string    `json:"name"`
		Image      string    `json:"image,omitempty"`
		Provider   string    `json:"provider"`
		Subject    string    `json:"subject,omitempty"`
		Credential string    `json:"credential,omitempty"`
		Linked     bool      `json:"linked"`
		CreatedAt  time.Time `json:"createdAt"`
		ExpiresAt  time.Time `json:"expiresAt"`
	}

	// SessionStore persists gateway sessions.
	SessionStore interface {
		// Get returns the session with the given id. Unknown and expired
		// sessions yield ErrSessionNotFound.
		Get(ctx context.Context, id string) (*Session, error)

		// Save creates or replaces a session.
		Save(ctx context.Context, session *Session) error

		// Delete removes a session. Deleting an unknown id is not an error.
		Delete(ctx context.Context, id string) error
	}
)

// Expired reports whether s is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
