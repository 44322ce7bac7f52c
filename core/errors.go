package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the authority answered 401. The
	// current session must be considered over.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConnectionFailed is returned when no usable response arrived: the
	// transport failed or the body was not JSON.
	ErrConnectionFailed = errors.New("connection to server failed")

	// ErrSessionNotFound is returned by session stores for unknown or
	// expired sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError rejects an operation before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ServerRejectedError is a non-2xx, non-401 answer from the authority.
type ServerRejectedError struct {
	StatusCode int
	Message    string
}

func (e *ServerRejectedError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Message returns the text to show a user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var rejected *ServerRejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		return invalid.Error()
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "session expired, please sign in again"
	case errors.Is(err, ErrConnectionFailed):
		return "could not reach the server"
	}
	return err.Error()
}
