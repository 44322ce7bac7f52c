// Package respond renders gateway errors as {"error": "..."} JSON bodies.
package respond

import (
	"errors"
	"net/http"

	"listsync/core"
	"listsync/session"

	"github.com/go-chi/render"
)

// Message writes status with msg as the error text.
func Message(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// Error writes err with the status matching its kind.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	Message(w, r, Status(err), core.Message(err))
}

// Status maps an error kind to the gateway's HTTP status.
func Status(err error) int {
	var invalid *core.ValidationError
	var rejected *core.ServerRejectedError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthorized), errors.Is(err, core.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrNotLinked):
		return http.StatusForbidden
	case errors.As(err, &rejected):
		if rejected.StatusCode >= 400 && rejected.StatusCode < 600 {
			return rejected.StatusCode
		}
		return http.StatusBadGateway
	case errors.Is(err, core.ErrConnectionFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
