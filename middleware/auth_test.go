package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"listsync/core"
	"listsync/handlers/auth"
)

func TestAuthJWT(t *testing.T) {
	signer := auth.NewSigner("secret")
	token, err := signer.Sign(&core.Session{
		ID:        "s1",
		AccountID: "acc-1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Sign() failed: %v", err)
	}

	var seen *auth.AppClaims
	handler := AuthJWT(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.ClaimsFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && (seen == nil || seen.ID != "s1") {
				t.Errorf("claims not in context: %+v", seen)
			}
			if tt.want != http.StatusOK && seen != nil {
				t.Error("next handler ran for a rejected request")
			}
		})
	}
}
