package auth

import (
	"context"
	"fmt"
	"time"

	"listsync/core"

	"github.com/golang-jwt/jwt/v5"
)

// AppClaims represents the custom claims for the JWT. ID carries the
// session id and Subject the backend account id.
type AppClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Provider  string `json:"provider"`
	Linked    bool   `json:"linked"`
}

// Signer issues and verifies the gateway's session tokens.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign creates a token for s that expires with it.
func (s *Signer) Sign(session *core.Session) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   session.AccountID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		Email:     session.Email,
		Name:      session.Name,
		AvatarURL: session.Image,
		Provider:  session.Provider,
		Linked:    session.Linked,
	}
	if session.ExpiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(30 * 24 * time.Hour))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies tokenString and returns its claims.
func (s *Signer) Parse(tokenString string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid && claims.ID != "" {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

type contextKey string

const claimsContextKey = contextKey("claims")

// NewContext returns a copy of ctx carrying claims.
func NewContext(ctx context.Context, claims *AppClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the claims stored by NewContext.
func ClaimsFromContext(ctx context.Context) (*AppClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*AppClaims)
	return claims, ok
}
