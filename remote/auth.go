package remote

import (
	"context"
	"net/http"

	"listsync/core"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Login exchanges an email and password for an account and credential.
func (c *Client) Login(ctx context.Context, email, password string) (*core.AuthResult, error) {
	var out core.AuthResult
	if err := c.Do(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns it with a credential.
func (c *Client) Register(ctx context.Context, email, password, name string) (*core.AuthResult, error) {
	var out core.AuthResult
	if err := c.Do(ctx, http.MethodPost, "/auth/register", credentials{Email: email, Password: password, Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account the current credential belongs to.
func (c *Client) Me(ctx context.Context) (*core.Account, error) {
	var out core.Account
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
