package remote

import (
	"context"
	"net/http"
	"net/url"

	"listsync/core"
)

// GenerateShareCode asks the authority for a join code for a list.
func (c *Client) GenerateShareCode(ctx context.Context, listID string) (string, error) {
	var out struct {
		ShareCode string `json:"shareCode"`
	}
	if err := c.Do(ctx, http.MethodPost, listPath(listID)+"/share-code", nil, &out); err != nil {
		return "", err
	}
	return out.ShareCode, nil
}

// JoinList redeems a share code and returns the joined list.
func (c *Client) JoinList(ctx context.Context, code string) (*core.List, error) {
	in := struct {
		Code string `json:"code"`
	}{Code: code}

	var out core.List
	if err := c.Do(ctx, http.MethodPost, "/lists/join", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShareWithUser grants an existing account access to a list by email.
func (c *Client) ShareWithUser(ctx context.Context, listID, email string, canEdit bool) (*core.List, error) {
	in := struct {
		Email   string `json:"email"`
		CanEdit bool   `json:"canEdit"`
	}{Email: email, CanEdit: canEdit}

	var out core.List
	if err := c.Do(ctx, http.MethodPost, listPath(listID)+"/share", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveShare revokes an account's access to a list.
func (c *Client) RemoveShare(ctx context.Context, listID, userID string) error {
	return c.Do(ctx, http.MethodDelete, listPath(listID)+"/share/"+url.PathEscape(userID), nil, nil)
}
