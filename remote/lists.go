package remote

import (
	"context"
	"net/http"
	"net/url"

	"listsync/core"
)

func listPath(id string) string {
	return "/lists/" + url.PathEscape(id)
}

// Lists returns every list the current account owns or collaborates on.
func (c *Client) Lists(ctx context.Context) ([]core.List, error) {
	var out []core.List
	if err := c.Do(ctx, http.MethodGet, "/lists", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns a single list with its items and collaborators.
func (c *Client) List(ctx context.Context, id string) (*core.List, error) {
	var out core.List
	if err := c.Do(ctx, http.MethodGet, listPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateList creates a list owned by the current account.
func (c *Client) CreateList(ctx context.Context, name, description string) (*core.List, error) {
	in := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}{Name: name, Description: description}

	var out core.List
	if err := c.Do(ctx, http.MethodPost, "/lists", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateList patches the name and/or description of a list and returns
// the complete list as the authority now holds it.
func (c *Client) UpdateList(ctx context.Context, id string, patch core.ListPatch) (*core.List, error) {
	var out core.List
	if err := c.Do(ctx, http.MethodPatch, listPath(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteList deletes a list.
func (c *Client) DeleteList(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, listPath(id), nil, nil)
}
