package remote

import (
	"context"
	"net/http"
	"net/url"

	"listsync/core"
)

func itemPath(listID, itemID string) string {
	return listPath(listID) + "/items/" + url.PathEscape(itemID)
}

// Items returns the items of a list in server order.
func (c *Client) Items(ctx context.Context, listID string) ([]core.Item, error) {
	var out []core.Item
	if err := c.Do(ctx, http.MethodGet, listPath(listID)+"/items", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateItem adds an item to a list.
func (c *Client) CreateItem(ctx context.Context, listID string, in core.ItemInput) (*core.Item, error) {
	var out core.Item
	if err := c.Do(ctx, http.MethodPost, listPath(listID)+"/items", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateItem patches an item.
func (c *Client) UpdateItem(ctx context.Context, listID, itemID string, patch core.ItemPatch) (*core.Item, error) {
	var out core.Item
	if err := c.Do(ctx, http.MethodPatch, itemPath(listID, itemID), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleItem flips the completed flag of an item.
func (c *Client) ToggleItem(ctx context.Context, listID, itemID string) (*core.Item, error) {
	var out core.Item
	if err := c.Do(ctx, http.MethodPatch, itemPath(listID, itemID)+"/toggle", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, listID, itemID string) error {
	return c.Do(ctx, http.MethodDelete, itemPath(listID, itemID), nil, nil)
}

// ClearCompleted removes every completed item of a list.
func (c *Client) ClearCompleted(ctx context.Context, listID string) error {
	return c.Do(ctx, http.MethodDelete, listPath(listID)+"/items", nil, nil)
}
