package cache

import (
	"context"
	"strings"

	"listsync/core"
)

// FetchItems replaces a cached list's items with the authority's.
func (c *Cache) FetchItems(ctx context.Context, listID string) ([]core.Item, error) {
	c.Begin()
	items, err := c.remote.Items(ctx, listID)
	if err != nil {
		return nil, c.Fail(err)
	}
	c.updateList(listID, func(l *core.List) {
		l.Items = make([]core.Item, len(items))
		for i, item := range items {
			l.Items[i] = item.Clone()
		}
	})
	return items, nil
}

// AddItem creates an item and appends the authority's copy to the list.
func (c *Cache) AddItem(ctx context.Context, listID string, in core.ItemInput) (*core.Item, error) {
	c.Begin()
	in.Name = strings.TrimSpace(in.Name)
	if err := validateItem(in); err != nil {
		return nil, c.Fail(err)
	}

	item, err := c.remote.CreateItem(ctx, listID, in)
	if err != nil {
		return nil, c.Fail(err)
	}
	c.updateList(listID, func(l *core.List) {
		l.Items = append(l.Items, item.Clone())
	})
	return item, nil
}

// UpdateItem patches an item and replaces it in place.
func (c *Cache) UpdateItem(ctx context.Context, listID, itemID string, patch core.ItemPatch) (*core.Item, error) {
	c.Begin()
	if err := validatePatch(patch); err != nil {
		return nil, c.Fail(err)
	}

	item, err := c.remote.UpdateItem(ctx, listID, itemID, patch)
	if err != nil {
		return nil, c.Fail(err)
	}
	c.replaceItem(listID, itemID, *item)
	return item, nil
}

// ToggleItem flips an item's completed flag on the authority.
func (c *Cache) ToggleItem(ctx context.Context, listID, itemID string) (*core.Item, error) {
	c.Begin()
	item, err := c.remote.ToggleItem(ctx, listID, itemID)
	if err != nil {
		return nil, c.Fail(err)
	}
	c.replaceItem(listID, itemID, *item)
	return item, nil
}

// DeleteItem removes an item, keeping the order of the others.
func (c *Cache) DeleteItem(ctx context.Context, listID, itemID string) error {
	c.Begin()
	if err := c.remote.DeleteItem(ctx, listID, itemID); err != nil {
		return c.Fail(err)
	}
	c.updateList(listID, func(l *core.List) {
		if i := l.ItemIndex(itemID); i >= 0 {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
		}
	})
	return nil
}

// ClearCompleted removes every completed item of a list.
func (c *Cache) ClearCompleted(ctx context.Context, listID string) error {
	c.Begin()
	if err := c.remote.ClearCompleted(ctx, listID); err != nil {
		return c.Fail(err)
	}
	c.updateList(listID, func(l *core.List) {
		kept := make([]core.Item, 0, len(l.Items))
		for _, item := range l.Items {
			if !item.Completed {
				kept = append(kept, item)
			}
		}
		l.Items = kept
	})
	return nil
}

func (c *Cache) replaceItem(listID, itemID string, item core.Item) {
	c.updateList(listID, func(l *core.List) {
		if i := l.ItemIndex(itemID); i >= 0 {
			l.Items[i] = item.Clone()
		}
	})
}

func validateItem(in core.ItemInput) error {
	if in.Name == "" {
		return core.Invalid("name", "is required")
	}
	if in.Quantity <= 0 {
		return core.Invalid("quantity", "must be a positive number")
	}
	if in.Category != "" && !in.Category.Valid() {
		return core.Invalid("category", "is not a known category")
	}
	return nil
}

func validatePatch(patch core.ItemPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return core.Invalid("name", "must not be empty")
	}
	if patch.Quantity != nil && *patch.Quantity <= 0 {
		return core.Invalid("quantity", "must be a positive number")
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return core.Invalid("category", "is not a known category")
	}
	return nil
}
