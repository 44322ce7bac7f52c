package cache

import (
	"context"
	"strings"

	"listsync/core"

	"github.com/sirupsen/logrus"
)

// FetchLists replaces the whole projection with the authority's lists.
func (c *Cache) FetchLists(ctx context.Context) ([]core.List, error) {
	c.Begin()
	lists, err := c.remote.Lists(ctx)
	if err != nil {
		return nil, c.Fail(err)
	}

	fresh := make(map[string]core.List, len(lists))
	for _, l := range lists {
		fresh[l.ID] = l.Clone()
	}
	c.mu.Lock()
	c.lists = fresh
	c.mu.Unlock()

	logrus.WithField("count", len(lists)).Debug("Fetched lists")
	return c.Lists(), nil
}

// FetchList refreshes one list, inserting it when it was not cached yet.
func (c *Cache) FetchList(ctx context.Context, id string) (*core.List, error) {
	c.Begin()
	l, err := c.remote.List(ctx, id)
	if err != nil {
		return nil, c.Fail(err)
	}
	c.Upsert(*l)
	return l, nil
}

// CreateList creates a list and selects it.
func (c *Cache) CreateList(ctx context.Context, name, description string) (*core.List, error) {
	c.Begin()
	if strings.TrimSpace(name) == "" {
		return nil, c.Fail(core.Invalid("name", "is required"))
	}

	l, err := c.remote.CreateList(ctx, strings.TrimSpace(name), strings.TrimSpace(description))
	if err != nil {
		return nil, c.Fail(err)
	}

	c.mu.Lock()
	c.lists[l.ID] = l.Clone()
	c.current = l.ID
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{"list_id": l.ID, "name": l.Name}).Info("List created")
	return l, nil
}

// UpdateList patches a list. The cached entry is replaced by the
// authority's full answer, including fields the patch did not mention.
func (c *Cache) UpdateList(ctx context.Context, id string, patch core.ListPatch) (*core.List, error) {
	c.Begin()
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, c.Fail(core.Invalid("name", "must not be empty"))
	}

	l, err := c.remote.UpdateList(ctx, id, patch)
	if err != nil {
		return nil, c.Fail(err)
	}
	c.Upsert(*l)
	return l, nil
}

// DeleteList deletes a list and drops it from the projection once the
// authority confirmed. Deleting an unknown list surfaces the authority's
// not-found error.
func (c *Cache) DeleteList(ctx context.Context, id string) error {
	c.Begin()
	if err := c.remote.DeleteList(ctx, id); err != nil {
		return c.Fail(err)
	}

	c.mu.Lock()
	delete(c.lists, id)
	if c.current == id {
		c.current = ""
	}
	c.mu.Unlock()

	logrus.WithField("list_id", id).Info("List deleted")
	return nil
}
