// Package cache holds the client-side projection of the authority's lists.
//
// Every mutation is one round trip through the remote client followed by a
// wholesale replacement of the affected list or item with what the
// authority returned. Nothing is applied before the authority confirms it,
// and a failed call leaves the projection exactly as it was.
package cache

import (
	"context"
	"sort"
	"sync"

	"listsync/core"

	"github.com/sirupsen/logrus"
)

// Remote is the part of the authority API the cache mirrors.
type Remote interface {
	Lists(ctx context.Context) ([]core.List, error)
	List(ctx context.Context, id string) (*core.List, error)
	CreateList(ctx context.Context, name, description string) (*core.List, error)
	UpdateList(ctx context.Context, id string, patch core.ListPatch) (*core.List, error)
	DeleteList(ctx context.Context, id string) error
	Items(ctx context.Context, listID string) ([]core.Item, error)
	CreateItem(ctx context.Context, listID string, in core.ItemInput) (*core.Item, error)
	UpdateItem(ctx context.Context, listID, itemID string, patch core.ItemPatch) (*core.Item, error)
	ToggleItem(ctx context.Context, listID, itemID string) (*core.Item, error)
	DeleteItem(ctx context.Context, listID, itemID string) error
	ClearCompleted(ctx context.Context, listID string) error
}

// Cache is the projection of one account's lists. It is safe for
// concurrent use; the lock is only held while a response is applied, never
// across a network call.
type Cache struct {
	remote Remote

	mu      sync.RWMutex
	lists   map[string]core.List
	current string
	lastErr string
}

// New creates an empty cache backed by remote.
func New(remote Remote) *Cache {
	return &Cache{
		remote: remote,
		lists:  make(map[string]core.List),
	}
}

// Lists returns a copy of every cached list, oldest first.
func (c *Cache) Lists() []core.List {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]core.List, 0, len(c.lists))
	for _, l := range c.lists {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns a copy of the cached list with the given id.
func (c *Cache) Get(id string) (core.List, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lists[id]
	if !ok {
		return core.List{}, false
	}
	return l.Clone(), true
}

// Snapshot returns a deep copy of the whole projection keyed by list id.
func (c *Cache) Snapshot() map[string]core.List {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]core.List, len(c.lists))
	for id, l := range c.lists {
		out[id] = l.Clone()
	}
	return out
}

// SetCurrent selects a list. An empty id clears the selection.
func (c *Cache) SetCurrent(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = id
}

// Current returns the selected list if it is cached.
func (c *Cache) Current() (core.List, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lists[c.current]
	if !ok {
		return core.List{}, false
	}
	return l.Clone(), true
}

// LastError returns the message of the most recent failed operation, or
// "" when the last operation succeeded or ClearError was called.
func (c *Cache) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// ClearError forgets the recorded error.
func (c *Cache) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
}

// Clear empties the projection, used on sign-out.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists = make(map[string]core.List)
	c.current = ""
	c.lastErr = ""
}

// Upsert stores l as the authority's latest representation of that list,
// replacing any cached copy.
func (c *Cache) Upsert(l core.List) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[l.ID] = l.Clone()
	c.lastErr = ""
}

// ApplyShareCode records a share code the authority issued for a list.
func (c *Cache) ApplyShareCode(listID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
	if l, ok := c.lists[listID]; ok {
		l.ShareCode = code
		c.lists[listID] = l
	}
}

// ApplyCollaboratorRemoved drops a collaborator the authority confirmed as
// removed.
func (c *Cache) ApplyCollaboratorRemoved(listID, accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
	l, ok := c.lists[listID]
	if !ok {
		return
	}
	kept := make([]core.Collaborator, 0, len(l.SharedWith))
	for _, collaborator := range l.SharedWith {
		if collaborator.AccountID != accountID {
			kept = append(kept, collaborator)
		}
	}
	l.SharedWith = kept
	c.lists[listID] = l
}

// Fail records err as the last error and returns it unchanged.
func (c *Cache) Fail(err error) error {
	c.mu.Lock()
	c.lastErr = core.Message(err)
	c.mu.Unlock()

	logrus.WithError(err).Debug("List operation failed")
	return err
}

// Begin resets the recorded error at the start of an operation.
func (c *Cache) Begin() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
}

// updateList applies fn to the cached list with the given id, if any.
func (c *Cache) updateList(id string, fn func(*core.List)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lists[id]
	if !ok {
		return
	}
	l = l.Clone()
	fn(&l)
	c.lists[id] = l
}
