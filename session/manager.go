// Package session owns the per-session state of the gateway: one remote
// client, collection cache and share protocol per signed-in session, built
// lazily from the persisted session and torn down on sign-out or when the
// authority stops accepting the credential.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"listsync/cache"
	"listsync/core"
	"listsync/remote"
	"listsync/share"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// droppedRetention bounds how long a torn-down session id is remembered.
const droppedRetention = 10 * time.Minute

// ErrNotLinked is returned for sessions whose external identity could not
// be linked to a backend account.
var ErrNotLinked = errors.New("account not linked")

type (
	// Workspace is the live state of one session.
	Workspace struct {
		Session core.Session
		Client  *remote.Client
		Lists   *cache.Cache
		Share   *share.Protocol
	}

	// Manager creates sessions and hands out their workspaces.
	Manager struct {
		store      core.SessionStore
		apiURL     string
		httpClient *http.Client
		ttl        time.Duration
		now        func() time.Time

		mu         sync.Mutex
		workspaces map[string]*Workspace
		// dropped holds ids torn down while a workspace may still be under
		// construction, with the time they were dropped.
		dropped map[string]time.Time
	}
)

// NewManager creates a Manager persisting sessions in store. Workspaces
// talk to the authority at apiURL; a nil httpClient means the default one.
func NewManager(store core.SessionStore, apiURL string, httpClient *http.Client, ttl time.Duration) *Manager {
	return &Manager{
		store:      store,
		apiURL:     apiURL,
		httpClient: httpClient,
		ttl:        ttl,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
		dropped:    make(map[string]time.Time),
	}
}

// TTL is the lifetime given to new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create assigns an id and expiry to s and persists it.
func (m *Manager) Create(ctx context.Context, s core.Session) (*core.Session, error) {
	now := m.now()
	s.ID = ulid.Make().String()
	s.CreatedAt = now
	if m.ttl > 0 {
		s.ExpiresAt = now.Add(m.ttl)
	}
	if !s.Linked {
		s.Credential = ""
	}

	if err := m.store.Save(ctx, &s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"session_id": s.ID,
		"account_id": s.AccountID,
		"provider":   s.Provider,
		"linked":     s.Linked,
	}).Info("Session created")
	return &s, nil
}

// Get returns the persisted session.
func (m *Manager) Get(ctx context.Context, id string) (*core.Session, error) {
	return m.store.Get(ctx, id)
}

// Workspace returns the live workspace of session id, building it on first
// use. Unlinked sessions yield ErrNotLinked.
func (m *Manager) Workspace(ctx context.Context, id string) (*Workspace, error) {
	m.mu.Lock()
	ws, ok := m.workspaces[id]
	m.mu.Unlock()
	if ok {
		if ws.Session.Expired(m.now()) {
			m.drop(id)
			return nil, core.ErrSessionNotFound
		}
		return ws, nil
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Linked || s.Credential == "" {
		return nil, ErrNotLinked
	}

	client := remote.New(m.apiURL, m.httpClient)
	client.SetCredential(s.Credential)
	lists := cache.New(client)
	ws = &Workspace{
		Session: *s,
		Client:  client,
		Lists:   lists,
		Share:   share.New(client, lists),
	}
	client.SetUnauthorizedHandler(func() { m.invalidate(id) })

	m.mu.Lock()
	defer m.mu.Unlock()
	// The session was signed out or invalidated while this one was built;
	// its credential is dead.
	if _, gone := m.dropped[id]; gone {
		client.SetUnauthorizedHandler(nil)
		client.SetCredential("")
		return nil, core.ErrSessionNotFound
	}
	// Another request may have built it meanwhile; keep the first one so
	// every caller shares a single cache.
	if existing, ok := m.workspaces[id]; ok {
		return existing, nil
	}
	m.workspaces[id] = ws
	return ws, nil
}

// SignOut clears the session's projection and credential and deletes the
// session.
func (m *Manager) SignOut(ctx context.Context, id string) error {
	m.drop(id)
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	logrus.WithField("session_id", id).Info("Session signed out")
	return nil
}

// invalidate runs when the authority answered 401 for the session's
// credential.
func (m *Manager) invalidate(id string) {
	m.drop(id)
	log := logrus.WithField("session_id", id)
	if err := m.store.Delete(context.Background(), id); err != nil {
		log.WithError(err).Error("Failed to delete invalidated session")
		return
	}
	log.Warn("Session invalidated by authority")
}

func (m *Manager) drop(id string) {
	m.mu.Lock()
	ws, ok := m.workspaces[id]
	delete(m.workspaces, id)
	now := m.now()
	m.dropped[id] = now
	for old, at := range m.dropped {
		// Ids are never reused; keep them only as long as a build could
		// still be in flight.
		if now.Sub(at) > droppedRetention {
			delete(m.dropped, old)
		}
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	ws.Client.SetUnauthorizedHandler(nil)
	ws.Client.SetCredential("")
	ws.Lists.Clear()
}
