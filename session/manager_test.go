package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"listsync/core"
	"listsync/remote/remotetest"
	"listsync/stores/memory"
)

func newLinkedSession(t *testing.T, m *Manager, authority *remotetest.Authority) *core.Session {
	t.Helper()
	account, token := authority.SeedUser("ana@example.com", "secret123", "Ana")
	s, err := m.Create(context.Background(), core.Session{
		AccountID:  account.ID,
		Email:      account.Email,
		Name:       account.Name,
		Provider:   "credentials",
		Credential: token,
		Linked:     true,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return s
}

func TestCreateAssignsIDAndExpiry(t *testing.T) {
	m := NewManager(memory.NewStore(), "http://unused", nil, time.Hour)
	s, err := m.Create(context.Background(), core.Session{AccountID: "a", Credential: "tok", Linked: false})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(s.ID) != 26 {
		t.Errorf("session id %q is not a ULID", s.ID)
	}
	if got := s.ExpiresAt.Sub(s.CreatedAt); got != time.Hour {
		t.Errorf("session lifetime = %v, want 1h", got)
	}
	if s.Credential != "" {
		t.Error("unlinked session kept a credential")
	}
}

func TestWorkspaceSharedAndAuthenticated(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	m := NewManager(memory.NewStore(), url, nil, time.Hour)
	s := newLinkedSession(t, m, authority)
	ctx := context.Background()

	ws, err := m.Workspace(ctx, s.ID)
	if err != nil {
		t.Fatalf("Workspace() failed: %v", err)
	}
	if _, err := ws.Lists.CreateList(ctx, "Groceries", ""); err != nil {
		t.Fatalf("CreateList() failed: %v", err)
	}

	again, _ := m.Workspace(ctx, s.ID)
	if again != ws {
		t.Error("Workspace() built a second workspace for the same session")
	}
	if len(again.Lists.Lists()) != 1 {
		t.Error("projection not shared between calls")
	}
}

func TestWorkspaceUnlinked(t *testing.T) {
	m := NewManager(memory.NewStore(), "http://unused", nil, time.Hour)
	s, _ := m.Create(context.Background(), core.Session{AccountID: "google:1", Provider: "google"})

	if _, err := m.Workspace(context.Background(), s.ID); !errors.Is(err, ErrNotLinked) {
		t.Errorf("Workspace() = %v, want ErrNotLinked", err)
	}
}

func TestWorkspaceUnknownSession(t *testing.T) {
	m := NewManager(memory.NewStore(), "http://unused", nil, time.Hour)
	if _, err := m.Workspace(context.Background(), "nope"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Workspace() = %v, want ErrSessionNotFound", err)
	}
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	store := memory.NewStore()
	m := NewManager(store, url, nil, time.Hour)
	s := newLinkedSession(t, m, authority)
	ctx := context.Background()

	ws, _ := m.Workspace(ctx, s.ID)
	ws.Lists.CreateList(ctx, "Groceries", "")

	authority.RevokeTokens()
	if _, err := ws.Lists.FetchLists(ctx); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("FetchLists() = %v, want ErrUnauthorized", err)
	}

	if ws.Client.Credential() != "" {
		t.Error("credential kept after 401")
	}
	if len(ws.Lists.Lists()) != 0 {
		t.Error("projection kept after 401")
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("session still stored after 401: %v", err)
	}
	if _, err := m.Workspace(ctx, s.ID); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Workspace() after 401 = %v", err)
	}
}

func TestSignOut(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	m := NewManager(memory.NewStore(), url, nil, time.Hour)
	s := newLinkedSession(t, m, authority)
	ctx := context.Background()

	ws, _ := m.Workspace(ctx, s.ID)
	ws.Lists.CreateList(ctx, "Groceries", "")

	if err := m.SignOut(ctx, s.ID); err != nil {
		t.Fatalf("SignOut() failed: %v", err)
	}
	if len(ws.Lists.Lists()) != 0 || ws.Client.Credential() != "" {
		t.Error("sign-out left session state behind")
	}
	if _, err := m.Get(ctx, s.ID); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Get() after SignOut() = %v", err)
	}
	// Signing out twice is harmless.
	if err := m.SignOut(ctx, s.ID); err != nil {
		t.Errorf("second SignOut() failed: %v", err)
	}
}

func TestWorkspaceExpired(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	m := NewManager(memory.NewStore(), url, nil, time.Hour)
	s := newLinkedSession(t, m, authority)
	ctx := context.Background()

	m.Workspace(ctx, s.ID)
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := m.Workspace(ctx, s.ID); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Workspace() of expired session = %v", err)
	}
}

// hookStore runs afterGet once a session has been read.
type hookStore struct {
	core.SessionStore
	afterGet func()
}

func (h *hookStore) Get(ctx context.Context, id string) (*core.Session, error) {
	s, err := h.SessionStore.Get(ctx, id)
	if h.afterGet != nil {
		h.afterGet()
	}
	return s, err
}

func TestWorkspaceBuildLosesToInvalidate(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	store := &hookStore{SessionStore: memory.NewStore()}
	m := NewManager(store, url, nil, time.Hour)
	s := newLinkedSession(t, m, authority)
	ctx := context.Background()

	store.afterGet = func() { m.invalidate(s.ID) }
	if _, err := m.Workspace(ctx, s.ID); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Workspace() = %v, want ErrSessionNotFound", err)
	}
	store.afterGet = nil

	m.mu.Lock()
	_, kept := m.workspaces[s.ID]
	m.mu.Unlock()
	if kept {
		t.Error("workspace with a dead credential was kept")
	}
	if _, err := m.Workspace(ctx, s.ID); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Workspace() after invalidate = %v", err)
	}
}

func TestWorkspaceBuildLosesToSignOut(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	store := &hookStore{SessionStore: memory.NewStore()}
	m := NewManager(store, url, nil, time.Hour)
	s := newLinkedSession(t, m, authority)
	ctx := context.Background()

	store.afterGet = func() { m.SignOut(ctx, s.ID) }
	if _, err := m.Workspace(ctx, s.ID); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Workspace() = %v, want ErrSessionNotFound", err)
	}
}
