package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"listsync/core"
)

func TestSaveGetDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ctx := context.Background()

	session := &core.Session{
		ID:        "01HZX",
		AccountID: "acc-1",
		Email:     "ana@example.com",
		Provider:  "credentials",
		Linked:    true,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "01HZX.json")); err != nil {
		t.Fatalf("session file not written: %v", err)
	}

	got, err := store.Get(ctx, "01HZX")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.AccountID != "acc-1" || !got.ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("Get() returned %+v", got)
	}

	if err := store.Delete(ctx, "01HZX"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "01HZX"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Get() after Delete() = %v", err)
	}
	if err := store.Delete(ctx, "01HZX"); err != nil {
		t.Errorf("Delete() of missing file failed: %v", err)
	}
}

func TestGet_ExpiredRemovesFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ctx := context.Background()

	store.Save(ctx, &core.Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	if _, err := store.Get(ctx, "old"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("Get() = %v, want ErrSessionNotFound", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.json")); !os.IsNotExist(err) {
		t.Error("expired session file was not removed")
	}
}

func TestPathTraversalRejected(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"../escape", "a/b", "..", ""} {
		if err := store.Save(ctx, &core.Session{ID: id}); err == nil {
			t.Errorf("Save(%q) succeeded", id)
		}
		if _, err := store.Get(ctx, id); !errors.Is(err, core.ErrSessionNotFound) {
			t.Errorf("Get(%q) = %v", id, err)
		}
	}
}
