package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"listsync/remote/remotetest"
)

// run executes one listctl invocation against the given home and API.
func run(t *testing.T, dir, api string, args ...string) error {
	t.Helper()
	home, apiURL, timeout, verbose = "", "", 0, false
	root := newRoot()
	root.SetArgs(append([]string{"--home", dir, "--api", api}, args...))
	return root.Execute()
}

func readProfile(t *testing.T, dir string) *profile {
	t.Helper()
	p, err := loadProfile(dir)
	if err != nil {
		t.Fatalf("loadProfile() failed: %v", err)
	}
	return p
}

func TestLoginAndListFlow(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	authority.SeedUser("ana@example.com", "secret123", "Ana")
	dir := t.TempDir()

	if err := run(t, dir, url, "login", "ANA@example.com", "--password", "secret123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	p := readProfile(t, dir)
	if p.Token == "" || p.Email != "ana@example.com" || p.API != url {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if err := run(t, dir, url, "create", "Groceries"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	listID := readProfile(t, dir).CurrentList
	if listID == "" {
		t.Fatal("created list was not selected")
	}

	if err := run(t, dir, url, "add", "Milk", "-q", "2", "-u", "L", "-c", "Laticinios"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	stored, _ := authority.ListByID(listID)
	if len(stored.Items) != 1 || stored.Items[0].Category != "laticinios" || stored.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", stored.Items)
	}

	if err := run(t, dir, url, "toggle", stored.Items[0].ID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if err := run(t, dir, url, "clear"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	stored, _ = authority.ListByID(listID)
	if len(stored.Items) != 0 {
		t.Errorf("items left after clear: %+v", stored.Items)
	}

	if err := run(t, dir, url, "lists"); err != nil {
		t.Errorf("lists failed: %v", err)
	}
	if err := run(t, dir, url, "show"); err != nil {
		t.Errorf("show failed: %v", err)
	}
}

func TestValidationAndCategoryErrors(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	authority.SeedUser("ana@example.com", "secret123", "Ana")
	dir := t.TempDir()
	run(t, dir, url, "login", "ana@example.com", "--password", "secret123")
	run(t, dir, url, "create", "Groceries")

	err := run(t, dir, url, "add", "Milk", "-c", "toys")
	if err == nil || !strings.Contains(err.Error(), "unknown category") {
		t.Errorf("add with bad category: %v", err)
	}
	requests := authority.Requests()
	if err := run(t, dir, url, "join", "ABC"); err == nil {
		t.Error("join accepted a short code")
	}
	if authority.Requests() != requests {
		t.Error("invalid code reached the authority")
	}
}

func TestWrongPasswordKeepsProfile(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	authority.SeedUser("ana@example.com", "secret123", "Ana")
	dir := t.TempDir()
	run(t, dir, url, "login", "ana@example.com", "--password", "secret123")
	token := readProfile(t, dir).Token

	if err := run(t, dir, url, "login", "ana@example.com", "--password", "nope"); err == nil {
		t.Fatal("login with wrong password succeeded")
	}
	if readProfile(t, dir).Token != token {
		t.Error("failed login dropped the stored credential")
	}
}

func TestExpiredCredentialIsForgotten(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	authority.SeedUser("ana@example.com", "secret123", "Ana")
	dir := t.TempDir()
	run(t, dir, url, "login", "ana@example.com", "--password", "secret123")

	authority.RevokeTokens()
	if err := run(t, dir, url, "lists"); err == nil {
		t.Fatal("lists succeeded with a revoked token")
	}
	if p := readProfile(t, dir); p.Token != "" || p.Email != "" {
		t.Errorf("credential kept after 401: %+v", p)
	}
	if err := run(t, dir, url, "lists"); err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Errorf("expected not-logged-in error, got %v", err)
	}
}

func TestShareCommands(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	authority.SeedUser("owner@example.com", "secret123", "Owner")
	guest, _ := authority.SeedUser("guest@example.com", "secret123", "Guest")
	ownerDir, guestDir := t.TempDir(), t.TempDir()

	run(t, ownerDir, url, "login", "owner@example.com", "--password", "secret123")
	run(t, guestDir, url, "login", "guest@example.com", "--password", "secret123")
	run(t, ownerDir, url, "create", "Groceries")
	listID := readProfile(t, ownerDir).CurrentList

	if err := run(t, ownerDir, url, "share-code"); err != nil {
		t.Fatalf("share-code failed: %v", err)
	}
	stored, _ := authority.ListByID(listID)
	if err := run(t, guestDir, url, "join", strings.ToLower(stored.ShareCode)); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if readProfile(t, guestDir).CurrentList != listID {
		t.Error("joined list not selected")
	}

	if err := run(t, ownerDir, url, "unshare", guest.ID); err != nil {
		t.Fatalf("unshare failed: %v", err)
	}
	if err := run(t, guestDir, url, "show"); err == nil {
		t.Error("guest still reads the list after unshare")
	}

	if err := run(t, ownerDir, url, "invite", "guest@example.com", "--can-edit"); err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	if err := run(t, guestDir, url, "add", "Bread", "-l", listID); err != nil {
		t.Errorf("editor could not add: %v", err)
	}
}

func TestLogout(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	authority.SeedUser("ana@example.com", "secret123", "Ana")
	dir := t.TempDir()
	run(t, dir, url, "login", "ana@example.com", "--password", "secret123")

	if err := run(t, dir, url, "logout"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if p := readProfile(t, dir); p.Token != "" {
		t.Errorf("token kept after logout")
	}
	if _, err := os.Stat(filepath.Join(dir, "profile.yaml")); err != nil {
		t.Errorf("profile file missing: %v", err)
	}
}
