package share

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"listsync/cache"
	"listsync/core"
	"listsync/remote"
	"listsync/remote/remotetest"
)

type member struct {
	account core.Account
	lists   *cache.Cache
	share   *Protocol
}

func newMember(t *testing.T, authority *remotetest.Authority, url, email string) member {
	t.Helper()
	account, token := authority.SeedUser(email, "secret123", email)
	client := remote.New(url, nil)
	client.SetCredential(token)
	lists := cache.New(client)
	return member{account: account, lists: lists, share: New(client, lists)}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  ab12cd "); got != "AB12CD" {
		t.Errorf("NormalizeCode() = %q, want AB12CD", got)
	}
}

func TestGenerateAndJoin(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	owner := newMember(t, authority, url, "owner@example.com")
	guest := newMember(t, authority, url, "guest@example.com")
	ctx := context.Background()

	list, err := owner.lists.CreateList(ctx, "Groceries", "")
	if err != nil {
		t.Fatalf("CreateList() failed: %v", err)
	}

	code, err := owner.share.GenerateCode(ctx, list.ID)
	if err != nil {
		t.Fatalf("GenerateCode() failed: %v", err)
	}
	if cached, _ := owner.lists.Get(list.ID); cached.ShareCode != code {
		t.Errorf("cached share code = %q, want %q", cached.ShareCode, code)
	}

	// Codes are typed by humans; lower case must work.
	joined, err := guest.share.JoinByCode(ctx, " "+strings.ToLower(code)+" ")
	if err != nil {
		t.Fatalf("JoinByCode() failed: %v", err)
	}
	if joined.ID != list.ID {
		t.Fatalf("joined list %s, want %s", joined.ID, list.ID)
	}
	cached, ok := guest.lists.Get(list.ID)
	if !ok {
		t.Fatal("joined list not cached")
	}
	if len(cached.SharedWith) != 1 || cached.SharedWith[0].AccountID != guest.account.ID {
		t.Errorf("guest not among collaborators: %+v", cached.SharedWith)
	}
}

func TestGenerateCodeAlwaysAsks(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	owner := newMember(t, authority, url, "owner@example.com")
	ctx := context.Background()
	list, _ := owner.lists.CreateList(ctx, "Groceries", "")

	first, _ := owner.share.GenerateCode(ctx, list.ID)
	requests := authority.Requests()
	second, err := owner.share.GenerateCode(ctx, list.ID)
	if err != nil {
		t.Fatalf("GenerateCode() failed: %v", err)
	}
	if authority.Requests() != requests+1 {
		t.Error("second GenerateCode() did not reach the authority")
	}
	if cached, _ := owner.lists.Get(list.ID); cached.ShareCode != second {
		t.Errorf("cached code %q, want latest %q (first was %q)", cached.ShareCode, second, first)
	}
}

func TestJoinReplacesStaleCopy(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	owner := newMember(t, authority, url, "owner@example.com")
	guest := newMember(t, authority, url, "guest@example.com")
	ctx := context.Background()

	list, _ := owner.lists.CreateList(ctx, "Groceries", "")
	code, _ := owner.share.GenerateCode(ctx, list.ID)

	// The guest holds an outdated copy of the list, e.g. from an earlier
	// fetch before losing access.
	guest.lists.Upsert(core.List{ID: list.ID, Name: "Old name", SharedWith: []core.Collaborator{{AccountID: "someone-else"}}})

	joined, err := guest.share.JoinByCode(ctx, code)
	if err != nil {
		t.Fatalf("JoinByCode() failed: %v", err)
	}

	snapshot := guest.lists.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("projection has %d entries, want 1", len(snapshot))
	}
	if !reflect.DeepEqual(snapshot[list.ID], *joined) {
		t.Errorf("cached list differs from server value:\n got %+v\nwant %+v", snapshot[list.ID], *joined)
	}
}

func TestJoinRejections(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	owner := newMember(t, authority, url, "owner@example.com")
	ctx := context.Background()
	list, _ := owner.lists.CreateList(ctx, "Groceries", "")
	code, _ := owner.share.GenerateCode(ctx, list.ID)
	before := owner.lists.Snapshot()

	t.Run("unknown code", func(t *testing.T) {
		_, err := owner.share.JoinByCode(ctx, "ZZZZZZ")
		var rejected *core.ServerRejectedError
		if !errors.As(err, &rejected) {
			t.Fatalf("expected ServerRejectedError, got %v", err)
		}
		if owner.lists.LastError() != rejected.Message {
			t.Errorf("LastError() = %q, want %q", owner.lists.LastError(), rejected.Message)
		}
	})

	t.Run("already a member", func(t *testing.T) {
		_, err := owner.share.JoinByCode(ctx, code)
		var rejected *core.ServerRejectedError
		if !errors.As(err, &rejected) {
			t.Fatalf("expected ServerRejectedError, got %v", err)
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		requests := authority.Requests()
		_, err := owner.share.JoinByCode(ctx, "ABC")
		var invalid *core.ValidationError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if authority.Requests() != requests {
			t.Error("invalid code reached the authority")
		}
	})

	if !reflect.DeepEqual(before, owner.lists.Snapshot()) {
		t.Error("failed joins changed the projection")
	}
}

func TestInviteAndRemoveCollaborator(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	owner := newMember(t, authority, url, "owner@example.com")
	guest := newMember(t, authority, url, "guest@example.com")
	other := newMember(t, authority, url, "other@example.com")
	ctx := context.Background()

	list, _ := owner.lists.CreateList(ctx, "Groceries", "")
	if _, err := owner.share.InviteByEmail(ctx, list.ID, "GUEST@example.com", false); err != nil {
		t.Fatalf("InviteByEmail() failed: %v", err)
	}
	if _, err := owner.share.InviteByEmail(ctx, list.ID, "other@example.com", true); err != nil {
		t.Fatalf("InviteByEmail() failed: %v", err)
	}
	cached, _ := owner.lists.Get(list.ID)
	if len(cached.SharedWith) != 2 || cached.SharedWith[0].CanEdit {
		t.Fatalf("unexpected collaborators: %+v", cached.SharedWith)
	}

	// A read-only collaborator cannot add items.
	guest.lists.FetchList(ctx, list.ID)
	_, err := guest.lists.AddItem(ctx, list.ID, core.ItemInput{Name: "Milk", Quantity: 1})
	var rejected *core.ServerRejectedError
	if !errors.As(err, &rejected) || rejected.StatusCode != http.StatusForbidden {
		t.Errorf("read-only AddItem() = %v, want 403", err)
	}

	if err := owner.share.RemoveCollaborator(ctx, list.ID, guest.account.ID); err != nil {
		t.Fatalf("RemoveCollaborator() failed: %v", err)
	}
	cached, _ = owner.lists.Get(list.ID)
	if len(cached.SharedWith) != 1 || cached.SharedWith[0].AccountID != other.account.ID {
		t.Errorf("collaborators after removal: %+v", cached.SharedWith)
	}

	// The removed party's own lists are untouched.
	own, _ := guest.lists.CreateList(ctx, "Mine", "")
	if _, err := guest.lists.FetchList(ctx, own.ID); err != nil {
		t.Errorf("removed collaborator lost access to own list: %v", err)
	}
}

func TestRemoveCollaboratorFailureKeepsEntry(t *testing.T) {
	authority, url := remotetest.NewServer(t)
	owner := newMember(t, authority, url, "owner@example.com")
	guest := newMember(t, authority, url, "guest@example.com")
	ctx := context.Background()

	list, _ := owner.lists.CreateList(ctx, "Groceries", "")
	owner.share.InviteByEmail(ctx, list.ID, guest.account.Email, true)
	before := owner.lists.Snapshot()

	authority.FailNext(http.StatusBadGateway, "try again later")
	if err := owner.share.RemoveCollaborator(ctx, list.ID, guest.account.ID); err == nil {
		t.Fatal("expected an error")
	}
	if !reflect.DeepEqual(before, owner.lists.Snapshot()) {
		t.Error("failed removal changed the projection")
	}
	if owner.lists.LastError() != "try again later" {
		t.Errorf("LastError() = %q", owner.lists.LastError())
	}
}

// stubRemote answers share calls with fixed values.
type stubRemote struct {
	code   string
	err    error
	during func()
}

func (s *stubRemote) GenerateShareCode(ctx context.Context, listID string) (string, error) {
	if s.during != nil {
		s.during()
	}
	return s.code, s.err
}

func (s *stubRemote) JoinList(ctx context.Context, code string) (*core.List, error) {
	return nil, s.err
}

func (s *stubRemote) ShareWithUser(ctx context.Context, listID, email string, canEdit bool) (*core.List, error) {
	return nil, s.err
}

func (s *stubRemote) RemoveShare(ctx context.Context, listID, userID string) error {
	if s.during != nil {
		s.during()
	}
	return s.err
}

func TestGenerateCodeEmptyAnswerKeepsCachedCode(t *testing.T) {
	lists := cache.New(remote.New("http://127.0.0.1:1", nil))
	lists.Upsert(core.List{ID: "L1", Name: "Groceries", ShareCode: "ABC123"})
	p := New(&stubRemote{code: ""}, lists)

	code, err := p.GenerateCode(context.Background(), "L1")
	if !errors.Is(err, core.ErrConnectionFailed) {
		t.Fatalf("GenerateCode() error = %v, want ErrConnectionFailed", err)
	}
	if code != "" {
		t.Errorf("GenerateCode() code = %q", code)
	}
	if cached, _ := lists.Get("L1"); cached.ShareCode != "ABC123" {
		t.Errorf("cached share code = %q, want ABC123", cached.ShareCode)
	}
	if lists.LastError() == "" {
		t.Error("LastError() not recorded")
	}
}

func TestOperationsResetLastError(t *testing.T) {
	lists := cache.New(remote.New("http://127.0.0.1:1", nil))
	lists.Upsert(core.List{ID: "L1"})
	stub := &stubRemote{code: "XYZ789"}
	p := New(stub, lists)
	ctx := context.Background()

	var seen []string
	stub.during = func() { seen = append(seen, lists.LastError()) }

	lists.Fail(&core.ServerRejectedError{StatusCode: 500, Message: "earlier failure"})
	if _, err := p.GenerateCode(ctx, "L1"); err != nil {
		t.Fatalf("GenerateCode() failed: %v", err)
	}
	lists.Fail(&core.ServerRejectedError{StatusCode: 500, Message: "earlier failure"})
	if err := p.RemoveCollaborator(ctx, "L1", "someone"); err != nil {
		t.Fatalf("RemoveCollaborator() failed: %v", err)
	}

	for i, msg := range seen {
		if msg != "" {
			t.Errorf("call %d: LastError() = %q while in flight, want empty", i, msg)
		}
	}
	if len(seen) != 2 {
		t.Errorf("stub called %d times, want 2", len(seen))
	}
}
