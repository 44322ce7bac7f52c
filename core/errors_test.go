package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Invalid("name", "is required"), "name is required"},
		{fmt.Errorf("add item: %w", &ServerRejectedError{StatusCode: 403, Message: "Forbidden"}), "Forbidden"},
		{ErrUnauthorized, "session expired, please sign in again"},
		{fmt.Errorf("%w: dial tcp", ErrConnectionFailed), "could not reach the server"},
		{errors.New("other"), "other"},
	}
	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" Frutas "); !ok || c != CategoryFruits {
		t.Errorf("ParseCategory() = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("toys"); ok {
		t.Error("unknown category accepted")
	}
}

func TestListCloneIsDeep(t *testing.T) {
	l := List{
		Items:      []Item{{ID: "i1", AddedBy: &UserSummary{Name: "Ana"}}},
		SharedWith: []Collaborator{{AccountID: "a"}},
	}
	c := l.Clone()
	c.Items[0].AddedBy.Name = "Bob"
	c.SharedWith[0].AccountID = "b"

	if l.Items[0].AddedBy.Name != "Ana" || l.SharedWith[0].AccountID != "a" {
		t.Error("Clone() shares memory with the original")
	}
	if l.ItemIndex("i1") != 0 || l.ItemIndex("nope") != -1 {
		t.Error("ItemIndex() mismatch")
	}
}
