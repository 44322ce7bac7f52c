// Package share turns lists into joinable resources through short share
// codes, on top of the list cache.
package share

import (
	"context"
	"fmt"
	"strings"

	"listsync/cache"
	"listsync/core"

	"github.com/sirupsen/logrus"
)

// CodeLength is the length of a share code.
const CodeLength = 6

// Remote is the part of the authority API the protocol needs.
type Remote interface {
	GenerateShareCode(ctx context.Context, listID string) (string, error)
	JoinList(ctx context.Context, code string) (*core.List, error)
	ShareWithUser(ctx context.Context, listID, email string, canEdit bool) (*core.List, error)
	RemoveShare(ctx context.Context, listID, userID string) error
}

// Protocol generates and redeems share codes and manages collaborators.
// Results are reconciled into the cache the protocol was built with.
type Protocol struct {
	remote Remote
	lists  *cache.Cache
}

// New creates a Protocol.
func New(remote Remote, lists *cache.Cache) *Protocol {
	return &Protocol{remote: remote, lists: lists}
}

// NormalizeCode returns the transmitted form of a code typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GenerateCode asks the authority for a share code for a list. It always
// asks, even when the list already has one; whether to regenerate is the
// caller's decision.
func (p *Protocol) GenerateCode(ctx context.Context, listID string) (string, error) {
	p.lists.Begin()
	code, err := p.remote.GenerateShareCode(ctx, listID)
	if err != nil {
		return "", p.lists.Fail(err)
	}
	// A success without a code tells nothing about the list; keep the
	// cached one.
	if code == "" {
		return "", p.lists.Fail(fmt.Errorf("%w: no share code in response", core.ErrConnectionFailed))
	}
	p.lists.ApplyShareCode(listID, code)
	logrus.WithField("list_id", listID).Info("Share code generated")
	return code, nil
}

// JoinByCode redeems a share code. The joined list replaces any cached
// copy with the same id. Unknown codes, invalid codes and codes of lists
// the account already belongs to all come back as one rejection carrying
// the authority's message.
func (p *Protocol) JoinByCode(ctx context.Context, code string) (*core.List, error) {
	p.lists.Begin()
	code = NormalizeCode(code)
	if len(code) != CodeLength {
		return nil, p.lists.Fail(core.Invalid("code", "must have 6 characters"))
	}

	l, err := p.remote.JoinList(ctx, code)
	if err != nil {
		return nil, p.lists.Fail(err)
	}
	p.lists.Upsert(*l)
	logrus.WithField("list_id", l.ID).Info("Joined list by share code")
	return l, nil
}

// InviteByEmail grants an existing account access to a list.
func (p *Protocol) InviteByEmail(ctx context.Context, listID, email string, canEdit bool) (*core.List, error) {
	p.lists.Begin()
	email = core.NormalizeEmail(email)
	if email == "" {
		return nil, p.lists.Fail(core.Invalid("email", "is required"))
	}

	l, err := p.remote.ShareWithUser(ctx, listID, email, canEdit)
	if err != nil {
		return nil, p.lists.Fail(err)
	}
	p.lists.Upsert(*l)
	return l, nil
}

// RemoveCollaborator revokes an account's access to a list.
func (p *Protocol) RemoveCollaborator(ctx context.Context, listID, accountID string) error {
	p.lists.Begin()
	if err := p.remote.RemoveShare(ctx, listID, accountID); err != nil {
		return p.lists.Fail(err)
	}
	p.lists.ApplyCollaboratorRemoved(listID, accountID)
	logrus.WithFields(logrus.Fields{
		"list_id":    listID,
		"account_id": accountID,
	}).Info("Collaborator removed")
	return nil
}
