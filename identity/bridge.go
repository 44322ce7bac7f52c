// Package identity reconciles external OAuth identities with backend
// accounts. A Bridge runs once per sign-in and yields at most one backend
// account and credential for the identity.
package identity

import (
	"context"
	"errors"
	"fmt"

	"listsync/core"

	"github.com/sirupsen/logrus"
)

// State is a step of the linking state machine.
type State string

const (
	StateStart       State = "start"
	StateTryLogin    State = "try_login"
	StateLoggedIn    State = "logged_in"
	StateTryRegister State = "try_register"
	StateRegistered  State = "registered"
	StateLinkFailed  State = "link_failed"
)

type (
	// External is an identity verified by an OAuth or OIDC provider.
	External struct {
		Provider string
		Subject  string
		Email    string
		Name     string
		Image    string
	}

	// Authenticator is the part of the authority the bridge needs.
	Authenticator interface {
		Login(ctx context.Context, email, password string) (*core.AuthResult, error)
		Register(ctx context.Context, email, password, name string) (*core.AuthResult, error)
	}

	// Result is the outcome of one Link call. Account and Credential are
	// only set when Linked reports true; Err carries the cause of a
	// LinkFailed outcome.
	Result struct {
		State      State
		Account    core.Account
		Credential string
		Err        error
	}

	// Bridge links external identities to backend accounts.
	Bridge struct {
		auth    Authenticator
		deriver Deriver
	}
)

// NewBridge creates a Bridge. auth must not notify anybody on a 401: a
// failed login attempt is an expected step of the state machine.
func NewBridge(auth Authenticator, deriver Deriver) *Bridge {
	return &Bridge{auth: auth, deriver: deriver}
}

// Linked reports whether the result carries a usable credential.
func (r Result) Linked() bool {
	return r.State == StateLoggedIn || r.State == StateRegistered
}

// Link resolves ext to a backend account: it logs in with the derived
// secret and registers on login failure. It never returns an error; a
// failed linkage is reported as StateLinkFailed.
func (b *Bridge) Link(ctx context.Context, ext External) Result {
	log := logrus.WithFields(logrus.Fields{
		"provider": ext.Provider,
		"subject":  ext.Subject,
	})

	if ext.Subject == "" || ext.Email == "" {
		err := errors.New("external identity has no subject or email")
		log.WithError(err).Error("Cannot link external identity")
		return Result{State: StateLinkFailed, Err: err}
	}

	email := core.NormalizeEmail(ext.Email)
	secret := b.deriver.Secret(ext.Provider, ext.Subject)
	log = log.WithField("email", email)

	auth, loginErr := b.auth.Login(ctx, email, secret)
	if loginErr == nil {
		log.WithField("account_id", auth.User.ID).Info("Linked external identity by login")
		return linked(StateLoggedIn, auth)
	}
	log.WithError(loginErr).Debug("Login with derived secret failed, trying registration")

	name := ext.Name
	if name == "" {
		name = email
	}
	auth, registerErr := b.auth.Register(ctx, email, secret, name)
	if registerErr == nil {
		log.WithField("account_id", auth.User.ID).Info("Registered account for external identity")
		return linked(StateRegistered, auth)
	}

	err := fmt.Errorf("%s: %w", StateTryRegister, registerErr)
	log.WithFields(logrus.Fields{
		"login_error":    loginErr,
		"register_error": registerErr,
	}).Error("Failed to link external identity with a backend account")
	return Result{State: StateLinkFailed, Err: err}
}

func linked(state State, auth *core.AuthResult) Result {
	return Result{
		State:      state,
		Account:    auth.User,
		Credential: auth.AccessToken,
	}
}
