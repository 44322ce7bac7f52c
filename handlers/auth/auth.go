package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"listsync/config"
	"listsync/core"
	"listsync/handlers/respond"
	"listsync/identity"
	"listsync/session"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	stateCookie         = "oauthstate"
	providerGitHub      = "github"
	providerCredentials = "credentials"
)

// OIDCClaims represents the claims from OIDC token
type OIDCClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Sub     string `json:"sub"`
}

// Handler serves the sign-in routes of the gateway.
type Handler struct {
	manager     *session.Manager
	bridge      *identity.Bridge
	accounts    identity.Authenticator
	signer      *Signer
	frontendURL string

	// provider is the external provider name used for linking; empty when
	// no OAuth provider is configured.
	provider    string
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	githubAPI   string
}

// NewHandler configures the OAuth provider from cfg: OIDC when an issuer is
// set, GitHub otherwise. accounts is used for credential sign-in and must
// not be wired to session invalidation.
func NewHandler(ctx context.Context, cfg config.Config, manager *session.Manager, bridge *identity.Bridge, accounts identity.Authenticator, signer *Signer) *Handler {
	h := &Handler{
		manager:     manager,
		bridge:      bridge,
		accounts:    accounts,
		signer:      signer,
		frontendURL: cfg.FrontendURL,
		githubAPI:   "https://api.github.com",
	}

	switch {
	case cfg.OIDCConfigured():
		logrus.Info("Initializing OIDC authentication provider.")
		h.initOIDC(ctx, cfg)
	case cfg.GitHubConfigured():
		logrus.Info("Initializing GitHub authentication provider.")
		h.initGitHub(cfg)
	default:
		logrus.Warn("No OAuth provider configured, only credential sign-in is available.")
	}

	if cfg.JWTSecret == "" {
		logrus.Warn("JWT_SECRET is not set. Authentication will not work.")
	}
	return h
}

func (h *Handler) initGitHub(cfg config.Config) {
	h.provider = providerGitHub
	h.oauthConfig = &oauth2.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.GitHubRedirectURL,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}
}

func (h *Handler) initOIDC(ctx context.Context, cfg config.Config) {
	if cfg.OIDCClientSecret == "" {
		logrus.Warn("OIDC credentials are not set. OIDC authentication routes will not work.")
		return
	}

	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuerURL)
	if err != nil {
		logrus.Errorf("Failed to create OIDC provider: %s", err.Error())
		return
	}

	h.provider = "oidc"
	if strings.Contains(cfg.OIDCIssuerURL, "accounts.google.com") {
		h.provider = "google"
	}
	h.oauthConfig = &oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		Endpoint:     provider.Endpoint(),
	}
	h.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})
	logrus.WithField("provider", h.provider).Info("OIDC provider initialized")
}

// HandleLogin redirects to the configured OAuth provider.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.oauthConfig == nil {
		http.Error(w, "Authentication not configured", http.StatusInternalServerError)
		return
	}
	state, err := generateStateOauthCookie(w, r)
	if err != nil {
		http.Error(w, "Failed to generate state for login", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback finishes the OAuth flow, links the identity and redirects
// to the frontend with a session token.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauthConfig == nil {
		http.Error(w, "Authentication not configured", http.StatusInternalServerError)
		return
	}
	if !validState(r) {
		logrus.Warn("OAuth callback with invalid state")
		h.redirectError(w, r, "invalid_state")
		return
	}
	code := r.FormValue("code")
	if code == "" {
		logrus.Error("no code in callback")
		h.redirectError(w, r, "missing_code")
		return
	}

	ctx := r.Context()
	token, err := h.oauthConfig.Exchange(ctx, code)
	if err != nil {
		logrus.Errorf("failed to exchange token: %s", err.Error())
		h.redirectError(w, r, "exchange_failed")
		return
	}

	var ext identity.External
	if h.verifier != nil {
		ext, err = h.oidcIdentity(ctx, token)
	} else {
		ext, err = h.githubIdentity(ctx, token)
	}
	if err != nil {
		logrus.WithError(err).WithField("provider", h.provider).Error("Failed to read external identity")
		h.redirectError(w, r, "profile_failed")
		return
	}

	s, err := h.link(ctx, ext)
	if err != nil {
		logrus.WithError(err).Error("Failed to create session")
		h.redirectError(w, r, "session_failed")
		return
	}
	jwtToken, err := h.signer.Sign(s)
	if err != nil {
		logrus.Errorf("failed to create JWT: %s", err.Error())
		h.redirectError(w, r, "session_failed")
		return
	}

	params := url.Values{"token": {jwtToken}}
	if !s.Linked {
		params.Set("error", "account_not_linked")
	}
	http.Redirect(w, r, h.frontend(params), http.StatusTemporaryRedirect)
}

func (h *Handler) oidcIdentity(ctx context.Context, token *oauth2.Token) (identity.External, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return identity.External{}, errors.New("no id_token in token response")
	}
	idToken, err := h.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return identity.External{}, fmt.Errorf("verify ID token: %w", err)
	}
	var claims OIDCClaims
	if err := idToken.Claims(&claims); err != nil {
		return identity.External{}, fmt.Errorf("extract claims from ID token: %w", err)
	}
	return identity.External{
		Provider: h.provider,
		Subject:  claims.Sub,
		Email:    claims.Email,
		Name:     claims.Name,
		Image:    claims.Picture,
	}, nil
}

func (h *Handler) githubIdentity(ctx context.Context, token *oauth2.Token) (identity.External, error) {
	client := h.oauthConfig.Client(ctx, token)

	var githubUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
		Name      string `json:"name"`
		Email     string `json:"email"`
	}
	if err := getJSON(client, h.githubAPI+"/user", &githubUser); err != nil {
		return identity.External{}, err
	}

	// The profile email is empty when the user keeps it private.
	email := githubUser.Email
	if email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(client, h.githubAPI+"/user/emails", &emails); err != nil {
			return identity.External{}, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}

	name := githubUser.Name
	if name == "" {
		name = githubUser.Login
	}
	return identity.External{
		Provider: providerGitHub,
		Subject:  strconv.FormatInt(githubUser.ID, 10),
		Email:    email,
		Name:     name,
		Image:    githubUser.AvatarURL,
	}, nil
}

// link runs the identity bridge and persists the resulting session. A
// failed linkage still yields a session, without credential.
func (h *Handler) link(ctx context.Context, ext identity.External) (*core.Session, error) {
	res := h.bridge.Link(ctx, ext)

	s := core.Session{
		AccountID: ext.Provider + ":" + ext.Subject,
		Email:     core.NormalizeEmail(ext.Email),
		Name:      ext.Name,
		Image:     ext.Image,
		Provider:  ext.Provider,
		Subject:   ext.Subject,
	}
	if res.Linked() {
		s.AccountID = res.Account.ID
		s.Email = res.Account.Email
		if res.Account.Name != "" {
			s.Name = res.Account.Name
		}
		s.Credential = res.Credential
		s.Linked = true
	} else {
		logrus.WithFields(logrus.Fields{
			"provider": ext.Provider,
			"subject":  ext.Subject,
		}).WithError(res.Err).Warn("Signed in without a linked account")
	}
	return h.manager.Create(ctx, s)
}

type credentialsRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name,omitempty"`
	IsRegister bool   `json:"isRegister"`
}

type signInResponse struct {
	Token string       `json:"token"`
	User  core.Account `json:"user"`
}

// HandleCredentials signs in (or registers) with email and password
// against the authority.
func (h *Handler) HandleCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = core.NormalizeEmail(req.Email)
	if req.Email == "" {
		respond.Error(w, r, core.Invalid("email", "is required"))
		return
	}
	if req.Password == "" {
		respond.Error(w, r, core.Invalid("password", "is required"))
		return
	}

	ctx := r.Context()
	var (
		res *core.AuthResult
		err error
	)
	if req.IsRegister {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = req.Email
		}
		res, err = h.accounts.Register(ctx, req.Email, req.Password, name)
	} else {
		res, err = h.accounts.Login(ctx, req.Email, req.Password)
	}
	log := logrus.WithFields(logrus.Fields{"email": req.Email, "register": req.IsRegister})
	if errors.Is(err, core.ErrUnauthorized) {
		log.Info("Credential sign-in refused")
		respond.Message(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		log.WithError(err).Warn("Credential sign-in failed")
		respond.Error(w, r, err)
		return
	}

	s, err := h.manager.Create(ctx, core.Session{
		AccountID:  res.User.ID,
		Email:      res.User.Email,
		Name:       res.User.Name,
		Image:      res.User.Image,
		Provider:   providerCredentials,
		Credential: res.AccessToken,
		Linked:     true,
	})
	if err != nil {
		log.WithError(err).Error("Failed to create session")
		respond.Error(w, r, err)
		return
	}
	token, err := h.signer.Sign(s)
	if err != nil {
		log.WithError(err).Error("Failed to create JWT")
		respond.Error(w, r, err)
		return
	}
	render.JSON(w, r, signInResponse{Token: token, User: res.User})
}

// HandleLogout ends the caller's session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respond.Message(w, r, http.StatusUnauthorized, "User claims not found")
		return
	}
	if err := h.manager.SignOut(r.Context(), claims.ID); err != nil {
		logrus.WithError(err).WithField("session_id", claims.ID).Error("Failed to sign out")
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Provider  string    `json:"provider"`
	Linked    bool      `json:"linked"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleSession describes the caller's session.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respond.Message(w, r, http.StatusUnauthorized, "User claims not found")
		return
	}
	s, err := h.manager.Get(r.Context(), claims.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	render.JSON(w, r, sessionResponse{
		ID:        s.ID,
		AccountID: s.AccountID,
		Email:     s.Email,
		Name:      s.Name,
		Image:     s.Image,
		Provider:  s.Provider,
		Linked:    s.Linked,
		ExpiresAt: s.ExpiresAt,
	})
}

func (h *Handler) frontend(params url.Values) string {
	target := h.frontendURL
	if target == "" {
		target = "/"
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + params.Encode()
}

func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.frontend(url.Values{"error": {reason}}), http.StatusTemporaryRedirect)
}

func generateStateOauthCookie(w http.ResponseWriter, r *http.Request) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := hex.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

func validState(r *http.Request) bool {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	return r.FormValue("state") == cookie.Value
}

func getJSON(client *http.Client, endpoint string, out any) error {
	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
