// Package remotetest provides an in-memory list authority speaking the same
// REST contract as the real backend, for tests of the client side.
package remotetest

import (
	"context"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"listsync/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type (
	user struct {
		account core.Account
		hash    []byte
	}

	failure struct {
		status  int
		message string
	}

	contextKey string
)

const accountKey = contextKey("account")

// Authority is a fake backend. The zero value is not usable; call New.
type Authority struct {
	mu            sync.Mutex
	users         map[string]*user
	tokens        map[string]string
	lists         map[string]*core.List
	order         []string
	codes         map[string]string
	failures      []failure
	registrations int
	requests      int
}

// New creates an empty authority.
func New() *Authority {
	return &Authority{
		users:  make(map[string]*user),
		tokens: make(map[string]string),
		lists:  make(map[string]*core.List),
		codes:  make(map[string]string),
	}
}

// NewServer starts an authority behind an httptest server that is closed
// when the test ends. The returned URL is the API root.
func NewServer(t testing.TB) (*Authority, string) {
	t.Helper()
	a := New()
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return a, srv.URL + "/api"
}

// Handler returns the authority's router, mounted under /api.
func (a *Authority) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(a.injectFailures)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)
		r.Post("/auth/register", a.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(a.requireToken)
			r.Get("/auth/me", a.handleMe)
			r.Get("/lists", a.handleLists)
			r.Post("/lists", a.handleCreateList)
			r.Post("/lists/join", a.handleJoin)
			r.Route("/lists/{id}", func(r chi.Router) {
				r.Get("/", a.handleGetList)
				r.Patch("/", a.handleUpdateList)
				r.Delete("/", a.handleDeleteList)
				r.Post("/share-code", a.handleShareCode)
				r.Post("/share", a.handleShare)
				r.Delete("/share/{userId}", a.handleRemoveShare)
				r.Get("/items", a.handleItems)
				r.Post("/items", a.handleCreateItem)
				r.Delete("/items", a.handleClearCompleted)
				r.Patch("/items/{itemId}", a.handleUpdateItem)
				r.Patch("/items/{itemId}/toggle", a.handleToggleItem)
				r.Delete("/items/{itemId}", a.handleDeleteItem)
			})
		})
	})
	return r
}

// FailNext makes the next request fail with the given status and message,
// whatever its route.
func (a *Authority) FailNext(status int, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, failure{status: status, message: message})
}

// RevokeTokens invalidates every issued credential.
func (a *Authority) RevokeTokens() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens = make(map[string]string)
}

// Registrations returns how many accounts were created through
// POST /auth/register.
func (a *Authority) Registrations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registrations
}

// Requests returns how many requests reached the authority.
func (a *Authority) Requests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

// SeedUser creates an account directly and returns it with a credential.
func (a *Authority) SeedUser(email, password, name string) (core.Account, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := a.createUser(email, password, name)
	return u.account, a.issueToken(u.account.ID)
}

// ListByID returns a copy of the stored list.
func (a *Authority) ListByID(id string) (core.List, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.lists[id]
	if !ok {
		return core.List{}, false
	}
	return l.Clone(), true
}

// MutateList changes a stored list behind the clients' back, as another
// collaborator would.
func (a *Authority) MutateList(id string, fn func(*core.List)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if l, ok := a.lists[id]; ok {
		fn(l)
		l.UpdatedAt = time.Now().UTC()
	}
}

func (a *Authority) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests++
		var f *failure
		if len(a.failures) > 0 {
			f = &a.failures[0]
			a.failures = a.failures[1:]
		}
		a.mu.Unlock()

		if f != nil {
			writeError(w, r, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authority) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		a.mu.Lock()
		accountID, known := a.tokens[token]
		a.mu.Unlock()
		if !ok || !known {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), accountKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authority) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[core.NormalizeEmail(in.Email)]
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(in.Password)) != nil {
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	render.JSON(w, r, core.AuthResult{User: u.account, AccessToken: a.issueToken(u.account.ID)})
}

func (a *Authority) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}
	if in.Email == "" || len(in.Password) < 6 {
		writeError(w, r, http.StatusBadRequest, []string{"email must be an email", "password must be longer than or equal to 6 characters"}...)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.users[core.NormalizeEmail(in.Email)]; exists {
		writeError(w, r, http.StatusConflict, "Email already registered")
		return
	}
	u := a.createUser(in.Email, in.Password, in.Name)
	a.registrations++
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, core.AuthResult{User: u.account, AccessToken: a.issueToken(u.account.ID)})
}

func (a *Authority) handleMe(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := a.userByID(currentAccount(r))
	if u == nil {
		writeError(w, r, http.StatusNotFound, "User not found")
		return
	}
	render.JSON(w, r, u.account)
}

func (a *Authority) handleLists(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	me := currentAccount(r)
	out := []core.List{}
	for _, id := range a.order {
		if l, ok := a.lists[id]; ok && canRead(l, me) {
			out = append(out, l.Clone())
		}
	}
	render.JSON(w, r, out)
}

func (a *Authority) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := render.DecodeJSON(r.Body, &in); err != nil || strings.TrimSpace(in.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name should not be empty")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	owner := a.userByID(currentAccount(r))
	now := time.Now().UTC()
	l := &core.List{
		ID:          ulid.Make().String(),
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     owner.account.ID,
		Owner:       summary(owner.account),
		Items:       []core.Item{},
		SharedWith:  []core.Collaborator{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	a.lists[l.ID] = l
	a.order = append(a.order, l.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, l.Clone())
}

func (a *Authority) handleGetList(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.readable(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, l.Clone())
}

func (a *Authority) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	var patch core.ListPatch
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name should not be empty")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.editable(w, r)
	if !ok {
		return
	}
	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	l.UpdatedAt = time.Now().UTC()
	render.JSON(w, r, l.Clone())
}

func (a *Authority) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.owned(w, r)
	if !ok {
		return
	}
	delete(a.lists, l.ID)
	if l.ShareCode != "" {
		delete(a.codes, l.ShareCode)
	}
	render.JSON(w, r, map[string]string{"message": "List deleted"})
}

func (a *Authority) handleShareCode(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.owned(w, r)
	if !ok {
		return
	}
	if l.ShareCode != "" {
		delete(a.codes, l.ShareCode)
	}
	l.ShareCode = a.newCode()
	a.codes[l.ShareCode] = l.ID
	render.JSON(w, r, map[string]string{"shareCode": l.ShareCode})
}

func (a *Authority) handleJoin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	listID, ok := a.codes[in.Code]
	l, exists := a.lists[listID]
	if !ok || !exists {
		writeError(w, r, http.StatusNotFound, "Invalid share code")
		return
	}
	me := a.userByID(currentAccount(r))
	if canRead(l, me.account.ID) {
		writeError(w, r, http.StatusBadRequest, "You already have access to this list")
		return
	}
	l.SharedWith = append(l.SharedWith, core.Collaborator{
		AccountID: me.account.ID,
		Email:     me.account.Email,
		Name:      me.account.Name,
		CanEdit:   true,
	})
	l.UpdatedAt = time.Now().UTC()
	render.JSON(w, r, l.Clone())
}

func (a *Authority) handleShare(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email   string `json:"email"`
		CanEdit bool   `json:"canEdit"`
	}
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.owned(w, r)
	if !ok {
		return
	}
	u, known := a.users[core.NormalizeEmail(in.Email)]
	if !known {
		writeError(w, r, http.StatusNotFound, "User not found")
		return
	}
	if canRead(l, u.account.ID) {
		writeError(w, r, http.StatusBadRequest, "User already has access to this list")
		return
	}
	l.SharedWith = append(l.SharedWith, core.Collaborator{
		AccountID: u.account.ID,
		Email:     u.account.Email,
		Name:      u.account.Name,
		CanEdit:   in.CanEdit,
	})
	l.UpdatedAt = time.Now().UTC()
	render.JSON(w, r, l.Clone())
}

func (a *Authority) handleRemoveShare(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.readable(w, r)
	if !ok {
		return
	}
	target := chi.URLParam(r, "userId")
	if l.OwnerID != currentAccount(r) && target != currentAccount(r) {
		writeError(w, r, http.StatusForbidden, "Only the owner can remove collaborators")
		return
	}
	kept := l.SharedWith[:0]
	removed := false
	for _, c := range l.SharedWith {
		if c.AccountID == target {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		writeError(w, r, http.StatusNotFound, "Collaborator not found")
		return
	}
	l.SharedWith = kept
	render.JSON(w, r, map[string]string{"message": "Access removed"})
}

func (a *Authority) handleItems(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.readable(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, l.Clone().Items)
}

func (a *Authority) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in core.ItemInput
	if err := render.DecodeJSON(r.Body, &in); err != nil || strings.TrimSpace(in.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name should not be empty")
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Unit == "" {
		in.Unit = "un"
	}
	if in.Category == "" {
		in.Category = core.CategoryOther
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.editable(w, r)
	if !ok {
		return
	}
	adder := summary(a.userByID(currentAccount(r)).account)
	item := core.Item{
		ID:        ulid.Make().String(),
		Name:      in.Name,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		Category:  in.Category,
		Completed: in.Completed,
		CreatedAt: time.Now().UTC(),
		AddedBy:   &adder,
	}
	l.Items = append(l.Items, item)
	l.UpdatedAt = item.CreatedAt
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item.Clone())
}

func (a *Authority) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch core.ItemPatch
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	item, ok := a.item(w, r)
	if !ok {
		return
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		item.Unit = *patch.Unit
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Completed != nil {
		item.Completed = *patch.Completed
	}
	render.JSON(w, r, item.Clone())
}

func (a *Authority) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	item, ok := a.item(w, r)
	if !ok {
		return
	}
	item.Completed = !item.Completed
	render.JSON(w, r, item.Clone())
}

func (a *Authority) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.editable(w, r)
	if !ok {
		return
	}
	i := l.ItemIndex(chi.URLParam(r, "itemId"))
	if i < 0 {
		writeError(w, r, http.StatusNotFound, "Item not found")
		return
	}
	l.Items = append(l.Items[:i], l.Items[i+1:]...)
	render.JSON(w, r, map[string]string{"message": "Item deleted"})
}

func (a *Authority) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.editable(w, r)
	if !ok {
		return
	}
	kept := l.Items[:0]
	for _, item := range l.Items {
		if !item.Completed {
			kept = append(kept, item)
		}
	}
	l.Items = kept
	render.JSON(w, r, map[string]string{"message": "Completed items removed"})
}

// readable, editable and owned look up the {id} list and write the error
// response themselves when the caller may not proceed. Callers hold a.mu.
func (a *Authority) readable(w http.ResponseWriter, r *http.Request) (*core.List, bool) {
	l, ok := a.lists[chi.URLParam(r, "id")]
	if !ok || !canRead(l, currentAccount(r)) {
		writeError(w, r, http.StatusNotFound, "List not found")
		return nil, false
	}
	return l, true
}

func (a *Authority) editable(w http.ResponseWriter, r *http.Request) (*core.List, bool) {
	l, ok := a.readable(w, r)
	if !ok {
		return nil, false
	}
	if !canEdit(l, currentAccount(r)) {
		writeError(w, r, http.StatusForbidden, "You cannot edit this list")
		return nil, false
	}
	return l, true
}

func (a *Authority) owned(w http.ResponseWriter, r *http.Request) (*core.List, bool) {
	l, ok := a.readable(w, r)
	if !ok {
		return nil, false
	}
	if l.OwnerID != currentAccount(r) {
		writeError(w, r, http.StatusForbidden, "Only the owner can do this")
		return nil, false
	}
	return l, true
}

func (a *Authority) item(w http.ResponseWriter, r *http.Request) (*core.Item, bool) {
	l, ok := a.editable(w, r)
	if !ok {
		return nil, false
	}
	i := l.ItemIndex(chi.URLParam(r, "itemId"))
	if i < 0 {
		writeError(w, r, http.StatusNotFound, "Item not found")
		return nil, false
	}
	return &l.Items[i], true
}

func (a *Authority) createUser(email, password, name string) *user {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u := &user{
		account: core.Account{
			ID:    ulid.Make().String(),
			Email: core.NormalizeEmail(email),
			Name:  name,
		},
		hash: hash,
	}
	a.users[u.account.Email] = u
	return u
}

func (a *Authority) userByID(id string) *user {
	for _, u := range a.users {
		if u.account.ID == id {
			return u
		}
	}
	return nil
}

func (a *Authority) issueToken(accountID string) string {
	token := ulid.Make().String()
	a.tokens[token] = accountID
	return token
}

func (a *Authority) newCode() string {
	for {
		b := make([]byte, 6)
		if _, err := rand.Read(b); err != nil {
			panic(err)
		}
		for i := range b {
			b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
		}
		if _, taken := a.codes[string(b)]; !taken {
			return string(b)
		}
	}
}

func currentAccount(r *http.Request) string {
	id, _ := r.Context().Value(accountKey).(string)
	return id
}

func canRead(l *core.List, accountID string) bool {
	if l.OwnerID == accountID {
		return true
	}
	for _, c := range l.SharedWith {
		if c.AccountID == accountID {
			return true
		}
	}
	return false
}

func canEdit(l *core.List, accountID string) bool {
	if l.OwnerID == accountID {
		return true
	}
	for _, c := range l.SharedWith {
		if c.AccountID == accountID {
			return c.CanEdit
		}
	}
	return false
}

func summary(a core.Account) core.UserSummary {
	return core.UserSummary{ID: a.ID, Name: a.Name, Email: a.Email}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, messages ...string) {
	payload := map[string]any{"statusCode": status}
	if len(messages) == 1 {
		payload["message"] = messages[0]
	} else {
		payload["message"] = messages
	}
	render.Status(r, status)
	render.JSON(w, r, payload)
}
