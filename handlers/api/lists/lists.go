// Package lists exposes a session's collection cache and share protocol as
// JSON. Every mutation goes to the authority first; responses carry the
// server's values, never a local guess.
package lists

import (
	"encoding/json"
	"net/http"

	"listsync/core"
	"listsync/handlers/auth"
	"listsync/handlers/respond"
	"listsync/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// Routes mounts the list API. Requests must carry session claims.
func Routes(manager *session.Manager) func(r chi.Router) {
	return func(r chi.Router) {
		r.Get("/state", HandleState(manager))
		r.Route("/lists", func(r chi.Router) {
			r.Get("/", HandleFetchLists(manager))
			r.Post("/", HandleCreateList(manager))
			r.Post("/join", HandleJoin(manager))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", HandleFetchList(manager))
				r.Patch("/", HandleUpdateList(manager))
				r.Delete("/", HandleDeleteList(manager))
				r.Put("/current", HandleSelectList(manager))
				r.Post("/share-code", HandleGenerateCode(manager))
				r.Post("/share", HandleInvite(manager))
				r.Delete("/share/{userId}", HandleRemoveCollaborator(manager))
				r.Get("/items", HandleFetchItems(manager))
				r.Post("/items", HandleAddItem(manager))
				r.Delete("/items", HandleClearCompleted(manager))
				r.Patch("/items/{itemId}", HandleUpdateItem(manager))
				r.Patch("/items/{itemId}/toggle", HandleToggleItem(manager))
				r.Delete("/items/{itemId}", HandleDeleteItem(manager))
			})
		})
	}
}

// workspace resolves the caller's workspace or writes the error response.
func workspace(manager *session.Manager, w http.ResponseWriter, r *http.Request) (*session.Workspace, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Message(w, r, http.StatusUnauthorized, "User claims not found")
		return nil, false
	}
	ws, err := manager.Workspace(r.Context(), claims.ID)
	if err != nil {
		respond.Error(w, r, err)
		return nil, false
	}
	return ws, true
}

// fail logs err and writes it.
func fail(w http.ResponseWriter, r *http.Request, ws *session.Workspace, op string, err error) {
	logrus.WithFields(logrus.Fields{
		"error":      err,
		"session_id": ws.Session.ID,
		"list_id":    chi.URLParam(r, "id"),
		"op":         op,
	}).Warn("List operation failed")
	respond.Error(w, r, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.Message(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

type stateResponse struct {
	Lists     []core.List `json:"lists"`
	Current   *core.List  `json:"current,omitempty"`
	LastError string      `json:"lastError,omitempty"`
}

// HandleState returns the cached projection without contacting the
// authority.
func HandleState(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		resp := stateResponse{Lists: ws.Lists.Lists(), LastError: ws.Lists.LastError()}
		if current, ok := ws.Lists.Current(); ok {
			resp.Current = &current
		}
		render.JSON(w, r, resp)
	}
}

func HandleFetchLists(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		lists, err := ws.Lists.FetchLists(r.Context())
		if err != nil {
			fail(w, r, ws, "fetch_lists", err)
			return
		}
		if lists == nil {
			lists = []core.List{}
		}
		render.JSON(w, r, lists)
	}
}

type createListRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func HandleCreateList(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		var req createListRequest
		if !decode(w, r, &req) {
			return
		}
		list, err := ws.Lists.CreateList(r.Context(), req.Name, req.Description)
		if err != nil {
			fail(w, r, ws, "create_list", err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, list)
	}
}

func HandleFetchList(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		list, err := ws.Lists.FetchList(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, r, ws, "fetch_list", err)
			return
		}
		render.JSON(w, r, list)
	}
}

func HandleUpdateList(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		var patch core.ListPatch
		if !decode(w, r, &patch) {
			return
		}
		list, err := ws.Lists.UpdateList(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			fail(w, r, ws, "update_list", err)
			return
		}
		render.JSON(w, r, list)
	}
}

func HandleDeleteList(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		if err := ws.Lists.DeleteList(r.Context(), chi.URLParam(r, "id")); err != nil {
			fail(w, r, ws, "delete_list", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSelectList makes a cached list the current one.
func HandleSelectList(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		if _, cached := ws.Lists.Get(id); !cached {
			respond.Message(w, r, http.StatusNotFound, "List not loaded")
			return
		}
		ws.Lists.SetCurrent(id)
		w.WriteHeader(http.StatusNoContent)
	}
}
