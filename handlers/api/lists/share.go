package lists

import (
	"net/http"

	"listsync/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type (
	joinRequest struct {
		Code string `json:"code"`
	}

	inviteRequest struct {
		Email   string `json:"email"`
		CanEdit bool   `json:"canEdit"`
	}
)

func HandleGenerateCode(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		code, err := ws.Share.GenerateCode(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, r, ws, "generate_code", err)
			return
		}
		render.JSON(w, r, map[string]string{"shareCode": code})
	}
}

func HandleJoin(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		var req joinRequest
		if !decode(w, r, &req) {
			return
		}
		list, err := ws.Share.JoinByCode(r.Context(), req.Code)
		if err != nil {
			fail(w, r, ws, "join", err)
			return
		}
		render.JSON(w, r, list)
	}
}

func HandleInvite(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		var req inviteRequest
		if !decode(w, r, &req) {
			return
		}
		list, err := ws.Share.InviteByEmail(r.Context(), chi.URLParam(r, "id"), req.Email, req.CanEdit)
		if err != nil {
			fail(w, r, ws, "invite", err)
			return
		}
		render.JSON(w, r, list)
	}
}

func HandleRemoveCollaborator(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		if err := ws.Share.RemoveCollaborator(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId")); err != nil {
			fail(w, r, ws, "remove_collaborator", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
