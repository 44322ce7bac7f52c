package lists

import (
	"net/http"

	"listsync/core"
	"listsync/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func HandleFetchItems(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		items, err := ws.Lists.FetchItems(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, r, ws, "fetch_items", err)
			return
		}
		if items == nil {
			items = []core.Item{}
		}
		render.JSON(w, r, items)
	}
}

// addItemRequest keeps an absent quantity apart from an explicit zero.
type addItemRequest struct {
	Name      string        `json:"name"`
	Quantity  *float64      `json:"quantity"`
	Unit      string        `json:"unit"`
	Category  core.Category `json:"category"`
	Completed bool          `json:"completed"`
}

// input defaults only an absent quantity to one; anything sent is validated
// as is.
func (a addItemRequest) input() core.ItemInput {
	in := core.ItemInput{
		Name:      a.Name,
		Quantity:  1,
		Unit:      a.Unit,
		Category:  a.Category,
		Completed: a.Completed,
	}
	if a.Quantity != nil {
		in.Quantity = *a.Quantity
	}
	return in
}

func HandleAddItem(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		var req addItemRequest
		if !decode(w, r, &req) {
			return
		}
		item, err := ws.Lists.AddItem(r.Context(), chi.URLParam(r, "id"), req.input())
		if err != nil {
			fail(w, r, ws, "add_item", err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, item)
	}
}

func HandleUpdateItem(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		var patch core.ItemPatch
		if !decode(w, r, &patch) {
			return
		}
		item, err := ws.Lists.UpdateItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), patch)
		if err != nil {
			fail(w, r, ws, "update_item", err)
			return
		}
		render.JSON(w, r, item)
	}
}

func HandleToggleItem(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		item, err := ws.Lists.ToggleItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"))
		if err != nil {
			fail(w, r, ws, "toggle_item", err)
			return
		}
		render.JSON(w, r, item)
	}
}

func HandleDeleteItem(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		if err := ws.Lists.DeleteItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId")); err != nil {
			fail(w, r, ws, "delete_item", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleClearCompleted(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspace(manager, w, r)
		if !ok {
			return
		}
		if err := ws.Lists.ClearCompleted(r.Context(), chi.URLParam(r, "id")); err != nil {
			fail(w, r, ws, "clear_completed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
