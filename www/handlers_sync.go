package www

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handlers) apiSyncStatus(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Coordinator().Status())
}

func (h *Handlers) apiSyncKick(w http.ResponseWriter, r *http.Request) {
	h.engine.Coordinator().Kick()
	h.jsonOK(w, map[string]bool{"ok": true})
}

func (h *Handlers) apiExhaustedUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := h.engine.Queue().Exhausted()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, updates)
}

func (h *Handlers) queueUpdateID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	u, err := h.engine.Queue().Get(id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return 0, false
	}
	if u == nil {
		h.jsonError(w, "update not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handlers) apiRetryUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.queueUpdateID(w, r)
	if !ok {
		return
	}
	if err := h.engine.Queue().Retry(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.Coordinator().Kick()
	h.jsonOK(w, map[string]bool{"ok": true})
}

func (h *Handlers) apiDiscardUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.queueUpdateID(w, r)
	if !ok {
		return
	}
	if err := h.engine.Queue().Discard(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]bool{"ok": true})
}

func (h *Handlers) apiBreakers(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Breakers().Snapshots())
}
