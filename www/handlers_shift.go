package www

import (
	"net/http"
)

func (h *Handlers) apiGetShift(w http.ResponseWriter, r *http.Request) {
	s := h.engine.Shifts().Current()
	if s == nil {
		h.jsonOK(w, map[string]any{"active": false})
		return
	}
	h.jsonOK(w, map[string]any{"active": true, "shift": s})
}

func (h *Handlers) apiStartShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s, err := h.engine.Shifts().StartShift(req.Lat, req.Lng)
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.engine.Tracker().Start()
	h.jsonOK(w, s)
}

func (h *Handlers) apiEndShift(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Shifts().EndShift(); err != nil {
		h.domainError(w, err)
		return
	}
	h.engine.Tracker().Stop()
	h.jsonOK(w, map[string]bool{"ok": true})
}

func (h *Handlers) apiStartBreak(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Shifts().StartBreak(); err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonOK(w, map[string]bool{"ok": true})
}

func (h *Handlers) apiEndBreak(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Shifts().EndBreak(); err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonOK(w, map[string]bool{"ok": true})
}
