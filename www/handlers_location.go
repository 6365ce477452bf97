package www

import (
	"net/http"
	"time"

	"courierd/location"
)

func (h *Handlers) apiCurrentLocation(w http.ResponseWriter, r *http.Request) {
	cur, ok := h.engine.Tracker().Current()
	if !ok {
		h.jsonOK(w, map[string]any{"tracking": h.engine.Tracker().IsTracking()})
		return
	}
	h.jsonOK(w, map[string]any{
		"tracking": h.engine.Tracker().IsTracking(),
		"location": cur,
	})
}

// apiManualLocation feeds a fix from the driver app, e.g. when the
// device has no geolocation source of its own.
func (h *Handlers) apiManualLocation(w http.ResponseWriter, r *http.Request) {
	var f location.Fix
	if err := decodeBody(r, &f); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if f.CapturedAt.IsZero() {
		f.CapturedAt = time.Now().UTC()
	}
	if err := h.engine.Tracker().UpdateManually(f); err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonOK(w, map[string]bool{"ok": true})
}

func (h *Handlers) apiStartTracking(w http.ResponseWriter, r *http.Request) {
	h.engine.Tracker().Start()
	h.jsonOK(w, map[string]bool{"tracking": true})
}

func (h *Handlers) apiStopTracking(w http.ResponseWriter, r *http.Request) {
	h.engine.Tracker().Stop()
	h.jsonOK(w, map[string]bool{"tracking": false})
}
