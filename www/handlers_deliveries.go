package www

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"courierd/delivery"
	"courierd/location"
)

func (h *Handlers) apiListDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.engine.Deliveries().Active()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, deliveries)
}

func (h *Handlers) apiAssignDelivery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderNumber    string     `json:"orderNumber"`
		PickupAddress  string     `json:"pickupAddress"`
		PickupLat      float64    `json:"pickupLat"`
		PickupLng      float64    `json:"pickupLng"`
		DropoffAddress string     `json:"dropoffAddress"`
		DropoffLat     float64    `json:"dropoffLat"`
		DropoffLng     float64    `json:"dropoffLng"`
		ETA            *time.Time `json:"eta,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	d, err := h.engine.Deliveries().Assign(delivery.AssignRequest{
		OrderNumber:    req.OrderNumber,
		PickupAddress:  req.PickupAddress,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DropoffAddress: req.DropoffAddress,
		DropoffLat:     req.DropoffLat,
		DropoffLng:     req.DropoffLng,
		ETA:            req.ETA,
	})
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonOK(w, d)
}

func (h *Handlers) apiGetDelivery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, route, err := h.engine.Deliveries().Get(id)
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"delivery": d, "route": route})
}

func (h *Handlers) apiTransitionDelivery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status string        `json:"status"`
		Fix    *location.Fix `json:"fix,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Use the tracker's position when the request carries no fix.
	var loc *location.Update
	if req.Fix != nil {
		f := *req.Fix
		if f.CapturedAt.IsZero() {
			f.CapturedAt = time.Now().UTC()
		}
		loc = &location.Update{
			DriverID:   h.engine.AppConfig().DriverID,
			Lat:        f.Lat,
			Lng:        f.Lng,
			AccuracyM:  f.AccuracyM,
			SpeedKmh:   f.SpeedKmh,
			Heading:    f.Heading,
			CapturedAt: f.CapturedAt,
		}
	} else if cur, ok := h.engine.Tracker().Current(); ok {
		loc = &cur
	}

	d, err := h.engine.Deliveries().Transition(id, req.Status, loc)
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonOK(w, d)
}

func (h *Handlers) apiSetETA(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		ETA time.Time `json:"eta"`
	}
	if err := decodeBody(r, &req); err != nil || req.ETA.IsZero() {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.engine.Deliveries().SetETA(id, req.ETA); err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonOK(w, map[string]bool{"ok": true})
}
