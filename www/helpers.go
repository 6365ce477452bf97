package www

import (
	"encoding/json"
	"errors"
	"net/http"

	"courierd/delivery"
	"courierd/location"
	"courierd/partner"
	"courierd/shift"
)

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// domainError maps subsystem errors onto HTTP status codes.
func (h *Handlers) domainError(w http.ResponseWriter, err error) {
	var transErr *delivery.InvalidTransitionError
	var valErr *partner.ValidationError

	switch {
	case errors.Is(err, delivery.ErrNotFound):
		h.jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, delivery.ErrUnknownStatus),
		errors.Is(err, delivery.ErrValidation),
		errors.Is(err, location.ErrInvalidFix),
		errors.As(err, &valErr):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &transErr),
		errors.Is(err, shift.ErrShiftActive),
		errors.Is(err, shift.ErrNoActiveShift),
		errors.Is(err, shift.ErrOnBreak),
		errors.Is(err, shift.ErrNotOnBreak):
		h.jsonError(w, err.Error(), http.StatusConflict)
	default:
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
