package www

import (
	"net/http"
)

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DriverID string `json:"driverId"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	d, err := h.engine.DB().GetDriver(req.DriverID)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if d == nil || !checkPassword(d.PasswordHash, req.Password) {
		h.jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["driver_id"] = d.ID
	if err := session.Save(r, w); err != nil {
		h.jsonError(w, "session save failed", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]string{"driverId": d.ID, "name": d.Name})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = false
	delete(session.Values, "driver_id")
	session.Save(r, w)
	h.jsonOK(w, map[string]bool{"ok": true})
}

func (h *Handlers) apiChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current"`
		New     string `json:"new"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.New) < 6 {
		h.jsonError(w, "new password too short", http.StatusBadRequest)
		return
	}

	driverID := h.engine.AppConfig().DriverID
	d, err := h.engine.DB().GetDriver(driverID)
	if err != nil || d == nil {
		h.jsonError(w, "driver not found", http.StatusNotFound)
		return
	}
	if !checkPassword(d.PasswordHash, req.Current) {
		h.jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	hash, err := hashPassword(req.New)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.engine.DB().UpdateDriverPassword(driverID, hash); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]bool{"ok": true})
}

func (h *Handlers) apiHealth(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Coordinator().Status()
	h.jsonOK(w, map[string]any{
		"status":   "ok",
		"tracking": h.engine.Tracker().IsTracking(),
		"online":   st.Online,
		"pending":  st.Pending,
	})
}
