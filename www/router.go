// Package www exposes the local HTTP API the driver app talks to.
package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"courierd/engine"
)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
}

// NewRouter builds the HTTP handler for the agent API.
func NewRouter(eng *engine.Engine) http.Handler {
	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
	}

	h.ensureDriver(eng.DB(), eng.AppConfig().DriverID)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/api/health", h.apiHealth)

	// Driver routes
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/api/shift", h.apiGetShift)
		r.Post("/api/shift/start", h.apiStartShift)
		r.Post("/api/shift/end", h.apiEndShift)
		r.Post("/api/shift/break/start", h.apiStartBreak)
		r.Post("/api/shift/break/end", h.apiEndBreak)

		r.Get("/api/deliveries", h.apiListDeliveries)
		r.Post("/api/deliveries", h.apiAssignDelivery)
		r.Get("/api/deliveries/{id}", h.apiGetDelivery)
		r.Post("/api/deliveries/{id}/status", h.apiTransitionDelivery)
		r.Post("/api/deliveries/{id}/eta", h.apiSetETA)

		r.Get("/api/location", h.apiCurrentLocation)
		r.Post("/api/location", h.apiManualLocation)
		r.Post("/api/tracking/start", h.apiStartTracking)
		r.Post("/api/tracking/stop", h.apiStopTracking)

		r.Get("/api/sync/status", h.apiSyncStatus)
		r.Post("/api/sync/kick", h.apiSyncKick)
		r.Get("/api/queue/exhausted", h.apiExhaustedUpdates)
		r.Post("/api/queue/{id}/retry", h.apiRetryUpdate)
		r.Post("/api/queue/{id}/discard", h.apiDiscardUpdate)

		r.Get("/api/breakers", h.apiBreakers)

		r.Post("/api/password", h.apiChangePassword)
	})

	return r
}
