package partner

import (
	"strings"
	"time"

	"courierd/config"
)

// Route describes which partner handles an order identifier.
type Route struct {
	Name            string
	OrderPrefix     string
	BaseURL         string
	Timeout         time.Duration
	DedicatedAssign bool
}

// Router resolves order identifiers to partner routes. Resolution is a
// pure function of the identifier; it performs no I/O.
type Router struct {
	routes []Route
}

// NewRouter builds a router from partner configuration. Longer prefixes
// win so that e.g. "CV-CORP-" can shadow "CV-".
func NewRouter(cfgs []config.PartnerConfig) *Router {
	routes := make([]Route, 0, len(cfgs))
	for _, c := range cfgs {
		routes = append(routes, Route{
			Name:            c.Name,
			OrderPrefix:     c.OrderPrefix,
			BaseURL:         c.BaseURL,
			Timeout:         c.Timeout,
			DedicatedAssign: c.DedicatedAssign,
		})
	}
	return &Router{routes: routes}
}

// RouteFor returns the route whose prefix matches orderID, or false when
// no partner handles it.
func (r *Router) RouteFor(orderID string) (Route, bool) {
	var best Route
	found := false
	for _, route := range r.routes {
		if route.OrderPrefix == "" {
			continue
		}
		if strings.HasPrefix(orderID, route.OrderPrefix) {
			if !found || len(route.OrderPrefix) > len(best.OrderPrefix) {
				best = route
				found = true
			}
		}
	}
	return best, found
}

// Routes returns all configured routes.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}
