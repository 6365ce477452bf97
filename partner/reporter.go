package partner

import (
	"log"
	"time"

	"courierd/breaker"
	"courierd/delivery"
	"courierd/location"
)

// provider is the delivery service provider name sent on assignment.
const provider = "courierd"

// EventTypeFor maps a delivery status to its external courier event type.
// The mapping is exhaustive over the closed status set; adding a status
// forces a decision here about whether it reports externally.
func EventTypeFor(status string) (string, bool) {
	switch status {
	case delivery.StatusAssigned:
		return EventCourierAssigned, true
	case delivery.StatusEnRouteToPickup:
		return EventEnRouteToPickup, true
	case delivery.StatusArrivedAtPickup:
		return EventArrivedAtPickup, true
	case delivery.StatusPickedUp:
		return EventOrderPickedUp, true
	case delivery.StatusEnRouteToDropoff:
		return EventEnRouteToDropoff, true
	case delivery.StatusArrivedAtDropoff:
		return EventArrivedAtDropoff, true
	case delivery.StatusDelivered:
		return EventOrderDelivered, true
	case delivery.StatusCancelled:
		return "", false
	}
	return "", false
}

// OrderStatusFor maps a delivery status to the partner order-status
// enumeration, for milestones the partner's status endpoint tracks.
func OrderStatusFor(status string) (string, bool) {
	switch status {
	case delivery.StatusAssigned:
		return OrderStatusConfirm, true
	case delivery.StatusArrivedAtPickup:
		return OrderStatusReady, true
	case delivery.StatusEnRouteToDropoff:
		return OrderStatusOnTheWay, true
	case delivery.StatusDelivered:
		return OrderStatusCompleted, true
	case delivery.StatusCancelled:
		return OrderStatusCancelled, true
	}
	return "", false
}

// EventReporter propagates delivery status milestones to order-broker
// partners. Reporting is best-effort: failures are logged and swallowed,
// never affecting the authoritative local delivery state.
type EventReporter struct {
	router  *Router
	clients map[string]*ResilientClient
	courier Courier
}

// NewEventReporter builds one resilient client per configured partner,
// each guarded by its own named breaker from the registry.
func NewEventReporter(router *Router, reg *breaker.Registry, courier Courier) *EventReporter {
	clients := make(map[string]*ResilientClient)
	for _, route := range router.Routes() {
		clients[route.Name] = NewResilientClient(
			NewClient(route.Name, route.BaseURL, route.Timeout),
			reg.Get(route.Name),
		)
	}
	return &EventReporter{
		router:  router,
		clients: clients,
		courier: courier,
	}
}

// Router returns the reporter's partner router.
func (r *EventReporter) Router() *Router { return r.router }

// Report sends the partner-facing calls for one status transition.
func (r *EventReporter) Report(orderNumber, deliveryID, status string, loc *location.Update) {
	route, ok := r.router.RouteFor(orderNumber)
	if !ok {
		// Orders without a partner prefix are internal; nothing to report.
		return
	}
	rc, ok := r.clients[route.Name]
	if !ok {
		return
	}

	if orderStatus, ok := OrderStatusFor(status); ok {
		res, err := rc.UpdateOrderStatus(orderNumber, orderStatus)
		if err != nil {
			log.Printf("reporter: order status %s for %s: %v", orderStatus, orderNumber, err)
		} else if !res.Success {
			log.Printf("reporter: order status %s for %s rejected: http=%d found=%v msg=%s",
				orderStatus, orderNumber, res.StatusCode, res.OrderFound, res.Message)
		}
	}

	evType, ok := EventTypeFor(status)
	if !ok {
		return
	}

	// Assignment registers the courier rather than posting a lifecycle
	// event, on partners whose API makes that distinction.
	if evType == EventCourierAssigned && route.DedicatedAssign {
		res, err := rc.AssignCourier(deliveryID, r.courier, provider)
		if err != nil {
			log.Printf("reporter: assign courier for %s: %v", deliveryID, err)
		} else if !res.Success {
			log.Printf("reporter: assign courier for %s failed: http=%d msg=%s", deliveryID, res.StatusCode, res.Message)
		}
		return
	}

	ev := CourierEvent{
		DeliveryID: deliveryID,
		EventType:  evType,
		Courier:    r.courier,
		ReportedAt: time.Now(),
	}
	if loc != nil {
		ev.Coordinates = &Coordinates{Lat: loc.Lat, Lng: loc.Lng}
	}
	res, err := rc.PostCourierEvent(ev)
	if err != nil {
		log.Printf("reporter: courier event %s for %s: %v", evType, deliveryID, err)
	} else if !res.Success {
		log.Printf("reporter: courier event %s for %s failed: http=%d msg=%s", evType, deliveryID, res.StatusCode, res.Message)
	}
}
