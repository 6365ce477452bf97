package partner

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the partner API response shape. Result=false on a 2xx is a
// logical rejection (order found, operation refused) distinct from a 404.
type Envelope struct {
	Result  bool            `json:"result"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Courier identifies the driver to the partner platform.
type Courier struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Vehicle string `json:"vehicle,omitempty"`
}

// Coordinates is an optional position attached to a courier event.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CourierEvent is an external-facing notification of a delivery milestone.
// Derived per transition, not persisted beyond the outbound call.
type CourierEvent struct {
	DeliveryID  string       `json:"deliveryId"`
	EventType   string       `json:"eventType"`
	Courier     Courier      `json:"courier"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	ReportedAt  time.Time    `json:"reportedAt"`
}

// Courier event types.
const (
	EventCourierAssigned  = "COURIER_ASSIGNED"
	EventEnRouteToPickup  = "EN_ROUTE_TO_PICKUP"
	EventArrivedAtPickup  = "ARRIVED_AT_PICKUP"
	EventOrderPickedUp    = "ORDER_PICKED_UP"
	EventEnRouteToDropoff = "EN_ROUTE_TO_DROPOFF"
	EventArrivedAtDropoff = "ARRIVED_AT_DROPOFF"
	EventOrderDelivered   = "ORDER_DELIVERED"
)

// Order statuses the partner status endpoint accepts.
const (
	OrderStatusConfirm   = "CONFIRM"
	OrderStatusReady     = "READY"
	OrderStatusOnTheWay  = "ON_THE_WAY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// ValidOrderStatus reports whether s is in the partner status enumeration.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusConfirm, OrderStatusReady, OrderStatusOnTheWay, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidationError is a local input rejection; no network call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("partner: invalid %s: %s", e.Field, e.Reason)
}

// StatusResult is the typed outcome of a partner call. Callers never need
// to special-case the circuit breaker: an open breaker surfaces as a 503
// with OrderFound=false.
type StatusResult struct {
	Success    bool       `json:"success"`
	OrderFound bool       `json:"order_found"`
	StatusCode int        `json:"status_code"`
	Message    string     `json:"message,omitempty"`
	RetryAfter *time.Time `json:"retry_after,omitempty"`
}
