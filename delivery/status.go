package delivery

// Delivery statuses. The lifecycle is linear with a cancel escape hatch.
const (
	StatusAssigned         = "assigned"
	StatusEnRouteToPickup  = "en_route_to_pickup"
	StatusArrivedAtPickup  = "arrived_at_pickup"
	StatusPickedUp         = "picked_up"
	StatusEnRouteToDropoff = "en_route_to_dropoff"
	StatusArrivedAtDropoff = "arrived_at_dropoff"
	StatusDelivered        = "delivered"
	StatusCancelled        = "cancelled"
)

// statusOrder defines the linear progression of the delivery lifecycle.
var statusOrder = []string{
	StatusAssigned,
	StatusEnRouteToPickup,
	StatusArrivedAtPickup,
	StatusPickedUp,
	StatusEnRouteToDropoff,
	StatusArrivedAtDropoff,
	StatusDelivered,
}

// ValidStatus reports whether s is a known delivery status.
func ValidStatus(s string) bool {
	if s == StatusCancelled {
		return true
	}
	for _, v := range statusOrder {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s permits no further transitions.
func IsTerminal(s string) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next returns the next status in the lifecycle sequence.
func Next(current string) (string, bool) {
	for i, s := range statusOrder {
		if s == current && i < len(statusOrder)-1 {
			return statusOrder[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether from → to is in the transition table.
// Resubmitting the current status is handled by the engine, not here.
func CanTransition(from, to string) bool {
	if IsTerminal(from) {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	next, ok := Next(from)
	return ok && next == to
}

// StatusIndex returns the ordinal position of a status (for progress display).
// Cancelled has no position and returns -1.
func StatusIndex(s string) int {
	for i, v := range statusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// AllStatuses returns the ordered lifecycle statuses plus Cancelled.
func AllStatuses() []string {
	out := make([]string, 0, len(statusOrder)+1)
	out = append(out, statusOrder...)
	return append(out, StatusCancelled)
}
