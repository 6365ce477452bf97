package partner

import (
	"testing"

	"courierd/config"
)

func testRouter() *Router {
	return NewRouter([]config.PartnerConfig{
		{Name: "ubereats", OrderPrefix: "UE-", BaseURL: "http://ue.example"},
		{Name: "caviar", OrderPrefix: "CV-", BaseURL: "http://cv.example"},
		{Name: "caviar-corp", OrderPrefix: "CV-CORP-", BaseURL: "http://corp.example", DedicatedAssign: true},
	})
}

func TestRouteForPrefixMatch(t *testing.T) {
	r := testRouter()

	route, ok := r.RouteFor("UE-1001")
	if !ok || route.Name != "ubereats" {
		t.Errorf("route = %+v ok=%v", route, ok)
	}

	route, ok = r.RouteFor("CV-42")
	if !ok || route.Name != "caviar" {
		t.Errorf("route = %+v ok=%v", route, ok)
	}
}

func TestRouteForLongestPrefixWins(t *testing.T) {
	r := testRouter()

	route, ok := r.RouteFor("CV-CORP-9")
	if !ok || route.Name != "caviar-corp" {
		t.Errorf("route = %+v, want caviar-corp", route)
	}
	if !route.DedicatedAssign {
		t.Error("DedicatedAssign should carry through")
	}
}

func TestRouteForNoMatch(t *testing.T) {
	r := testRouter()

	if _, ok := r.RouteFor("DD-77"); ok {
		t.Error("unmatched prefix should not resolve")
	}
	if _, ok := r.RouteFor(""); ok {
		t.Error("empty order id should not resolve")
	}
}

func TestRouteForIsPure(t *testing.T) {
	r := testRouter()
	a, _ := r.RouteFor("UE-1001")
	b, _ := r.RouteFor("UE-1001")
	if a != b {
		t.Error("resolution should be deterministic")
	}
}

func TestEventTypeFor(t *testing.T) {
	cases := map[string]string{
		"assigned":            EventCourierAssigned,
		"en_route_to_pickup":  EventEnRouteToPickup,
		"arrived_at_pickup":   EventArrivedAtPickup,
		"picked_up":           EventOrderPickedUp,
		"en_route_to_dropoff": EventEnRouteToDropoff,
		"arrived_at_dropoff":  EventArrivedAtDropoff,
		"delivered":           EventOrderDelivered,
	}
	for status, want := range cases {
		got, ok := EventTypeFor(status)
		if !ok || got != want {
			t.Errorf("EventTypeFor(%q) = %q ok=%v, want %q", status, got, ok, want)
		}
	}
	if _, ok := EventTypeFor("cancelled"); ok {
		t.Error("cancelled has no courier event")
	}
}

func TestOrderStatusFor(t *testing.T) {
	cases := map[string]string{
		"assigned":            OrderStatusConfirm,
		"arrived_at_pickup":   OrderStatusReady,
		"en_route_to_dropoff": OrderStatusOnTheWay,
		"delivered":           OrderStatusCompleted,
		"cancelled":           OrderStatusCancelled,
	}
	for status, want := range cases {
		got, ok := OrderStatusFor(status)
		if !ok || got != want {
			t.Errorf("OrderStatusFor(%q) = %q ok=%v, want %q", status, got, ok, want)
		}
	}
	// Intermediate statuses carry no partner-facing order status.
	if _, ok := OrderStatusFor("picked_up"); ok {
		t.Error("picked_up should not map to an order status")
	}
}
