package partner

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"courierd/breaker"
)

func testResilient(t *testing.T, handler http.Handler) (*ResilientClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b := breaker.New("test-partner", breaker.Config{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	})
	return NewResilientClient(NewClient("test-partner", srv.URL, 2*time.Second), b), srv
}

func okHandler(result bool, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Envelope{Result: result, Message: message})
	})
}

func TestUpdateOrderStatusSuccess(t *testing.T) {
	var gotPath, gotSource string
	var gotBody statusUpdateRequest
	rc, _ := testResilient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSource = r.Header.Get("X-Delivery-Source")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(Envelope{Result: true, Message: "updated"})
	}))

	res, err := rc.UpdateOrderStatus("UE-1001", OrderStatusOnTheWay)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !res.Success || !res.OrderFound || res.StatusCode != 200 {
		t.Errorf("res = %+v", res)
	}
	if gotPath != "/order/status" {
		t.Errorf("path = %q", gotPath)
	}
	if gotSource != "courierd" {
		t.Errorf("source header = %q", gotSource)
	}
	if gotBody.OrderNumber != "UE-1001" || gotBody.Status != OrderStatusOnTheWay {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestUpdateOrderStatusValidation(t *testing.T) {
	var calls atomic.Int32
	rc, _ := testResilient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := rc.UpdateOrderStatus("", OrderStatusOnTheWay)
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Field != "orderNumber" {
		t.Errorf("err = %v, want ValidationError on orderNumber", err)
	}

	_, err = rc.UpdateOrderStatus("UE-1001", "FLYING")
	if !errors.As(err, &valErr) || valErr.Field != "status" {
		t.Errorf("err = %v, want ValidationError on status", err)
	}

	if calls.Load() != 0 {
		t.Error("validation failures must not reach the network")
	}
}

func TestOrderNotFound(t *testing.T) {
	rc, _ := testResilient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(Envelope{Result: false, Message: "unknown order"})
	}))

	res, err := rc.UpdateOrderStatus("UE-404", OrderStatusReady)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if res.Success {
		t.Error("Success should be false")
	}
	if res.OrderFound {
		t.Error("OrderFound should be false on 404")
	}
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}
	if res.Message != "unknown order" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestLogicalFailureKeepsBreakerClosed(t *testing.T) {
	rc, _ := testResilient(t, okHandler(false, "order already completed"))

	for i := 0; i < 10; i++ {
		res, err := rc.UpdateOrderStatus("UE-1001", OrderStatusCompleted)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if res.Success {
			t.Fatal("Success should be false for result=false")
		}
		if !res.OrderFound {
			t.Fatal("OrderFound should be true, partner answered")
		}
	}

	// Despite ten rejections, the dependency is healthy.
	res, _ := rc.UpdateOrderStatus("UE-1001", OrderStatusCompleted)
	if res.StatusCode == http.StatusServiceUnavailable {
		t.Error("breaker should not open on logical failures")
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	rc, _ := testResilient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < 5; i++ {
		res, err := rc.UpdateOrderStatus("UE-1001", OrderStatusReady)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if res.Success {
			t.Fatalf("call %d should fail", i)
		}
	}
	if calls.Load() != 5 {
		t.Fatalf("calls = %d, want 5", calls.Load())
	}

	// Sixth call: rejected locally, no network attempt, retry hint set.
	res, err := rc.UpdateOrderStatus("UE-1001", OrderStatusReady)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 5 {
		t.Errorf("calls = %d, open breaker must not hit the network", calls.Load())
	}
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", res.StatusCode)
	}
	if res.RetryAfter == nil {
		t.Error("RetryAfter should be set while open")
	}
}

func TestBreakerOpensOnTransportErrors(t *testing.T) {
	srv := httptest.NewServer(okHandler(true, ""))
	b := breaker.New("test-partner", breaker.Config{FailureThreshold: 3, Cooldown: time.Minute})
	rc := NewResilientClient(NewClient("test-partner", srv.URL, time.Second), b)
	srv.Close() // every call now fails at the transport layer

	for i := 0; i < 3; i++ {
		res, err := rc.PostCourierEvent(CourierEvent{
			DeliveryID: "del-1",
			EventType:  EventOrderPickedUp,
			ReportedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if res.Success {
			t.Fatalf("call %d should fail", i)
		}
	}

	res, _ := rc.PostCourierEvent(CourierEvent{DeliveryID: "del-1", EventType: EventOrderPickedUp, ReportedAt: time.Now()})
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503 after threshold", res.StatusCode)
	}
}

func TestAssignCourier(t *testing.T) {
	var gotPath string
	var body map[string]any
	rc, _ := testResilient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(Envelope{Result: true})
	}))

	res, err := rc.AssignCourier("del-1", Courier{ID: "drv-1", Name: "Alex"}, "courierd")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !res.Success {
		t.Errorf("res = %+v", res)
	}
	if gotPath != "/courier/assign" {
		t.Errorf("path = %q", gotPath)
	}
	if body["deliveryId"] != "del-1" || body["deliveryServiceProvider"] != "courierd" {
		t.Errorf("body = %+v", body)
	}
}
