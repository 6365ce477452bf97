package delivery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"courierd/config"
	"courierd/location"
	"courierd/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: dbPath},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

type mockEmitter struct {
	assigned  []*store.Delivery
	changed   []string // "old->new"
	completed []*store.Delivery
}

func (m *mockEmitter) EmitDeliveryAssigned(d *store.Delivery) { m.assigned = append(m.assigned, d) }
func (m *mockEmitter) EmitDeliveryStatusChanged(d *store.Delivery, oldStatus, newStatus string, loc *location.Update) {
	m.changed = append(m.changed, oldStatus+"->"+newStatus)
}
func (m *mockEmitter) EmitDeliveryCompleted(d *store.Delivery) { m.completed = append(m.completed, d) }

type mockQueue struct {
	kinds    []string
	payloads []any
	nextID   int64
}

func (m *mockQueue) Enqueue(kind string, payload any) (int64, error) {
	m.kinds = append(m.kinds, kind)
	m.payloads = append(m.payloads, payload)
	m.nextID++
	return m.nextID, nil
}

func testEngine(t *testing.T) (*Engine, *mockEmitter, *mockQueue) {
	t.Helper()
	emitter := &mockEmitter{}
	queue := &mockQueue{}
	return NewEngine(testDB(t), emitter, queue, "drv-1"), emitter, queue
}

func TestAssignCreatesDelivery(t *testing.T) {
	eng, emitter, _ := testEngine(t)

	d, err := eng.Assign(AssignRequest{OrderNumber: "UE-1001", PickupAddress: "1 Main St"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if d.Status != StatusAssigned {
		t.Errorf("Status = %q, want assigned", d.Status)
	}
	if d.ID == "" {
		t.Error("ID should be assigned")
	}
	if len(emitter.assigned) != 1 {
		t.Errorf("assigned events = %d, want 1", len(emitter.assigned))
	}

	_, err = eng.Assign(AssignRequest{})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("empty order number err = %v, want ErrValidation", err)
	}
}

func TestTransitionWalksFullLifecycle(t *testing.T) {
	eng, emitter, queue := testEngine(t)
	d, _ := eng.Assign(AssignRequest{OrderNumber: "UE-1001"})

	steps := []string{
		StatusEnRouteToPickup,
		StatusArrivedAtPickup,
		StatusPickedUp,
		StatusEnRouteToDropoff,
		StatusArrivedAtDropoff,
		StatusDelivered,
	}
	for _, s := range steps {
		got, err := eng.Transition(d.ID, s, nil)
		if err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
		if got.Status != s {
			t.Fatalf("Status = %q, want %q", got.Status, s)
		}
	}

	if len(emitter.changed) != len(steps) {
		t.Errorf("changed events = %d, want %d", len(emitter.changed), len(steps))
	}
	if len(emitter.completed) != 1 {
		t.Errorf("completed events = %d, want 1", len(emitter.completed))
	}
	if len(queue.kinds) != len(steps) {
		t.Errorf("queued updates = %d, want %d", len(queue.kinds), len(steps))
	}
	for _, k := range queue.kinds {
		if k != store.UpdateKindStatusChange {
			t.Errorf("queued kind = %q", k)
		}
	}

	// Delivered is archived off the active list.
	active, _ := eng.Active()
	if len(active) != 0 {
		t.Errorf("active = %d, want 0", len(active))
	}
}

func TestTransitionRejectsSkippedStep(t *testing.T) {
	eng, _, queue := testEngine(t)
	d, _ := eng.Assign(AssignRequest{OrderNumber: "UE-1001"})

	_, err := eng.Transition(d.ID, StatusPickedUp, nil)
	var transErr *InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("err = %v, want *InvalidTransitionError", err)
	}
	if transErr.From != StatusAssigned || transErr.To != StatusPickedUp {
		t.Errorf("got %s -> %s", transErr.From, transErr.To)
	}

	// Rejected transition must not touch the row or the queue.
	got, _, _ := eng.Get(d.ID)
	if got.Status != StatusAssigned {
		t.Errorf("Status = %q, delivery should be unchanged", got.Status)
	}
	if len(queue.kinds) != 0 {
		t.Errorf("queued updates = %d, want 0", len(queue.kinds))
	}
}

func TestTransitionIdempotentResubmit(t *testing.T) {
	eng, emitter, queue := testEngine(t)
	d, _ := eng.Assign(AssignRequest{OrderNumber: "UE-1001"})

	if _, err := eng.Transition(d.ID, StatusEnRouteToPickup, nil); err != nil {
		t.Fatalf("transition: %v", err)
	}
	first, _, _ := eng.Get(d.ID)

	// Same status again: success, but no new mutation or event.
	if _, err := eng.Transition(d.ID, StatusEnRouteToPickup, nil); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	again, _, _ := eng.Get(d.ID)
	if !again.UpdatedAt.Equal(first.UpdatedAt) {
		t.Error("resubmit should not bump UpdatedAt")
	}
	if len(emitter.changed) != 1 {
		t.Errorf("changed events = %d, want 1", len(emitter.changed))
	}
	if len(queue.kinds) != 1 {
		t.Errorf("queued updates = %d, want 1", len(queue.kinds))
	}
}

func TestTransitionUnknownStatusAndMissingDelivery(t *testing.T) {
	eng, _, _ := testEngine(t)
	d, _ := eng.Assign(AssignRequest{OrderNumber: "UE-1001"})

	_, err := eng.Transition(d.ID, "teleported", nil)
	if !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("unknown status err = %v, want ErrUnknownStatus", err)
	}

	_, err = eng.Transition("no-such-id", StatusEnRouteToPickup, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing delivery err = %v, want ErrNotFound", err)
	}
}

func TestTransitionRecordsRoutePoint(t *testing.T) {
	eng, _, queue := testEngine(t)
	d, _ := eng.Assign(AssignRequest{OrderNumber: "UE-1001"})

	loc := &location.Update{
		DriverID: "drv-1", Lat: 40.71, Lng: -74.0, SpeedKmh: 12,
		CapturedAt: time.Now().UTC(), IsMoving: true,
	}
	if _, err := eng.Transition(d.ID, StatusEnRouteToPickup, loc); err != nil {
		t.Fatalf("transition: %v", err)
	}

	_, route, err := eng.Get(d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(route) != 1 {
		t.Fatalf("route = %d points, want 1", len(route))
	}
	if route[0].Lat != 40.71 || !route[0].IsMoving {
		t.Errorf("route point = %+v", route[0])
	}

	payload := queue.payloads[0].(StatusChangePayload)
	if payload.Location == nil || payload.Location.Lat != 40.71 {
		t.Errorf("queued payload location = %+v", payload.Location)
	}
	if payload.From != StatusAssigned || payload.To != StatusEnRouteToPickup {
		t.Errorf("queued payload = %s -> %s", payload.From, payload.To)
	}
}

func TestCancelArchivesDelivery(t *testing.T) {
	eng, emitter, _ := testEngine(t)
	d, _ := eng.Assign(AssignRequest{OrderNumber: "UE-1001"})
	eng.Transition(d.ID, StatusEnRouteToPickup, nil)

	got, err := eng.Transition(d.ID, StatusCancelled, nil)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !got.Archived {
		t.Error("cancelled delivery should be archived")
	}
	if len(emitter.completed) != 1 {
		t.Errorf("completed events = %d, want 1", len(emitter.completed))
	}

	// Terminal means terminal.
	_, err = eng.Transition(d.ID, StatusEnRouteToPickup, nil)
	var transErr *InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Errorf("post-cancel err = %v, want *InvalidTransitionError", err)
	}
}

func TestSetETA(t *testing.T) {
	eng, _, _ := testEngine(t)
	d, _ := eng.Assign(AssignRequest{OrderNumber: "UE-1001"})

	eta := time.Now().UTC().Add(30 * time.Minute).Truncate(time.Second)
	if err := eng.SetETA(d.ID, eta); err != nil {
		t.Fatalf("set eta: %v", err)
	}
	got, _, _ := eng.Get(d.ID)
	if got.ETA == nil || !got.ETA.Equal(eta) {
		t.Errorf("ETA = %v, want %v", got.ETA, eta)
	}

	if err := eng.SetETA("missing", eta); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing eta err = %v, want ErrNotFound", err)
	}
}
