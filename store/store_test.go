package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"courierd/config"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := Open(&config.DatabaseConfig{
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

// --- Driver tests ---

func TestDriverCRUD(t *testing.T) {
	db := testDB(t)

	d := &Driver{ID: "drv-1", Name: "Alex", Phone: "555-0101", Vehicle: "bike", PasswordHash: "x"}
	if err := db.CreateDriver(d); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := db.GetDriver("drv-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("driver should exist")
	}
	if got.Name != "Alex" || got.Vehicle != "bike" {
		t.Errorf("got %+v", got)
	}

	missing, err := db.GetDriver("nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("missing driver should be nil")
	}
}

// --- Shift tests ---

func TestShiftLifecycle(t *testing.T) {
	db := testDB(t)
	db.CreateDriver(&Driver{ID: "drv-1", Name: "Alex"})

	s := &Shift{ID: "sh-1", DriverID: "drv-1", Status: "active", StartTime: time.Now().UTC(), StartLat: 40.7, StartLng: -74.0}
	if err := db.CreateShift(s); err != nil {
		t.Fatalf("create shift: %v", err)
	}

	active, err := db.GetActiveShift("drv-1")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active == nil || active.ID != "sh-1" {
		t.Fatalf("active = %+v", active)
	}

	if err := db.AddShiftDistance("sh-1", 2.5); err != nil {
		t.Fatalf("add distance: %v", err)
	}
	if err := db.AddShiftDistance("sh-1", 1.5); err != nil {
		t.Fatalf("add distance: %v", err)
	}
	if err := db.IncrementShiftDeliveries("sh-1"); err != nil {
		t.Fatalf("increment deliveries: %v", err)
	}

	got, err := db.GetShift("sh-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalDistanceKm != 4.0 {
		t.Errorf("TotalDistanceKm = %v, want 4.0", got.TotalDistanceKm)
	}
	if got.DeliveryCount != 1 {
		t.Errorf("DeliveryCount = %d, want 1", got.DeliveryCount)
	}

	end := time.Now().UTC()
	if err := db.EndShiftRow("sh-1", end); err != nil {
		t.Fatalf("end: %v", err)
	}
	active, err = db.GetActiveShift("drv-1")
	if err != nil {
		t.Fatalf("active after end: %v", err)
	}
	if active != nil {
		t.Error("no shift should be active after end")
	}
}

func TestShiftBreaks(t *testing.T) {
	db := testDB(t)
	db.CreateShift(&Shift{ID: "sh-1", DriverID: "drv-1", Status: "on_break", StartTime: time.Now().UTC()})

	start := time.Now().UTC()
	if err := db.StartBreakRow("sh-1", start); err != nil {
		t.Fatalf("start break: %v", err)
	}

	open, err := db.OpenBreak("sh-1")
	if err != nil {
		t.Fatalf("open break: %v", err)
	}
	if open == nil {
		t.Fatal("break should be open")
	}

	if err := db.EndBreakRow("sh-1", start.Add(10*time.Minute)); err != nil {
		t.Fatalf("end break: %v", err)
	}
	open, err = db.OpenBreak("sh-1")
	if err != nil {
		t.Fatalf("open break after end: %v", err)
	}
	if open != nil {
		t.Error("break should be closed")
	}

	breaks, err := db.ListBreaks("sh-1")
	if err != nil {
		t.Fatalf("list breaks: %v", err)
	}
	if len(breaks) != 1 {
		t.Fatalf("breaks = %d, want 1", len(breaks))
	}
	if breaks[0].EndTime == nil {
		t.Error("break end time should be set")
	}
}

// --- Delivery tests ---

func TestDeliveryCRUD(t *testing.T) {
	db := testDB(t)

	now := time.Now().UTC()
	d := &Delivery{
		ID: "del-1", DriverID: "drv-1", OrderNumber: "UE-1001", Status: "assigned",
		PickupAddress: "1 Main St", DropoffAddress: "9 Oak Ave",
		AssignedAt: now, UpdatedAt: now,
	}
	if err := db.CreateDelivery(d); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := db.GetDelivery("del-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.OrderNumber != "UE-1001" {
		t.Fatalf("got %+v", got)
	}

	if err := db.UpdateDeliveryStatus("del-1", "en_route_to_pickup", now.Add(time.Minute)); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ = db.GetDelivery("del-1")
	if got.Status != "en_route_to_pickup" {
		t.Errorf("Status = %q", got.Status)
	}

	active, err := db.ListActiveDeliveries("drv-1")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}

	if err := db.ArchiveDelivery("del-1"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	active, _ = db.ListActiveDeliveries("drv-1")
	if len(active) != 0 {
		t.Error("archived delivery should not be active")
	}
}

func TestRoutePoints(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()
	db.CreateDelivery(&Delivery{ID: "del-1", DriverID: "drv-1", OrderNumber: "UE-1", Status: "assigned", AssignedAt: now, UpdatedAt: now})

	for i := 0; i < 3; i++ {
		p := &RoutePoint{DeliveryID: "del-1", Lat: 40.7 + float64(i)*0.001, Lng: -74.0, CapturedAt: now.Add(time.Duration(i) * time.Second), IsMoving: i > 0}
		if err := db.AppendRoutePoint(p); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	route, err := db.ListRoute("del-1")
	if err != nil {
		t.Fatalf("list route: %v", err)
	}
	if len(route) != 3 {
		t.Fatalf("route = %d points, want 3", len(route))
	}
	if route[0].IsMoving {
		t.Error("first point should not be moving")
	}
	if !route[2].IsMoving {
		t.Error("last point should be moving")
	}
}

// --- Queue tests ---

func TestQueuedUpdates(t *testing.T) {
	db := testDB(t)

	id1, err := db.EnqueueUpdate("drv-1", UpdateKindLocation, []byte(`{"lat":1}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	id2, err := db.EnqueueUpdate("drv-1", UpdateKindStatusChange, []byte(`{"to":"picked_up"}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("ids should be increasing: %d then %d", id1, id2)
	}

	pending, err := db.ListPendingUpdates("drv-1", 5, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].ID != id1 || pending[1].ID != id2 {
		t.Error("pending updates out of order")
	}

	if err := db.AckUpdate(id1, time.Now().UTC()); err != nil {
		t.Fatalf("ack: %v", err)
	}
	pending, _ = db.ListPendingUpdates("drv-1", 5, 10)
	if len(pending) != 1 || pending[0].ID != id2 {
		t.Fatalf("pending after ack = %+v", pending)
	}

	n, err := db.CountPendingUpdates("drv-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestQueuedUpdateExhaustion(t *testing.T) {
	db := testDB(t)

	id, _ := db.EnqueueUpdate("drv-1", UpdateKindLocation, []byte(`{}`))
	for i := 0; i < 3; i++ {
		if err := db.RecordUpdateFailure(id, "connection refused"); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	pending, _ := db.ListPendingUpdates("drv-1", 3, 10)
	if len(pending) != 0 {
		t.Error("exhausted update should not be pending")
	}

	exhausted, err := db.ListExhaustedUpdates("drv-1", 3)
	if err != nil {
		t.Fatalf("exhausted: %v", err)
	}
	if len(exhausted) != 1 {
		t.Fatalf("exhausted = %d, want 1", len(exhausted))
	}
	if exhausted[0].LastError != "connection refused" {
		t.Errorf("LastError = %q", exhausted[0].LastError)
	}

	// Still counted and retained.
	n, _ := db.CountPendingUpdates("drv-1")
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	if err := db.ResetUpdateAttempts(id); err != nil {
		t.Fatalf("reset: %v", err)
	}
	pending, _ = db.ListPendingUpdates("drv-1", 3, 10)
	if len(pending) != 1 {
		t.Error("reset update should be pending again")
	}

	if err := db.DeleteUpdate(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	n, _ = db.CountPendingUpdates("drv-1")
	if n != 0 {
		t.Errorf("count after delete = %d, want 0", n)
	}
}
