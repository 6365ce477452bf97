package shift

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"courierd/location"
	"courierd/store"
)

// Manager owns the driver's shift lifecycle. Exactly one active shift per
// driver; all mutations run under the manager mutex, persist the shift,
// append a shiftEvent queue item and emit a typed event.
type Manager struct {
	mu       sync.Mutex
	db       *store.DB
	emitter  EventEmitter
	queue    Enqueuer
	driverID string
	now      func() time.Time

	current *store.Shift
	lastFix *location.Update
}

// NewManager creates a shift manager for one driver.
func NewManager(db *store.DB, emitter EventEmitter, queue Enqueuer, driverID string) *Manager {
	return &Manager{
		db:       db,
		emitter:  emitter,
		queue:    queue,
		driverID: driverID,
		now:      time.Now,
	}
}

// Restore loads any non-ended shift from the store after a restart.
func (m *Manager) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.db.GetActiveShift(m.driverID)
	if err != nil {
		return err
	}
	m.current = s
	return nil
}

// Current returns a copy of the active shift, or nil.
func (m *Manager) Current() *store.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// StartShift begins a new shift at the given position. Fails with
// ErrShiftActive if one is already running.
func (m *Manager) StartShift(lat, lng float64) (*store.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil, ErrShiftActive
	}
	// Restart safety: the cache may be cold.
	existing, err := m.db.GetActiveShift(m.driverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		m.current = existing
		return nil, ErrShiftActive
	}

	now := m.now()
	s := &store.Shift{
		ID:        uuid.NewString(),
		DriverID:  m.driverID,
		Status:    StatusActive,
		StartTime: now,
		StartLat:  lat,
		StartLng:  lng,
		Metadata:  "{}",
	}
	if err := m.db.CreateShift(s); err != nil {
		return nil, err
	}
	m.current = s
	m.lastFix = nil

	m.enqueueEvent(s.ID, EventShiftStarted, lat, lng, now)
	m.emitter.EmitShiftStarted(s)
	cp := *s
	return &cp, nil
}

// EndShift closes the active shift, closing any open break first.
func (m *Manager) EndShift() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoActiveShift
	}
	now := m.now()

	if m.current.Status == StatusOnBreak {
		if err := m.db.EndBreakRow(m.current.ID, now); err != nil {
			return err
		}
	}
	if err := m.db.EndShiftRow(m.current.ID, now); err != nil {
		return err
	}
	s := m.current
	s.Status = StatusEnded
	s.EndTime = &now
	m.current = nil
	m.lastFix = nil

	m.enqueueEvent(s.ID, EventShiftEnded, 0, 0, now)
	m.emitter.EmitShiftEnded(s)
	return nil
}

// StartBreak pauses the active shift.
func (m *Manager) StartBreak() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoActiveShift
	}
	if m.current.Status != StatusActive {
		return ErrOnBreak
	}
	now := m.now()
	if err := m.db.StartBreakRow(m.current.ID, now); err != nil {
		return err
	}
	if err := m.db.UpdateShiftStatus(m.current.ID, StatusOnBreak); err != nil {
		return err
	}
	m.current.Status = StatusOnBreak
	m.current.Breaks = append(m.current.Breaks, store.BreakInterval{ShiftID: m.current.ID, StartTime: now})

	m.enqueueEvent(m.current.ID, EventBreakStarted, 0, 0, now)
	m.emitter.EmitBreakStarted(m.current)
	return nil
}

// EndBreak resumes the active shift. Requires exactly one open break.
func (m *Manager) EndBreak() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoActiveShift
	}
	if m.current.Status != StatusOnBreak {
		return ErrNotOnBreak
	}
	open, err := m.db.OpenBreak(m.current.ID)
	if err != nil {
		return err
	}
	if open == nil {
		return ErrNotOnBreak
	}
	now := m.now()
	if err := m.db.EndBreakRow(m.current.ID, now); err != nil {
		return err
	}
	if err := m.db.UpdateShiftStatus(m.current.ID, StatusActive); err != nil {
		return err
	}
	m.current.Status = StatusActive
	for i := range m.current.Breaks {
		if m.current.Breaks[i].EndTime == nil {
			t := now
			m.current.Breaks[i].EndTime = &t
		}
	}

	m.enqueueEvent(m.current.ID, EventBreakEnded, 0, 0, now)
	m.emitter.EmitBreakEnded(m.current)
	return nil
}

// RecordMovement accumulates shift distance from consecutive fixes.
// Only counted while the shift is active (not on break).
func (m *Manager) RecordMovement(u location.Update) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.Status != StatusActive {
		m.lastFix = nil
		return
	}
	if m.lastFix != nil {
		km := location.DistanceKm(m.lastFix.Lat, m.lastFix.Lng, u.Lat, u.Lng)
		if km > 0 {
			m.current.TotalDistanceKm += km
			if err := m.db.AddShiftDistance(m.current.ID, km); err != nil {
				log.Printf("shift: add distance: %v", err)
			}
		}
	}
	fix := u
	m.lastFix = &fix
}

// RecordDelivery bumps the shift's delivery counter.
func (m *Manager) RecordDelivery() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return
	}
	m.current.DeliveryCount++
	if err := m.db.IncrementShiftDeliveries(m.current.ID); err != nil {
		log.Printf("shift: increment deliveries: %v", err)
	}
}

func (m *Manager) enqueueEvent(shiftID, event string, lat, lng float64, at time.Time) {
	if _, err := m.queue.Enqueue(store.UpdateKindShiftEvent, EventPayload{
		ShiftID:    shiftID,
		DriverID:   m.driverID,
		Event:      event,
		Lat:        lat,
		Lng:        lng,
		OccurredAt: at,
	}); err != nil {
		log.Printf("shift: enqueue %s: %v", event, err)
	}
}
