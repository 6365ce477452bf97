package shift

import (
	"errors"
	"time"
)

// Shift statuses.
const (
	StatusActive  = "active"
	StatusOnBreak = "on_break"
	StatusEnded   = "ended"
)

// Shift event names carried in queued shiftEvent payloads.
const (
	EventShiftStarted = "shift_started"
	EventShiftEnded   = "shift_ended"
	EventBreakStarted = "break_started"
	EventBreakEnded   = "break_ended"
)

var (
	// ErrShiftActive is returned when a shift is already running.
	ErrShiftActive = errors.New("shift already active")
	// ErrNoActiveShift is returned when an operation needs a running shift.
	ErrNoActiveShift = errors.New("no active shift")
	// ErrOnBreak is returned when an operation needs the driver off break.
	ErrOnBreak = errors.New("shift is on break")
	// ErrNotOnBreak is returned when no break is open.
	ErrNotOnBreak = errors.New("no open break")
)

// EventPayload is the queued form of a shift lifecycle event.
type EventPayload struct {
	ShiftID    string    `json:"shift_id"`
	DriverID   string    `json:"driver_id"`
	Event      string    `json:"event"`
	Lat        float64   `json:"lat,omitempty"`
	Lng        float64   `json:"lng,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
