package location

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidFix marks a rejected geolocation reading. Use errors.Is to test.
var ErrInvalidFix = errors.New("invalid fix")

// Fix is a raw reading from the geolocation source.
type Fix struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracy_m"`
	SpeedKmh   float64   `json:"speed_kmh"`
	Heading    float64   `json:"heading"`
	CapturedAt time.Time `json:"captured_at"`
}

// Update is a validated location reading with derived movement state.
// Immutable once produced; identity is (DriverID, CapturedAt).
type Update struct {
	DriverID   string    `json:"driver_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracy_m"`
	SpeedKmh   float64   `json:"speed_kmh"`
	Heading    float64   `json:"heading"`
	CapturedAt time.Time `json:"captured_at"`
	IsMoving   bool      `json:"is_moving"`
}

// Source is the platform geolocation capability.
type Source interface {
	// Fix returns the current reading. Errors (permission denied, no
	// signal) are surfaced through Tracker.LastError.
	Fix() (Fix, error)
}

// ValidateFix rejects out-of-range coordinates and low-accuracy readings.
func ValidateFix(f Fix, maxAccuracyM float64) error {
	if f.Lat < -90 || f.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidFix, f.Lat)
	}
	if f.Lng < -180 || f.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidFix, f.Lng)
	}
	if f.AccuracyM < 0 {
		return fmt.Errorf("%w: negative accuracy", ErrInvalidFix)
	}
	if maxAccuracyM > 0 && f.AccuracyM > maxAccuracyM {
		return fmt.Errorf("%w: accuracy %.0fm exceeds %.0fm", ErrInvalidFix, f.AccuracyM, maxAccuracyM)
	}
	return nil
}
