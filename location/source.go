package location

import (
	"errors"
	"sync"
	"time"
)

// ErrNoFix is returned while the source has nothing to report.
var ErrNoFix = errors.New("no fix available")

// BufferedSource is a Source fed by an external integration, e.g. a
// gpsd bridge or the vehicle head unit. Fix returns the latest fed
// reading until it goes stale.
type BufferedSource struct {
	mu     sync.Mutex
	fix    Fix
	fedAt  time.Time
	maxAge time.Duration
}

// NewBufferedSource creates a source whose readings expire after maxAge.
// Zero maxAge means readings never expire.
func NewBufferedSource(maxAge time.Duration) *BufferedSource {
	return &BufferedSource{maxAge: maxAge}
}

// Feed stores a new reading.
func (s *BufferedSource) Feed(f Fix) {
	s.mu.Lock()
	s.fix = f
	s.fedAt = time.Now()
	s.mu.Unlock()
}

// Fix returns the latest reading, ErrNoFix when empty or stale.
func (s *BufferedSource) Fix() (Fix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fedAt.IsZero() {
		return Fix{}, ErrNoFix
	}
	if s.maxAge > 0 && time.Since(s.fedAt) > s.maxAge {
		return Fix{}, ErrNoFix
	}
	return s.fix, nil
}
