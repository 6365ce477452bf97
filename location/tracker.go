package location

import (
	"sync"
	"time"

	"courierd/config"
)

// EventEmitter is the interface the tracker uses to publish readings.
type EventEmitter interface {
	EmitLocationUpdated(Update)
	EmitTrackingError(err error)
}

// Tracker samples the geolocation source on a fixed rate and publishes
// validated updates. Consumers subscribe via the engine event bus; the
// tracker itself owns only the latest-known view.
type Tracker struct {
	driverID string
	cfg      config.TrackingConfig
	source   Source
	emitter  EventEmitter

	mu       sync.Mutex
	current  *Update
	lastErr  error
	tracking bool
	speeds   []float64

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewTracker creates a tracker for one driver.
func NewTracker(driverID string, cfg config.TrackingConfig, source Source, emitter EventEmitter) *Tracker {
	return &Tracker{
		driverID: driverID,
		cfg:      cfg,
		source:   source,
		emitter:  emitter,
	}
}

// Start begins the sampling loop. No-op if already tracking.
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.tracking {
		t.mu.Unlock()
		return
	}
	t.tracking = true
	t.stopChan = make(chan struct{})
	t.mu.Unlock()

	t.wg.Add(1)
	go t.sampleLoop()
}

// Stop halts the sampling loop and waits for it. After Stop returns no
// further sensor reading mutates tracker state.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.tracking {
		t.mu.Unlock()
		return
	}
	t.tracking = false
	close(t.stopChan)
	t.mu.Unlock()

	t.wg.Wait()
}

// IsTracking reports whether the sampling loop is running.
func (t *Tracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// Current returns the latest known update, or false before the first fix.
func (t *Tracker) Current() (Update, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Update{}, false
	}
	return *t.current, true
}

// LastError returns the most recent source or validation error.
func (t *Tracker) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// UpdateManually injects a caller-supplied fix (reduced-GPS scenarios).
// It passes through the same validation and derivation as sensor fixes.
func (t *Tracker) UpdateManually(f Fix) error {
	return t.ingest(f)
}

func (t *Tracker) sampleLoop() {
	defer t.wg.Done()

	rate := t.cfg.SampleRate
	if rate <= 0 {
		rate = 2 * time.Second
	}
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			t.sample()
		}
	}
}

func (t *Tracker) sample() {
	fix, err := t.source.Fix()
	if err != nil {
		t.mu.Lock()
		stopped := !t.tracking
		if !stopped {
			t.lastErr = err
		}
		t.mu.Unlock()
		if !stopped {
			t.emitter.EmitTrackingError(err)
		}
		return
	}
	if err := t.ingest(fix); err != nil {
		t.emitter.EmitTrackingError(err)
	}
}

// ingest validates a fix, derives movement, stores it as the latest view
// and emits it. Shared by the sensor loop and UpdateManually.
func (t *Tracker) ingest(f Fix) error {
	if err := ValidateFix(f, t.cfg.MaxAccuracyM); err != nil {
		t.mu.Lock()
		t.lastErr = err
		t.mu.Unlock()
		return err
	}
	if f.CapturedAt.IsZero() {
		f.CapturedAt = time.Now()
	}

	t.mu.Lock()
	// Sources may hand back the same reading between hardware updates.
	if t.current != nil && !f.CapturedAt.After(t.current.CapturedAt) {
		t.mu.Unlock()
		return nil
	}
	t.lastErr = nil
	t.speeds = append(t.speeds, f.SpeedKmh)
	window := t.cfg.MovementWindow
	if window <= 0 {
		window = 5
	}
	if len(t.speeds) > window {
		t.speeds = t.speeds[len(t.speeds)-window:]
	}
	u := Update{
		DriverID:   t.driverID,
		Lat:        f.Lat,
		Lng:        f.Lng,
		AccuracyM:  f.AccuracyM,
		SpeedKmh:   f.SpeedKmh,
		Heading:    f.Heading,
		CapturedAt: f.CapturedAt,
		IsMoving:   IsMoving(t.speeds, t.cfg.MovingSpeedKmh),
	}
	t.current = &u
	t.mu.Unlock()

	t.emitter.EmitLocationUpdated(u)
	return nil
}
