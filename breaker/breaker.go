// Package breaker provides failure isolation for outbound partner calls.
// One Breaker guards one named external dependency; all call sites share
// the same instance through a Registry.
package breaker

import (
	"fmt"
	"sync"
	"time"
)

// Breaker states.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "halfOpen"
)

// OpenError is returned when the breaker rejects a call without invoking it.
type OpenError struct {
	Name          string
	State         string
	RetryAfter    time.Time
	EstimatedWait time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %s is %s, retry in %s", e.Name, e.State, e.EstimatedWait.Round(time.Millisecond))
}

// Config holds breaker thresholds.
type Config struct {
	FailureThreshold int           // consecutive failures to open
	Cooldown         time.Duration // initial open duration
	MaxCooldown      time.Duration // cap for the exponential cooldown

	// Now is the clock; defaults to time.Now. Injectable for tests.
	Now func() time.Time
}

func (c *Config) setDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.MaxCooldown <= 0 {
		c.MaxCooldown = 10 * time.Minute
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Breaker is a circuit breaker for one external dependency.
type Breaker struct {
	name string
	cfg  Config

	mu            sync.Mutex
	state         string
	failureCount  int
	successCount  int
	trips         int
	openedAt      time.Time
	retryAfter    time.Time
	trialInFlight bool
}

// New creates a closed Breaker.
func New(name string, cfg Config) *Breaker {
	cfg.setDefaults()
	return &Breaker{
		name:  name,
		cfg:   cfg,
		state: StateClosed,
	}
}

// Name returns the dependency name this breaker guards.
func (b *Breaker) Name() string { return b.name }

// Execute runs op through the breaker. When the breaker is open (or a
// half-open trial is already in flight) it returns *OpenError immediately
// without invoking op.
func (b *Breaker) Execute(op func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	if err := op(); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.Now()
	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if now.Before(b.retryAfter) {
			return b.openErrorLocked(now)
		}
		b.state = StateHalfOpen
		b.trialInFlight = true
		return nil
	case StateHalfOpen:
		if b.trialInFlight {
			return b.openErrorLocked(now)
		}
		b.trialInFlight = true
		return nil
	}
	return nil
}

func (b *Breaker) openErrorLocked(now time.Time) *OpenError {
	wait := b.retryAfter.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return &OpenError{
		Name:          b.name,
		State:         b.state,
		RetryAfter:    b.retryAfter,
		EstimatedWait: wait,
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failureCount = 0
		b.successCount++
	case StateHalfOpen:
		// Trial succeeded, dependency recovered.
		b.state = StateClosed
		b.failureCount = 0
		b.successCount = 1
		b.trips = 0
		b.trialInFlight = false
		b.openedAt = time.Time{}
		b.retryAfter = time.Time{}
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.Now()
	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.openLocked(now)
		}
	case StateHalfOpen:
		// Trial failed, back to open with a longer cooldown.
		b.trialInFlight = false
		b.openLocked(now)
	}
}

func (b *Breaker) openLocked(now time.Time) {
	b.trips++
	b.state = StateOpen
	b.openedAt = now
	b.retryAfter = now.Add(b.cooldownLocked())
}

// cooldownLocked doubles the base cooldown per consecutive trip, capped.
func (b *Breaker) cooldownLocked() time.Duration {
	d := b.cfg.Cooldown
	for i := 1; i < b.trips; i++ {
		d *= 2
		if d >= b.cfg.MaxCooldown {
			return b.cfg.MaxCooldown
		}
	}
	if d > b.cfg.MaxCooldown {
		d = b.cfg.MaxCooldown
	}
	return d
}

// State returns the current state, accounting for an elapsed cooldown.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && !b.cfg.Now().Before(b.retryAfter) {
		return StateHalfOpen
	}
	return b.state
}

// Snapshot is a point-in-time view of breaker state for status endpoints.
type Snapshot struct {
	Name         string     `json:"name"`
	State        string     `json:"state"`
	FailureCount int        `json:"failure_count"`
	SuccessCount int        `json:"success_count"`
	OpenedAt     *time.Time `json:"opened_at,omitempty"`
	RetryAfter   *time.Time `json:"retry_after,omitempty"`
}

// Snapshot returns the current breaker state and counters.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := Snapshot{
		Name:         b.name,
		State:        b.state,
		FailureCount: b.failureCount,
		SuccessCount: b.successCount,
	}
	if !b.openedAt.IsZero() {
		t := b.openedAt
		s.OpenedAt = &t
	}
	if !b.retryAfter.IsZero() {
		t := b.retryAfter
		s.RetryAfter = &t
	}
	return s
}
