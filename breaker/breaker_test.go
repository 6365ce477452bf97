package breaker

import (
	"errors"
	"testing"
	"time"
)

// fakeClock is an adjustable clock for breaker tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func testBreaker(clock *fakeClock) *Breaker {
	return New("partner-a", Config{
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
		MaxCooldown:      4 * time.Minute,
		Now:              clock.Now,
	})
}

var errDown = errors.New("connection refused")

func failN(t *testing.T, b *Breaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := b.Execute(func() error { return errDown }); !errors.Is(err, errDown) {
			t.Fatalf("failure %d: err = %v, want errDown", i+1, err)
		}
	}
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := testBreaker(clock)

	failN(t, b, 2)
	if b.State() != StateClosed {
		t.Fatalf("state = %q, want closed before threshold", b.State())
	}

	failN(t, b, 1)
	if b.State() != StateOpen {
		t.Fatalf("state = %q, want open at threshold", b.State())
	}
}

func TestBreakerRejectsWithoutInvoking(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := testBreaker(clock)
	failN(t, b, 3)

	invoked := false
	err := b.Execute(func() error { invoked = true; return nil })
	if invoked {
		t.Fatal("op should not run while open")
	}

	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("err = %v, want *OpenError", err)
	}
	if openErr.State != StateOpen {
		t.Errorf("State = %q, want open", openErr.State)
	}
	if openErr.EstimatedWait != 30*time.Second {
		t.Errorf("EstimatedWait = %v, want 30s", openErr.EstimatedWait)
	}
	if !openErr.RetryAfter.Equal(clock.now.Add(30 * time.Second)) {
		t.Errorf("RetryAfter = %v", openErr.RetryAfter)
	}
}

func TestBreakerHalfOpenSingleTrial(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := testBreaker(clock)
	failN(t, b, 3)

	clock.advance(31 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %q, want halfOpen after cooldown", b.State())
	}

	// First caller gets the trial; a concurrent second caller is rejected.
	trialStarted := make(chan struct{})
	trialRelease := make(chan struct{})
	trialDone := make(chan error, 1)
	go func() {
		trialDone <- b.Execute(func() error {
			close(trialStarted)
			<-trialRelease
			return nil
		})
	}()
	<-trialStarted

	err := b.Execute(func() error { t.Error("second op should not run"); return nil })
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("concurrent call err = %v, want *OpenError", err)
	}

	close(trialRelease)
	if err := <-trialDone; err != nil {
		t.Fatalf("trial err = %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %q, want closed after trial success", b.State())
	}
}

func TestBreakerCooldownDoublesOnFailedTrial(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := testBreaker(clock)
	failN(t, b, 3)

	// Failed trial: cooldown doubles to 60s.
	clock.advance(31 * time.Second)
	failN(t, b, 1)

	err := b.Execute(func() error { return nil })
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("err = %v, want *OpenError", err)
	}
	if openErr.EstimatedWait != 60*time.Second {
		t.Errorf("EstimatedWait = %v, want 60s", openErr.EstimatedWait)
	}

	// Another failed trial: 120s.
	clock.advance(61 * time.Second)
	failN(t, b, 1)
	clock.advance(time.Second)
	err = b.Execute(func() error { return nil })
	if !errors.As(err, &openErr) {
		t.Fatalf("err = %v, want *OpenError", err)
	}
	if got := openErr.RetryAfter.Sub(clock.now.Add(-time.Second)); got != 120*time.Second {
		t.Errorf("cooldown = %v, want 120s", got)
	}
}

func TestBreakerCooldownCapped(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := testBreaker(clock)
	failN(t, b, 3)

	// Fail enough trials to pass the 4m cap: 30s, 60s, 120s, 240s, 240s...
	for i := 0; i < 6; i++ {
		clock.advance(5 * time.Minute)
		failN(t, b, 1)
	}

	err := b.Execute(func() error { return nil })
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("err = %v, want *OpenError", err)
	}
	if openErr.EstimatedWait != 4*time.Minute {
		t.Errorf("EstimatedWait = %v, want capped 4m", openErr.EstimatedWait)
	}
}

func TestBreakerRecoveryResetsCooldown(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := testBreaker(clock)
	failN(t, b, 3)
	clock.advance(31 * time.Second)
	failN(t, b, 1) // doubled to 60s

	clock.advance(61 * time.Second)
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("trial: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %q, want closed", b.State())
	}

	// After recovery the next open starts from the base cooldown again.
	failN(t, b, 3)
	err := b.Execute(func() error { return nil })
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("err = %v, want *OpenError", err)
	}
	if openErr.EstimatedWait != 30*time.Second {
		t.Errorf("EstimatedWait = %v, want base 30s", openErr.EstimatedWait)
	}
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := testBreaker(clock)

	failN(t, b, 2)
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("success: %v", err)
	}
	failN(t, b, 2)
	if b.State() != StateClosed {
		t.Fatalf("state = %q, streak should have reset", b.State())
	}
}

func TestRegistrySharesBreakers(t *testing.T) {
	reg := NewRegistry(Config{FailureThreshold: 2})
	a := reg.Get("partner-a")
	if reg.Get("partner-a") != a {
		t.Error("same name should return the same breaker")
	}
	if reg.Get("partner-b") == a {
		t.Error("different names should return different breakers")
	}

	snaps := reg.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(snaps))
	}
}
