package queue

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"courierd/config"
	"courierd/platform"
	"courierd/store"
)

// Submitter delivers one queued update to the fleet platform.
type Submitter interface {
	SubmitUpdate(ctx context.Context, u *store.QueuedUpdate) error
}

// EventEmitter receives coordinator lifecycle events.
type EventEmitter interface {
	EmitUpdateSynced(u *store.QueuedUpdate)
	EmitSyncStateChanged(online bool)
}

// SyncStatus is a snapshot of the coordinator for the API.
type SyncStatus struct {
	Online     bool       `json:"online"`
	Pending    int        `json:"pendingUpdates"`
	Exhausted  int        `json:"exhaustedUpdates"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

// Coordinator drains the offline queue against the platform. Updates go
// out strictly in insertion order; the first failure in a batch stops
// the cycle so nothing is submitted ahead of an earlier update.
type Coordinator struct {
	queue     *Offline
	submitter Submitter
	emitter   EventEmitter
	interval  time.Duration
	batchSize int

	mu         sync.Mutex
	online     bool
	lastSyncAt time.Time
	lastError  string

	kickChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewCoordinator creates a coordinator. It starts optimistic: the first
// cycle finds out whether the platform is actually reachable.
func NewCoordinator(q *Offline, submitter Submitter, emitter EventEmitter, cfg *config.SyncConfig) *Coordinator {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 25
	}
	return &Coordinator{
		queue:     q,
		submitter: submitter,
		emitter:   emitter,
		interval:  interval,
		batchSize: batch,
		online:    true,
		kickChan:  make(chan struct{}, 1),
		stopChan:  make(chan struct{}),
	}
}

// Start begins the sync loop.
func (c *Coordinator) Start() {
	c.wg.Add(1)
	go c.syncLoop()
}

// Stop stops the sync loop.
func (c *Coordinator) Stop() {
	select {
	case <-c.stopChan:
	default:
		close(c.stopChan)
	}
	c.wg.Wait()
}

// Kick requests an immediate sync cycle, e.g. after a new update was
// enqueued or connectivity came back.
func (c *Coordinator) Kick() {
	select {
	case c.kickChan <- struct{}{}:
	default:
	}
}

// Online reports the last known platform reachability.
func (c *Coordinator) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Status snapshots the coordinator plus queue depths.
func (c *Coordinator) Status() SyncStatus {
	c.mu.Lock()
	st := SyncStatus{
		Online:    c.online,
		LastError: c.lastError,
	}
	if !c.lastSyncAt.IsZero() {
		t := c.lastSyncAt
		st.LastSyncAt = &t
	}
	c.mu.Unlock()

	if n, err := c.queue.Size(); err == nil {
		st.Pending = n
	}
	if ex, err := c.queue.Exhausted(); err == nil {
		st.Exhausted = len(ex)
	}
	return st
}

func (c *Coordinator) syncLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cycle()
		case <-c.kickChan:
			c.cycle()
		}
	}
}

// cycle drains one batch. While offline only the head of the queue is
// attempted; a successful submit is also the signal that the platform
// is back, at which point the rest of the batch follows.
func (c *Coordinator) cycle() {
	batch, err := c.queue.PeekBatch(c.batchSize)
	if err != nil {
		log.Printf("sync: list pending updates: %v", err)
		return
	}
	if len(batch) == 0 {
		c.mu.Lock()
		c.lastSyncAt = time.Now().UTC()
		c.mu.Unlock()
		return
	}

	probing := !c.Online()
	for i, u := range batch {
		if probing && i > 0 {
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := c.submitter.SubmitUpdate(ctx, u)
		cancel()

		if err == nil || errors.Is(err, platform.ErrDuplicate) {
			if ackErr := c.queue.Acknowledge(u.ID); ackErr != nil {
				log.Printf("sync: ack update %d: %v", u.ID, ackErr)
				return
			}
			c.setOnline(true, "")
			probing = false
			if c.emitter != nil {
				c.emitter.EmitUpdateSynced(u)
			}
			continue
		}

		log.Printf("sync: submit update %d (%s): %v", u.ID, u.Kind, err)
		if failErr := c.queue.Fail(u.ID, err.Error()); failErr != nil {
			log.Printf("sync: record failure for update %d: %v", u.ID, failErr)
		}

		var httpErr *platform.HTTPError
		if errors.As(err, &httpErr) && !httpErr.Retryable() {
			// Server reachable, update rejected. Later updates must
			// still wait for this one to be retried or discarded.
			c.setOnline(true, err.Error())
		} else {
			c.setOnline(false, err.Error())
		}
		return
	}

	c.mu.Lock()
	c.lastSyncAt = time.Now().UTC()
	c.mu.Unlock()
}

func (c *Coordinator) setOnline(online bool, lastError string) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	c.lastError = lastError
	if online {
		c.lastSyncAt = time.Now().UTC()
	}
	c.mu.Unlock()

	if changed {
		if online {
			log.Printf("sync: platform reachable, draining queue")
		} else {
			log.Printf("sync: platform unreachable, queueing updates")
		}
		if c.emitter != nil {
			c.emitter.EmitSyncStateChanged(online)
		}
	}
}
