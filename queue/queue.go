// Package queue holds driver mutations while the fleet platform is
// unreachable and drains them in order once it is back.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"courierd/store"
)

// Offline is the durable FIFO of updates awaiting submission. Rows
// survive restarts; an update leaves the queue only when the platform
// acknowledges it or an operator discards it.
type Offline struct {
	db          *store.DB
	driverID    string
	maxAttempts int
}

// NewOffline creates the queue for one driver.
func NewOffline(db *store.DB, driverID string, maxAttempts int) *Offline {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Offline{db: db, driverID: driverID, maxAttempts: maxAttempts}
}

// Enqueue persists an update. The payload is marshalled once, at capture
// time, so later sync sends exactly what happened.
func (q *Offline) Enqueue(kind string, payload any) (int64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	id, err := q.db.EnqueueUpdate(q.driverID, kind, raw)
	if err != nil {
		return 0, fmt.Errorf("enqueue %s update: %w", kind, err)
	}
	return id, nil
}

// PeekBatch returns up to n unacked updates in insertion order, skipping
// items that have exhausted their attempts.
func (q *Offline) PeekBatch(n int) ([]*store.QueuedUpdate, error) {
	return q.db.ListPendingUpdates(q.driverID, q.maxAttempts, n)
}

// Acknowledge marks updates as accepted by the platform.
func (q *Offline) Acknowledge(ids ...int64) error {
	now := time.Now().UTC()
	for _, id := range ids {
		if err := q.db.AckUpdate(id, now); err != nil {
			return fmt.Errorf("ack update %d: %w", id, err)
		}
	}
	return nil
}

// Fail records a submission failure, counting toward exhaustion.
func (q *Offline) Fail(id int64, cause string) error {
	return q.db.RecordUpdateFailure(id, cause)
}

// Size is the number of updates still awaiting acknowledgement,
// exhausted items included.
func (q *Offline) Size() (int, error) {
	return q.db.CountPendingUpdates(q.driverID)
}

// Exhausted lists updates that have hit the attempt limit and now wait
// for an operator.
func (q *Offline) Exhausted() ([]*store.QueuedUpdate, error) {
	return q.db.ListExhaustedUpdates(q.driverID, q.maxAttempts)
}

// Retry puts an exhausted update back into rotation.
func (q *Offline) Retry(id int64) error {
	return q.db.ResetUpdateAttempts(id)
}

// Discard drops an update without submitting it.
func (q *Offline) Discard(id int64) error {
	return q.db.DeleteUpdate(id)
}

// Get fetches one update by id.
func (q *Offline) Get(id int64) (*store.QueuedUpdate, error) {
	return q.db.GetQueuedUpdate(id)
}
