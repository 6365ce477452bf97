package store

import (
	"fmt"
	"time"
)

// Queue update kinds.
const (
	UpdateKindLocation     = "location"
	UpdateKindStatusChange = "statusChange"
	UpdateKindShiftEvent   = "shiftEvent"
)

// QueuedUpdate is one pending mutation awaiting server acknowledgment.
type QueuedUpdate struct {
	ID        int64      `json:"id"`
	DriverID  string     `json:"driver_id"`
	Kind      string     `json:"kind"`
	Payload   []byte     `json:"payload"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	AckedAt   *time.Time `json:"acked_at,omitempty"`
}

func (db *DB) EnqueueUpdate(driverID, kind string, payload []byte) (int64, error) {
	if db.driver == "postgres" {
		var id int64
		err := db.QueryRow(db.Q(`INSERT INTO queued_updates (driver_id, kind, payload) VALUES (?, ?, ?) RETURNING id`),
			driverID, kind, string(payload)).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("enqueue update: %w", err)
		}
		return id, nil
	}
	res, err := db.Exec(`INSERT INTO queued_updates (driver_id, kind, payload) VALUES (?, ?, ?)`,
		driverID, kind, string(payload))
	if err != nil {
		return 0, fmt.Errorf("enqueue update: %w", err)
	}
	return res.LastInsertId()
}

func scanQueuedUpdates(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*QueuedUpdate, error) {
	var updates []*QueuedUpdate
	for rows.Next() {
		var u QueuedUpdate
		var payload string
		var createdAt, ackedAt any
		if err := rows.Scan(&u.ID, &u.DriverID, &u.Kind, &payload, &u.Attempts, &u.LastError, &createdAt, &ackedAt); err != nil {
			return nil, err
		}
		u.Payload = []byte(payload)
		u.CreatedAt = parseTime(createdAt)
		u.AckedAt = parseTimePtr(ackedAt)
		updates = append(updates, &u)
	}
	return updates, rows.Err()
}

const queueSelectCols = `id, driver_id, kind, payload, attempts, last_error, created_at, acked_at`

// ListPendingUpdates returns unacknowledged updates in FIFO order, skipping
// items that have exhausted their attempt budget.
func (db *DB) ListPendingUpdates(driverID string, maxAttempts, limit int) ([]*QueuedUpdate, error) {
	rows, err := db.Query(db.Q(`SELECT `+queueSelectCols+` FROM queued_updates WHERE driver_id = ? AND acked_at IS NULL AND attempts < ? ORDER BY id LIMIT ?`),
		driverID, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending updates: %w", err)
	}
	defer rows.Close()
	return scanQueuedUpdates(rows)
}

// ListExhaustedUpdates returns unacknowledged updates past the attempt budget.
func (db *DB) ListExhaustedUpdates(driverID string, maxAttempts int) ([]*QueuedUpdate, error) {
	rows, err := db.Query(db.Q(`SELECT `+queueSelectCols+` FROM queued_updates WHERE driver_id = ? AND acked_at IS NULL AND attempts >= ? ORDER BY id`),
		driverID, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("list exhausted updates: %w", err)
	}
	defer rows.Close()
	return scanQueuedUpdates(rows)
}

func (db *DB) AckUpdate(id int64, at time.Time) error {
	_, err := db.Exec(db.Q(`UPDATE queued_updates SET acked_at = ? WHERE id = ?`), at, id)
	return err
}

func (db *DB) RecordUpdateFailure(id int64, lastError string) error {
	_, err := db.Exec(db.Q(`UPDATE queued_updates SET attempts = attempts + 1, last_error = ? WHERE id = ?`), lastError, id)
	return err
}

// ResetUpdateAttempts returns an exhausted item to the automatic retry pool.
func (db *DB) ResetUpdateAttempts(id int64) error {
	_, err := db.Exec(db.Q(`UPDATE queued_updates SET attempts = 0, last_error = '' WHERE id = ?`), id)
	return err
}

// DeleteUpdate discards a queued item. Only used for explicit operator action.
func (db *DB) DeleteUpdate(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM queued_updates WHERE id = ?`), id)
	return err
}

func (db *DB) CountPendingUpdates(driverID string) (int, error) {
	var n int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM queued_updates WHERE driver_id = ? AND acked_at IS NULL`), driverID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending updates: %w", err)
	}
	return n, nil
}

func (db *DB) GetQueuedUpdate(id int64) (*QueuedUpdate, error) {
	rows, err := db.Query(db.Q(`SELECT `+queueSelectCols+` FROM queued_updates WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("get queued update: %w", err)
	}
	defer rows.Close()
	updates, err := scanQueuedUpdates(rows)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, nil
	}
	return updates[0], nil
}
