package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Shift is one continuous duty period for a driver.
type Shift struct {
	ID              string          `json:"id"`
	DriverID        string          `json:"driver_id"`
	Status          string          `json:"status"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	StartLat        float64         `json:"start_lat"`
	StartLng        float64         `json:"start_lng"`
	TotalDistanceKm float64         `json:"total_distance_km"`
	DeliveryCount   int             `json:"delivery_count"`
	Metadata        string          `json:"metadata"`
	Breaks          []BreakInterval `json:"breaks,omitempty"`
}

// BreakInterval is one break within a shift. At most one may be open.
type BreakInterval struct {
	ID        int64      `json:"id"`
	ShiftID   string     `json:"shift_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

const shiftSelectCols = `id, driver_id, status, start_time, end_time, start_lat, start_lng, total_distance_km, delivery_count, metadata`

func scanShift(row interface{ Scan(...any) error }) (*Shift, error) {
	var s Shift
	var startTime, endTime any
	err := row.Scan(&s.ID, &s.DriverID, &s.Status, &startTime, &endTime,
		&s.StartLat, &s.StartLng, &s.TotalDistanceKm, &s.DeliveryCount, &s.Metadata)
	if err != nil {
		return nil, err
	}
	s.StartTime = parseTime(startTime)
	s.EndTime = parseTimePtr(endTime)
	return &s, nil
}

func (db *DB) CreateShift(s *Shift) error {
	_, err := db.Exec(db.Q(`INSERT INTO shifts (id, driver_id, status, start_time, start_lat, start_lng, metadata) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.DriverID, s.Status, s.StartTime, s.StartLat, s.StartLng, s.Metadata)
	if err != nil {
		return fmt.Errorf("create shift: %w", err)
	}
	return nil
}

func (db *DB) GetShift(id string) (*Shift, error) {
	row := db.QueryRow(db.Q(`SELECT `+shiftSelectCols+` FROM shifts WHERE id = ?`), id)
	s, err := scanShift(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get shift: %w", err)
	}
	s.Breaks, err = db.ListBreaks(s.ID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetActiveShift returns the driver's non-ended shift, or nil.
func (db *DB) GetActiveShift(driverID string) (*Shift, error) {
	row := db.QueryRow(db.Q(`SELECT `+shiftSelectCols+` FROM shifts WHERE driver_id = ? AND status != 'ended' ORDER BY start_time DESC LIMIT 1`), driverID)
	s, err := scanShift(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get active shift: %w", err)
	}
	s.Breaks, err = db.ListBreaks(s.ID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) UpdateShiftStatus(id, status string) error {
	_, err := db.Exec(db.Q(`UPDATE shifts SET status = ? WHERE id = ?`), status, id)
	return err
}

func (db *DB) EndShiftRow(id string, endTime time.Time) error {
	_, err := db.Exec(db.Q(`UPDATE shifts SET status = 'ended', end_time = ? WHERE id = ?`), endTime, id)
	return err
}

func (db *DB) AddShiftDistance(id string, km float64) error {
	_, err := db.Exec(db.Q(`UPDATE shifts SET total_distance_km = total_distance_km + ? WHERE id = ?`), km, id)
	return err
}

func (db *DB) IncrementShiftDeliveries(id string) error {
	_, err := db.Exec(db.Q(`UPDATE shifts SET delivery_count = delivery_count + 1 WHERE id = ?`), id)
	return err
}

func (db *DB) StartBreakRow(shiftID string, start time.Time) error {
	_, err := db.Exec(db.Q(`INSERT INTO shift_breaks (shift_id, start_time) VALUES (?, ?)`), shiftID, start)
	return err
}

func (db *DB) EndBreakRow(shiftID string, end time.Time) error {
	_, err := db.Exec(db.Q(`UPDATE shift_breaks SET end_time = ? WHERE shift_id = ? AND end_time IS NULL`), end, shiftID)
	return err
}

func (db *DB) ListBreaks(shiftID string) ([]BreakInterval, error) {
	rows, err := db.Query(db.Q(`SELECT id, shift_id, start_time, end_time FROM shift_breaks WHERE shift_id = ? ORDER BY id`), shiftID)
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}
	defer rows.Close()
	var breaks []BreakInterval
	for rows.Next() {
		var b BreakInterval
		var start, end any
		if err := rows.Scan(&b.ID, &b.ShiftID, &start, &end); err != nil {
			return nil, err
		}
		b.StartTime = parseTime(start)
		b.EndTime = parseTimePtr(end)
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

// OpenBreak returns the shift's unclosed break, or nil.
func (db *DB) OpenBreak(shiftID string) (*BreakInterval, error) {
	breaks, err := db.ListBreaks(shiftID)
	if err != nil {
		return nil, err
	}
	for i := range breaks {
		if breaks[i].EndTime == nil {
			return &breaks[i], nil
		}
	}
	return nil, nil
}
