package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Delivery is one order's physical fulfillment lifecycle.
type Delivery struct {
	ID             string     `json:"id"`
	DriverID       string     `json:"driver_id"`
	OrderNumber    string     `json:"order_number"`
	Status         string     `json:"status"`
	PickupAddress  string     `json:"pickup_address"`
	PickupLat      float64    `json:"pickup_lat"`
	PickupLng      float64    `json:"pickup_lng"`
	DropoffAddress string     `json:"dropoff_address"`
	DropoffLat     float64    `json:"dropoff_lat"`
	DropoffLng     float64    `json:"dropoff_lng"`
	ETA            *time.Time `json:"eta,omitempty"`
	Archived       bool       `json:"archived"`
	AssignedAt     time.Time  `json:"assigned_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RoutePoint is one location fix recorded against a delivery.
type RoutePoint struct {
	ID         int64     `json:"id"`
	DeliveryID string    `json:"delivery_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracy_m"`
	SpeedKmh   float64   `json:"speed_kmh"`
	Heading    float64   `json:"heading"`
	IsMoving   bool      `json:"is_moving"`
	CapturedAt time.Time `json:"captured_at"`
}

const deliverySelectCols = `id, driver_id, order_number, status, pickup_address, pickup_lat, pickup_lng, dropoff_address, dropoff_lat, dropoff_lng, eta, archived, assigned_at, updated_at`

func scanDelivery(row interface{ Scan(...any) error }) (*Delivery, error) {
	var d Delivery
	var eta, assignedAt, updatedAt, archived any
	err := row.Scan(&d.ID, &d.DriverID, &d.OrderNumber, &d.Status,
		&d.PickupAddress, &d.PickupLat, &d.PickupLng,
		&d.DropoffAddress, &d.DropoffLat, &d.DropoffLng,
		&eta, &archived, &assignedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	d.ETA = parseTimePtr(eta)
	d.Archived = parseBool(archived)
	d.AssignedAt = parseTime(assignedAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

func scanDeliveries(rows *sql.Rows) ([]*Delivery, error) {
	var deliveries []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

func (db *DB) CreateDelivery(d *Delivery) error {
	_, err := db.Exec(db.Q(`INSERT INTO deliveries (id, driver_id, order_number, status, pickup_address, pickup_lat, pickup_lng, dropoff_address, dropoff_lat, dropoff_lng, assigned_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		d.ID, d.DriverID, d.OrderNumber, d.Status,
		d.PickupAddress, d.PickupLat, d.PickupLng,
		d.DropoffAddress, d.DropoffLat, d.DropoffLng,
		d.AssignedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create delivery: %w", err)
	}
	return nil
}

func (db *DB) GetDelivery(id string) (*Delivery, error) {
	row := db.QueryRow(db.Q(`SELECT `+deliverySelectCols+` FROM deliveries WHERE id = ?`), id)
	d, err := scanDelivery(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return d, nil
}

func (db *DB) UpdateDeliveryStatus(id, status string, updatedAt time.Time) error {
	_, err := db.Exec(db.Q(`UPDATE deliveries SET status = ?, updated_at = ? WHERE id = ?`), status, updatedAt, id)
	return err
}

func (db *DB) SetDeliveryETA(id string, eta time.Time) error {
	_, err := db.Exec(db.Q(`UPDATE deliveries SET eta = ? WHERE id = ?`), eta, id)
	return err
}

// ArchiveDelivery flags a terminal delivery; rows are never deleted.
func (db *DB) ArchiveDelivery(id string) error {
	_, err := db.Exec(db.Q(`UPDATE deliveries SET archived = ? WHERE id = ?`), true, id)
	return err
}

func (db *DB) ListActiveDeliveries(driverID string) ([]*Delivery, error) {
	rows, err := db.Query(db.Q(`SELECT `+deliverySelectCols+` FROM deliveries WHERE driver_id = ? AND archived = ? ORDER BY assigned_at`), driverID, false)
	if err != nil {
		return nil, fmt.Errorf("list active deliveries: %w", err)
	}
	defer rows.Close()
	return scanDeliveries(rows)
}

func (db *DB) AppendRoutePoint(p *RoutePoint) error {
	_, err := db.Exec(db.Q(`INSERT INTO route_points (delivery_id, lat, lng, accuracy_m, speed_kmh, heading, is_moving, captured_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.DeliveryID, p.Lat, p.Lng, p.AccuracyM, p.SpeedKmh, p.Heading, p.IsMoving, p.CapturedAt)
	if err != nil {
		return fmt.Errorf("append route point: %w", err)
	}
	return nil
}

func (db *DB) ListRoute(deliveryID string) ([]RoutePoint, error) {
	rows, err := db.Query(db.Q(`SELECT id, delivery_id, lat, lng, accuracy_m, speed_kmh, heading, is_moving, captured_at FROM route_points WHERE delivery_id = ? ORDER BY id`), deliveryID)
	if err != nil {
		return nil, fmt.Errorf("list route: %w", err)
	}
	defer rows.Close()
	var points []RoutePoint
	for rows.Next() {
		var p RoutePoint
		var isMoving, capturedAt any
		if err := rows.Scan(&p.ID, &p.DeliveryID, &p.Lat, &p.Lng, &p.AccuracyM, &p.SpeedKmh, &p.Heading, &isMoving, &capturedAt); err != nil {
			return nil, err
		}
		p.IsMoving = parseBool(isMoving)
		p.CapturedAt = parseTime(capturedAt)
		points = append(points, p)
	}
	return points, rows.Err()
}
