package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Driver is a courier known to this agent.
type Driver struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Vehicle      string    `json:"vehicle,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (db *DB) CreateDriver(d *Driver) error {
	_, err := db.Exec(db.Q(`INSERT INTO drivers (id, name, phone, vehicle, password_hash) VALUES (?, ?, ?, ?, ?)`),
		d.ID, d.Name, d.Phone, d.Vehicle, d.PasswordHash)
	if err != nil {
		return fmt.Errorf("create driver: %w", err)
	}
	return nil
}

func (db *DB) GetDriver(id string) (*Driver, error) {
	row := db.QueryRow(db.Q(`SELECT id, name, phone, vehicle, password_hash, created_at FROM drivers WHERE id = ?`), id)
	var d Driver
	var createdAt any
	if err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.Vehicle, &d.PasswordHash, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver: %w", err)
	}
	d.CreatedAt = parseTime(createdAt)
	return &d, nil
}

func (db *DB) UpdateDriverPassword(id, hash string) error {
	_, err := db.Exec(db.Q(`UPDATE drivers SET password_hash = ? WHERE id = ?`), hash, id)
	return err
}
