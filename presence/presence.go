// Package presence mirrors a driver's live state into redis so fleet
// dashboards can read it without touching the agent. Writes are best
// effort and keys expire if the agent goes silent.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"courierd/config"
	"courierd/location"
)

// Position is the presence copy of the latest location fix.
type Position struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SpeedKmh   float64   `json:"speedKmh"`
	Heading    float64   `json:"heading"`
	IsMoving   bool      `json:"isMoving"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Mirror writes driver presence keys.
type Mirror struct {
	client   *redis.Client
	driverID string
	ttl      time.Duration
}

// NewMirror connects the mirror. Returns nil when presence is disabled.
func NewMirror(cfg *config.PresenceConfig, driverID string) *Mirror {
	if !cfg.Enabled {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Mirror{
		client: redis.NewClient(&redis.Options{
			Addr: cfg.Addr,
			DB:   cfg.DB,
		}),
		driverID: driverID,
		ttl:      ttl,
	}
}

func positionKey(driverID string) string {
	return fmt.Sprintf("courierd:driver:%s:position", driverID)
}

func shiftKey(driverID string) string {
	return fmt.Sprintf("courierd:driver:%s:shift", driverID)
}

func deliveriesKey(driverID string) string {
	return fmt.Sprintf("courierd:driver:%s:deliveries", driverID)
}

const allDriversKey = "courierd:drivers"

// SetPosition publishes the latest fix.
func (m *Mirror) SetPosition(ctx context.Context, u *location.Update) error {
	data, err := json.Marshal(Position{
		Lat:        u.Lat,
		Lng:        u.Lng,
		SpeedKmh:   u.SpeedKmh,
		Heading:    u.Heading,
		IsMoving:   u.IsMoving,
		CapturedAt: u.CapturedAt,
	})
	if err != nil {
		return err
	}
	pipe := m.client.Pipeline()
	pipe.Set(ctx, positionKey(m.driverID), data, m.ttl)
	pipe.SAdd(ctx, allDriversKey, m.driverID)
	_, err = pipe.Exec(ctx)
	return err
}

// SetShiftStatus publishes the current shift status, empty for none.
func (m *Mirror) SetShiftStatus(ctx context.Context, status string) error {
	pipe := m.client.Pipeline()
	pipe.Set(ctx, shiftKey(m.driverID), status, m.ttl)
	pipe.SAdd(ctx, allDriversKey, m.driverID)
	_, err := pipe.Exec(ctx)
	return err
}

// SetActiveDeliveries publishes the number of in-flight deliveries.
func (m *Mirror) SetActiveDeliveries(ctx context.Context, n int) error {
	return m.client.Set(ctx, deliveriesKey(m.driverID), n, m.ttl).Err()
}

// GetPosition reads the mirrored fix, nil when absent or expired.
func (m *Mirror) GetPosition(ctx context.Context, driverID string) (*Position, error) {
	data, err := m.client.Get(ctx, positionKey(driverID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p Position
	return &p, json.Unmarshal(data, &p)
}

// Clear removes this driver's presence keys, e.g. on shutdown.
func (m *Mirror) Clear(ctx context.Context) error {
	pipe := m.client.Pipeline()
	pipe.Del(ctx, positionKey(m.driverID), shiftKey(m.driverID), deliveriesKey(m.driverID))
	pipe.SRem(ctx, allDriversKey, m.driverID)
	_, err := pipe.Exec(ctx)
	return err
}

// Close releases the redis connection.
func (m *Mirror) Close() error {
	return m.client.Close()
}
