package messaging

import (
	"encoding/json"
	"log"
	"time"

	"courierd/location"
)

// TelemetryPing is a live location sample on the telemetry topic.
type TelemetryPing struct {
	Type       string    `json:"type"`
	FleetID    string    `json:"fleetId"`
	DriverID   string    `json:"driverId"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SpeedKmh   float64   `json:"speedKmh"`
	Heading    float64   `json:"heading"`
	IsMoving   bool      `json:"isMoving"`
	CapturedAt time.Time `json:"capturedAt"`
}

// StatusEvent is a delivery or shift event on the events topic.
type StatusEvent struct {
	Type       string    `json:"type"`
	FleetID    string    `json:"fleetId"`
	DriverID   string    `json:"driverId"`
	DeliveryID string    `json:"deliveryId,omitempty"`
	ShiftID    string    `json:"shiftId,omitempty"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurredAt"`
}

// TelemetryReporter mirrors location fixes and status events to the
// broker so dispatch can watch in near real time. Lost messages are
// fine; the offline queue is the durable record.
type TelemetryReporter struct {
	client         *Client
	fleetID        string
	driverID       string
	telemetryTopic string
	eventsTopic    string
}

// NewTelemetryReporter creates a reporter for the given driver identity.
func NewTelemetryReporter(client *Client, fleetID, driverID, telemetryTopic, eventsTopic string) *TelemetryReporter {
	return &TelemetryReporter{
		client:         client,
		fleetID:        fleetID,
		driverID:       driverID,
		telemetryTopic: telemetryTopic,
		eventsTopic:    eventsTopic,
	}
}

// ReportLocation publishes one fix. Drops silently when disconnected.
func (r *TelemetryReporter) ReportLocation(u *location.Update) {
	if !r.client.IsConnected() {
		return
	}
	data, err := json.Marshal(TelemetryPing{
		Type:       "driver.location",
		FleetID:    r.fleetID,
		DriverID:   r.driverID,
		Lat:        u.Lat,
		Lng:        u.Lng,
		SpeedKmh:   u.SpeedKmh,
		Heading:    u.Heading,
		IsMoving:   u.IsMoving,
		CapturedAt: u.CapturedAt,
	})
	if err != nil {
		log.Printf("telemetry: build location ping: %v", err)
		return
	}
	if err := r.client.Publish(r.telemetryTopic, data); err != nil {
		log.Printf("telemetry: publish location: %v", err)
	}
}

// ReportDeliveryEvent publishes a delivery status change.
func (r *TelemetryReporter) ReportDeliveryEvent(deliveryID, detail string, at time.Time) {
	r.publishEvent(StatusEvent{
		Type:       "driver.delivery",
		FleetID:    r.fleetID,
		DriverID:   r.driverID,
		DeliveryID: deliveryID,
		Detail:     detail,
		OccurredAt: at,
	})
}

// ReportShiftEvent publishes a shift lifecycle event.
func (r *TelemetryReporter) ReportShiftEvent(shiftID, detail string, at time.Time) {
	r.publishEvent(StatusEvent{
		Type:       "driver.shift",
		FleetID:    r.fleetID,
		DriverID:   r.driverID,
		ShiftID:    shiftID,
		Detail:     detail,
		OccurredAt: at,
	})
}

func (r *TelemetryReporter) publishEvent(ev StatusEvent) {
	if !r.client.IsConnected() {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("telemetry: build event: %v", err)
		return
	}
	if err := r.client.Publish(r.eventsTopic, data); err != nil {
		log.Printf("telemetry: publish event: %v", err)
	}
}
