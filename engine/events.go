package engine

import (
	"time"

	"courierd/location"
	"courierd/store"
)

// EventType identifies the kind of event emitted by the Engine.
type EventType int

const (
	// Location events
	EventLocationUpdated EventType = iota + 1
	EventTrackingError

	// Shift events
	EventShiftStarted
	EventShiftEnded
	EventBreakStarted
	EventBreakEnded

	// Delivery events
	EventDeliveryAssigned
	EventDeliveryStatusChanged
	EventDeliveryCompleted

	// Sync events
	EventUpdateSynced
	EventSyncStateChanged
)

// Event is the envelope emitted by the Engine's EventBus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   interface{}
}

// LocationUpdatedEvent is emitted on every accepted fix.
type LocationUpdatedEvent struct {
	Update location.Update
}

// TrackingErrorEvent is emitted when a fix is rejected or sampling fails.
type TrackingErrorEvent struct {
	Error string
}

// ShiftEvent is emitted on shift lifecycle transitions.
type ShiftEvent struct {
	Shift *store.Shift
}

// DeliveryAssignedEvent is emitted when a delivery is accepted locally.
type DeliveryAssignedEvent struct {
	Delivery *store.Delivery
}

// DeliveryStatusChangedEvent is emitted on delivery state transitions.
type DeliveryStatusChangedEvent struct {
	Delivery  *store.Delivery
	OldStatus string
	NewStatus string
	Location  *location.Update
}

// DeliveryCompletedEvent is emitted when a delivery reaches terminal state.
type DeliveryCompletedEvent struct {
	Delivery *store.Delivery
}

// UpdateSyncedEvent is emitted when the platform acknowledges an update.
type UpdateSyncedEvent struct {
	Update *store.QueuedUpdate
}

// SyncStateChangedEvent is emitted when platform reachability flips.
type SyncStateChangedEvent struct {
	Online bool
}
