package engine

import (
	"courierd/location"
	"courierd/store"
)

// locationEmitter adapts the engine's EventBus to the location.EventEmitter interface.
type locationEmitter struct {
	bus *EventBus
}

func (e *locationEmitter) EmitLocationUpdated(u location.Update) {
	e.bus.Emit(Event{Type: EventLocationUpdated, Payload: LocationUpdatedEvent{Update: u}})
}

func (e *locationEmitter) EmitTrackingError(err error) {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	e.bus.Emit(Event{Type: EventTrackingError, Payload: TrackingErrorEvent{Error: errStr}})
}

// shiftEmitter adapts the engine's EventBus to the shift.EventEmitter interface.
type shiftEmitter struct {
	bus *EventBus
}

func (e *shiftEmitter) EmitShiftStarted(s *store.Shift) {
	e.bus.Emit(Event{Type: EventShiftStarted, Payload: ShiftEvent{Shift: s}})
}

func (e *shiftEmitter) EmitShiftEnded(s *store.Shift) {
	e.bus.Emit(Event{Type: EventShiftEnded, Payload: ShiftEvent{Shift: s}})
}

func (e *shiftEmitter) EmitBreakStarted(s *store.Shift) {
	e.bus.Emit(Event{Type: EventBreakStarted, Payload: ShiftEvent{Shift: s}})
}

func (e *shiftEmitter) EmitBreakEnded(s *store.Shift) {
	e.bus.Emit(Event{Type: EventBreakEnded, Payload: ShiftEvent{Shift: s}})
}

// deliveryEmitter adapts the engine's EventBus to the delivery.EventEmitter interface.
type deliveryEmitter struct {
	bus *EventBus
}

func (e *deliveryEmitter) EmitDeliveryAssigned(d *store.Delivery) {
	e.bus.Emit(Event{Type: EventDeliveryAssigned, Payload: DeliveryAssignedEvent{Delivery: d}})
}

func (e *deliveryEmitter) EmitDeliveryStatusChanged(d *store.Delivery, oldStatus, newStatus string, loc *location.Update) {
	e.bus.Emit(Event{Type: EventDeliveryStatusChanged, Payload: DeliveryStatusChangedEvent{
		Delivery: d, OldStatus: oldStatus, NewStatus: newStatus, Location: loc,
	}})
}

func (e *deliveryEmitter) EmitDeliveryCompleted(d *store.Delivery) {
	e.bus.Emit(Event{Type: EventDeliveryCompleted, Payload: DeliveryCompletedEvent{Delivery: d}})
}

// syncEmitter adapts the engine's EventBus to the queue.EventEmitter interface.
type syncEmitter struct {
	bus *EventBus
}

func (e *syncEmitter) EmitUpdateSynced(u *store.QueuedUpdate) {
	e.bus.Emit(Event{Type: EventUpdateSynced, Payload: UpdateSyncedEvent{Update: u}})
}

func (e *syncEmitter) EmitSyncStateChanged(online bool) {
	e.bus.Emit(Event{Type: EventSyncStateChanged, Payload: SyncStateChangedEvent{Online: online}})
}
