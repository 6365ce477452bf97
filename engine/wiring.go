package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"courierd/delivery"
	"courierd/location"
	"courierd/shift"
	"courierd/store"
)

// wireEventHandlers sets up the event chain:
// LocationUpdated → shift distance, throttled queue enqueue, presence, telemetry
// DeliveryStatusChanged → partner report, sync kick
// DeliveryCompleted → shift delivery count
// Shift events → presence, telemetry, sync kick
func (e *Engine) wireEventHandlers() {
	var locMu sync.Mutex

	e.Events.SubscribeTypes(func(evt Event) {
		upd := evt.Payload.(LocationUpdatedEvent).Update
		e.shiftMgr.RecordMovement(upd)

		cur := e.shiftMgr.Current()
		onShift := cur != nil && cur.Status != shift.StatusEnded

		if onShift {
			locMu.Lock()
			due := time.Since(e.lastLocationEnqueue) >= e.cfg.Tracking.EnqueueEvery
			if due {
				e.lastLocationEnqueue = time.Now()
			}
			locMu.Unlock()
			if due {
				if _, err := e.offline.Enqueue(store.UpdateKindLocation, upd); err != nil {
					log.Printf("engine: enqueue location: %v", err)
				}
			}
		}

		e.mirrorPosition(upd)
		if e.telemetry != nil {
			u := upd
			e.telemetry.ReportLocation(&u)
		}
	}, EventLocationUpdated)

	e.Events.SubscribeTypes(func(evt Event) {
		te := evt.Payload.(TrackingErrorEvent)
		e.debugFn("tracking: %s", te.Error)
	}, EventTrackingError)

	e.Events.SubscribeTypes(func(evt Event) {
		assigned := evt.Payload.(DeliveryAssignedEvent)
		d := assigned.Delivery
		go e.reporter.Report(d.OrderNumber, d.ID, delivery.StatusAssigned, nil)
		e.mirrorDeliveryCount()
	}, EventDeliveryAssigned)

	e.Events.SubscribeTypes(func(evt Event) {
		changed := evt.Payload.(DeliveryStatusChangedEvent)
		d := changed.Delivery
		go e.reporter.Report(d.OrderNumber, d.ID, changed.NewStatus, changed.Location)
		if e.telemetry != nil {
			e.telemetry.ReportDeliveryEvent(d.ID, changed.NewStatus, evt.Timestamp)
		}
		e.coordinator.Kick()
		e.mirrorDeliveryCount()
	}, EventDeliveryStatusChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		completed := evt.Payload.(DeliveryCompletedEvent)
		if completed.Delivery.Status == delivery.StatusDelivered {
			e.shiftMgr.RecordDelivery()
		}
	}, EventDeliveryCompleted)

	e.Events.SubscribeTypes(func(evt Event) {
		se := evt.Payload.(ShiftEvent)
		status := ""
		if evt.Type != EventShiftEnded {
			status = se.Shift.Status
		}
		e.mirrorShiftStatus(status)
		if e.telemetry != nil {
			e.telemetry.ReportShiftEvent(se.Shift.ID, shiftDetail(evt.Type), evt.Timestamp)
		}
		e.coordinator.Kick()
	}, EventShiftStarted, EventShiftEnded, EventBreakStarted, EventBreakEnded)

	e.Events.SubscribeTypes(func(evt Event) {
		synced := evt.Payload.(UpdateSyncedEvent)
		e.debugFn("synced update %d (%s)", synced.Update.ID, synced.Update.Kind)
	}, EventUpdateSynced)
}

func shiftDetail(t EventType) string {
	switch t {
	case EventShiftStarted:
		return shift.EventShiftStarted
	case EventShiftEnded:
		return shift.EventShiftEnded
	case EventBreakStarted:
		return shift.EventBreakStarted
	case EventBreakEnded:
		return shift.EventBreakEnded
	}
	return ""
}

func (e *Engine) mirrorPosition(upd location.Update) {
	if e.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.mirror.SetPosition(ctx, &upd); err != nil {
		e.debugFn("presence: set position: %v", err)
	}
}

func (e *Engine) mirrorShiftStatus(status string) {
	if e.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.mirror.SetShiftStatus(ctx, status); err != nil {
		e.debugFn("presence: set shift status: %v", err)
	}
}

func (e *Engine) mirrorDeliveryCount() {
	if e.mirror == nil {
		return
	}
	active, err := e.deliveryEng.Active()
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.mirror.SetActiveDeliveries(ctx, len(active)); err != nil {
		e.debugFn("presence: set delivery count: %v", err)
	}
}
