package delivery

import (
	"courierd/location"
	"courierd/store"
)

// EventEmitter is the interface the delivery engine uses to emit events.
type EventEmitter interface {
	EmitDeliveryAssigned(d *store.Delivery)
	EmitDeliveryStatusChanged(d *store.Delivery, oldStatus, newStatus string, loc *location.Update)
	EmitDeliveryCompleted(d *store.Delivery)
}
