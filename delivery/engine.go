package delivery

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"courierd/location"
	"courierd/store"
)

// Enqueuer appends a mutation to the offline queue.
type Enqueuer interface {
	Enqueue(kind string, payload any) (int64, error)
}

// StatusChangePayload is the queued form of a status transition.
type StatusChangePayload struct {
	DeliveryID  string           `json:"delivery_id"`
	OrderNumber string           `json:"order_number"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	OccurredAt  time.Time        `json:"occurred_at"`
	Location    *location.Update `json:"location,omitempty"`
}

// AssignRequest describes an order handed to this driver.
type AssignRequest struct {
	OrderNumber    string
	PickupAddress  string
	PickupLat      float64
	PickupLng      float64
	DropoffAddress string
	DropoffLat     float64
	DropoffLng     float64
	ETA            *time.Time
}

// Engine owns delivery state. All mutations go through validated status
// transitions; nothing else writes delivery rows.
type Engine struct {
	mu       sync.Mutex
	db       *store.DB
	emitter  EventEmitter
	queue    Enqueuer
	driverID string
	now      func() time.Time
}

// NewEngine creates the delivery status engine for one driver.
func NewEngine(db *store.DB, emitter EventEmitter, queue Enqueuer, driverID string) *Engine {
	return &Engine{
		db:       db,
		emitter:  emitter,
		queue:    queue,
		driverID: driverID,
		now:      time.Now,
	}
}

// Assign creates a new delivery in the Assigned status.
func (e *Engine) Assign(req AssignRequest) (*store.Delivery, error) {
	if req.OrderNumber == "" {
		return nil, fmt.Errorf("%w: empty order number", ErrValidation)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	d := &store.Delivery{
		ID:             uuid.NewString(),
		DriverID:       e.driverID,
		OrderNumber:    req.OrderNumber,
		Status:         StatusAssigned,
		PickupAddress:  req.PickupAddress,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DropoffAddress: req.DropoffAddress,
		DropoffLat:     req.DropoffLat,
		DropoffLng:     req.DropoffLng,
		ETA:            req.ETA,
		AssignedAt:     now,
		UpdatedAt:      now,
	}
	if err := e.db.CreateDelivery(d); err != nil {
		return nil, err
	}
	if req.ETA != nil {
		if err := e.db.SetDeliveryETA(d.ID, *req.ETA); err != nil {
			log.Printf("delivery: set eta for %s: %v", d.ID, err)
		}
	}
	e.emitter.EmitDeliveryAssigned(d)
	return d, nil
}

// Transition advances a delivery to target. Resubmitting the current
// status is a no-op success. Any transition outside the table returns
// *InvalidTransitionError and leaves the delivery unchanged.
func (e *Engine) Transition(deliveryID, target string, loc *location.Update) (*store.Delivery, error) {
	if !ValidStatus(target) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	d, err := e.db.GetDelivery(deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}

	// Duplicate client call: accept without mutating anything.
	if d.Status == target {
		return d, nil
	}
	if !CanTransition(d.Status, target) {
		return nil, &InvalidTransitionError{From: d.Status, To: target}
	}

	now := e.now()
	oldStatus := d.Status

	if loc != nil {
		if err := e.db.AppendRoutePoint(&store.RoutePoint{
			DeliveryID: d.ID,
			Lat:        loc.Lat,
			Lng:        loc.Lng,
			AccuracyM:  loc.AccuracyM,
			SpeedKmh:   loc.SpeedKmh,
			Heading:    loc.Heading,
			IsMoving:   loc.IsMoving,
			CapturedAt: loc.CapturedAt,
		}); err != nil {
			log.Printf("delivery: append route point for %s: %v", d.ID, err)
		}
	}

	if err := e.db.UpdateDeliveryStatus(d.ID, target, now); err != nil {
		return nil, err
	}
	d.Status = target
	d.UpdatedAt = now

	if IsTerminal(target) {
		if err := e.db.ArchiveDelivery(d.ID); err != nil {
			log.Printf("delivery: archive %s: %v", d.ID, err)
		}
		d.Archived = true
	}

	if _, err := e.queue.Enqueue(store.UpdateKindStatusChange, StatusChangePayload{
		DeliveryID:  d.ID,
		OrderNumber: d.OrderNumber,
		From:        oldStatus,
		To:          target,
		OccurredAt:  now,
		Location:    loc,
	}); err != nil {
		log.Printf("delivery: enqueue status change for %s: %v", d.ID, err)
	}

	e.emitter.EmitDeliveryStatusChanged(d, oldStatus, target, loc)
	if IsTerminal(target) {
		e.emitter.EmitDeliveryCompleted(d)
	}
	return d, nil
}

// Get returns a delivery with its accumulated route.
func (e *Engine) Get(deliveryID string) (*store.Delivery, []store.RoutePoint, error) {
	d, err := e.db.GetDelivery(deliveryID)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, ErrNotFound
	}
	route, err := e.db.ListRoute(deliveryID)
	if err != nil {
		return nil, nil, err
	}
	return d, route, nil
}

// Active lists the driver's non-terminal deliveries.
func (e *Engine) Active() ([]*store.Delivery, error) {
	return e.db.ListActiveDeliveries(e.driverID)
}

// SetETA updates a delivery's estimated arrival.
func (e *Engine) SetETA(deliveryID string, eta time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.db.GetDelivery(deliveryID)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrNotFound
	}
	return e.db.SetDeliveryETA(deliveryID, eta)
}
