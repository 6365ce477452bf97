// Package engine wires the subsystems together and runs the event chain
// between them.
package engine

import (
	"context"
	"log"
	"time"

	"courierd/breaker"
	"courierd/config"
	"courierd/delivery"
	"courierd/location"
	"courierd/messaging"
	"courierd/partner"
	"courierd/platform"
	"courierd/presence"
	"courierd/queue"
	"courierd/shift"
	"courierd/store"
)

// LogFunc is the logging callback signature.
type LogFunc func(format string, args ...interface{})

// Engine centralizes all business logic and orchestrates subsystems.
type Engine struct {
	cfg        *config.Config
	configPath string
	db         *store.DB
	logFn      LogFunc
	debugFn    LogFunc

	tracker     *location.Tracker
	shiftMgr    *shift.Manager
	deliveryEng *delivery.Engine
	offline     *queue.Offline
	coordinator *queue.Coordinator
	reporter    *partner.EventReporter
	breakers    *breaker.Registry
	mirror      *presence.Mirror
	telemetry   *messaging.TelemetryReporter

	lastLocationEnqueue time.Time

	Events   *EventBus
	stopChan chan struct{}
}

// Config holds the parameters needed to create an Engine.
type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	Source     location.Source
	LogFunc    LogFunc
	Debug      bool
}

// New creates a new Engine. Call Start() to initialize and wire subsystems.
func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = func(string, ...interface{}) {}
	}
	debugFn := LogFunc(func(string, ...interface{}) {})
	if c.Debug {
		debugFn = logFn
	}
	e := &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		logFn:      logFn,
		debugFn:    debugFn,
		Events:     NewEventBus(),
		stopChan:   make(chan struct{}),
	}
	e.tracker = location.NewTracker(c.AppConfig.DriverID, c.AppConfig.Tracking, c.Source, &locationEmitter{bus: e.Events})
	return e
}

// AttachTelemetry connects the broker reporter. Must be called before Start.
func (e *Engine) AttachTelemetry(t *messaging.TelemetryReporter) {
	e.telemetry = t
}

// Start creates all managers, wires event handlers, and starts subsystems.
func (e *Engine) Start() error {
	cfg := e.cfg

	e.offline = queue.NewOffline(e.db, cfg.DriverID, cfg.Sync.MaxAttempts)
	e.shiftMgr = shift.NewManager(e.db, &shiftEmitter{bus: e.Events}, e.offline, cfg.DriverID)
	e.deliveryEng = delivery.NewEngine(e.db, &deliveryEmitter{bus: e.Events}, e.offline, cfg.DriverID)

	platformClient := platform.NewClient(cfg.Platform)
	e.coordinator = queue.NewCoordinator(e.offline, platformClient, &syncEmitter{bus: e.Events}, &cfg.Sync)

	e.breakers = breaker.NewRegistry(breaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Cooldown:         cfg.Breaker.Cooldown,
		MaxCooldown:      cfg.Breaker.MaxCooldown,
	})
	e.reporter = partner.NewEventReporter(partner.NewRouter(cfg.Partners), e.breakers, e.courierIdentity())

	e.mirror = presence.NewMirror(&cfg.Presence, cfg.DriverID)

	if err := e.shiftMgr.Restore(); err != nil {
		log.Printf("engine: restore shift: %v", err)
	}

	e.wireEventHandlers()

	e.coordinator.Start()

	e.logFn("Engine started: fleet=%s driver=%s partners=%d", cfg.FleetID, cfg.DriverID, len(cfg.Partners))
	return nil
}

// Stop shuts down all subsystems gracefully.
func (e *Engine) Stop() {
	select {
	case <-e.stopChan:
	default:
		close(e.stopChan)
	}

	if e.tracker != nil {
		e.tracker.Stop()
	}
	if e.coordinator != nil {
		e.coordinator.Stop()
	}
	if e.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := e.mirror.Clear(ctx); err != nil {
			log.Printf("engine: clear presence: %v", err)
		}
		cancel()
		e.mirror.Close()
	}

	e.logFn("Engine stopped")
}

// courierIdentity builds the partner-facing courier from the driver row.
func (e *Engine) courierIdentity() partner.Courier {
	d, err := e.db.GetDriver(e.cfg.DriverID)
	if err != nil || d == nil {
		return partner.Courier{ID: e.cfg.DriverID, Name: e.cfg.DriverID}
	}
	return partner.Courier{ID: d.ID, Name: d.Name, Phone: d.Phone, Vehicle: d.Vehicle}
}

// DB returns the database handle.
func (e *Engine) DB() *store.DB { return e.db }

// AppConfig returns the app config.
func (e *Engine) AppConfig() *config.Config { return e.cfg }

// ConfigPath returns the config file path.
func (e *Engine) ConfigPath() string { return e.configPath }

// Tracker returns the location tracker.
func (e *Engine) Tracker() *location.Tracker { return e.tracker }

// Shifts returns the shift manager.
func (e *Engine) Shifts() *shift.Manager { return e.shiftMgr }

// Deliveries returns the delivery engine.
func (e *Engine) Deliveries() *delivery.Engine { return e.deliveryEng }

// Queue returns the offline queue.
func (e *Engine) Queue() *queue.Offline { return e.offline }

// Coordinator returns the sync coordinator.
func (e *Engine) Coordinator() *queue.Coordinator { return e.coordinator }

// Breakers returns the partner circuit breaker registry.
func (e *Engine) Breakers() *breaker.Registry { return e.breakers }
