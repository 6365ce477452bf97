package messaging

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// DriverRegister announces the agent to the fleet broker on startup.
type DriverRegister struct {
	Type     string `json:"type"`
	FleetID  string `json:"fleetId"`
	DriverID string `json:"driverId"`
	Hostname string `json:"hostname"`
	Version  string `json:"version"`
}

// DriverHeartbeat is the periodic liveness message.
type DriverHeartbeat struct {
	Type     string `json:"type"`
	FleetID  string `json:"fleetId"`
	DriverID string `json:"driverId"`
	Uptime   int64  `json:"uptime"`
	Pending  int    `json:"pendingUpdates"`
	OnShift  bool   `json:"onShift"`
}

// StatusFn supplies the live fields of a heartbeat.
type StatusFn func() (pending int, onShift bool)

// Heartbeater sends a register message on startup and heartbeats
// periodically. Failures are logged and dropped.
type Heartbeater struct {
	client    *Client
	fleetID   string
	driverID  string
	version   string
	topic     string
	interval  time.Duration
	status    StatusFn
	startTime time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewHeartbeater creates a heartbeater for the given driver identity.
func NewHeartbeater(client *Client, fleetID, driverID, version, eventsTopic string, interval time.Duration, status StatusFn) *Heartbeater {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Heartbeater{
		client:   client,
		fleetID:  fleetID,
		driverID: driverID,
		version:  version,
		topic:    eventsTopic,
		interval: interval,
		status:   status,
		stopCh:   make(chan struct{}),
	}
}

// Start sends an initial registration and begins the heartbeat loop.
func (h *Heartbeater) Start() {
	h.startTime = time.Now()
	h.sendRegister()
	go h.loop()
}

// Stop halts the heartbeat loop.
func (h *Heartbeater) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Heartbeater) sendRegister() {
	hostname, _ := os.Hostname()
	data, err := json.Marshal(DriverRegister{
		Type:     "driver.register",
		FleetID:  h.fleetID,
		DriverID: h.driverID,
		Hostname: hostname,
		Version:  h.version,
	})
	if err != nil {
		log.Printf("heartbeater: build register: %v", err)
		return
	}
	if err := h.client.Publish(h.topic, data); err != nil {
		log.Printf("heartbeater: send register: %v", err)
	} else {
		log.Printf("heartbeater: sent driver.register (driver=%s)", h.driverID)
	}
}

func (h *Heartbeater) sendHeartbeat() {
	var pending int
	var onShift bool
	if h.status != nil {
		pending, onShift = h.status()
	}
	data, err := json.Marshal(DriverHeartbeat{
		Type:     "driver.heartbeat",
		FleetID:  h.fleetID,
		DriverID: h.driverID,
		Uptime:   int64(time.Since(h.startTime).Seconds()),
		Pending:  pending,
		OnShift:  onShift,
	})
	if err != nil {
		log.Printf("heartbeater: build heartbeat: %v", err)
		return
	}
	if err := h.client.Publish(h.topic, data); err != nil {
		log.Printf("heartbeater: send heartbeat: %v", err)
	}
}

func (h *Heartbeater) loop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.sendHeartbeat()
		}
	}
}
