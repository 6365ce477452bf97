package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courierd/config"
	"courierd/engine"
	"courierd/location"
	"courierd/messaging"
	"courierd/store"
	"courierd/www"
)

const version = "dev"

func main() {
	configPath := flag.String("config", "courierd.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *port > 0 {
		cfg.Web.Port = *port
	}

	// Open database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Geolocation source, fed by the device bridge. Readings older than
	// three sample intervals count as lost signal.
	source := location.NewBufferedSource(3 * cfg.Tracking.SampleRate)

	// Create engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		Source:     source,
		LogFunc:    log.Printf,
		Debug:      *debug,
	})

	// Set up messaging before Start so telemetry is wired into the
	// event chain.
	msgClient := messaging.NewClient(&cfg.Messaging, cfg.ClientID())
	if msgClient.Enabled() {
		defer msgClient.Close()
		if err := msgClient.Connect(); err != nil {
			log.Printf("messaging connect: %v (telemetry disabled)", err)
		} else {
			eng.AttachTelemetry(messaging.NewTelemetryReporter(
				msgClient, cfg.FleetID, cfg.DriverID,
				cfg.Messaging.TelemetryTopic, cfg.Messaging.EventsTopic))

			hb := messaging.NewHeartbeater(msgClient, cfg.FleetID, cfg.DriverID, version,
				cfg.Messaging.EventsTopic, cfg.Messaging.HeartbeatInterval,
				func() (int, bool) {
					q, s := eng.Queue(), eng.Shifts()
					if q == nil || s == nil {
						return 0, false
					}
					n, _ := q.Size()
					return n, s.Current() != nil
				})
			hb.Start()
			defer hb.Stop()
		}
	}

	if err := eng.Start(); err != nil {
		log.Fatalf("start engine: %v", err)
	}
	defer eng.Stop()

	// Set up HTTP server
	router := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Printf("courierd listening on %s (driver=%s)", addr, cfg.DriverID)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}
