package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	FleetID  string `yaml:"fleet_id"`
	DriverID string `yaml:"driver_id"`

	Database  DatabaseConfig  `yaml:"database"`
	Web       WebConfig       `yaml:"web"`
	Platform  PlatformConfig  `yaml:"platform"`
	Partners  []PartnerConfig `yaml:"partners"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Sync      SyncConfig      `yaml:"sync"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Messaging MessagingConfig `yaml:"messaging"`
	Presence  PresenceConfig  `yaml:"presence"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // "sqlite" or "postgres"
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig defines the on-device database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig defines a depot-server database.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// WebConfig defines the HTTP API settings.
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// PlatformConfig defines the fleet platform the sync loop drains to.
type PlatformConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PartnerConfig defines one order-broker partner integration.
type PartnerConfig struct {
	Name            string        `yaml:"name"`
	OrderPrefix     string        `yaml:"order_prefix"`
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	DedicatedAssign bool          `yaml:"dedicated_assign"`
}

// TrackingConfig defines geolocation sampling behavior.
type TrackingConfig struct {
	SampleRate     time.Duration `yaml:"sample_rate"`
	EnqueueEvery   time.Duration `yaml:"enqueue_every"`
	MovingSpeedKmh float64       `yaml:"moving_speed_kmh"`
	MovementWindow int           `yaml:"movement_window"`
	MaxAccuracyM   float64       `yaml:"max_accuracy_m"`
}

// SyncConfig defines the offline-queue drain loop.
type SyncConfig struct {
	Interval    time.Duration `yaml:"interval"`
	BatchSize   int           `yaml:"batch_size"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// BreakerConfig defines circuit breaker thresholds for partner calls.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
	MaxCooldown      time.Duration `yaml:"max_cooldown"`
}

// MessagingConfig defines the telemetry backend.
type MessagingConfig struct {
	Backend           string        `yaml:"backend"` // "mqtt", "kafka", or "" (disabled)
	MQTT              MQTTConfig    `yaml:"mqtt"`
	Kafka             KafkaConfig   `yaml:"kafka"`
	TelemetryTopic    string        `yaml:"telemetry_topic"`
	EventsTopic       string        `yaml:"events_topic"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// PresenceConfig defines the optional redis presence mirror.
type PresenceConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	DB      int           `yaml:"db"`
	TTL     time.Duration `yaml:"ttl"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		FleetID:  "fleet-1",
		DriverID: "driver-1",
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "courierd.db"},
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Platform: PlatformConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: 10 * time.Second,
		},
		Tracking: TrackingConfig{
			SampleRate:     2 * time.Second,
			EnqueueEvery:   15 * time.Second,
			MovingSpeedKmh: 3,
			MovementWindow: 5,
			MaxAccuracyM:   150,
		},
		Sync: SyncConfig{
			Interval:    10 * time.Second,
			BatchSize:   25,
			MaxAttempts: 8,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			MaxCooldown:      10 * time.Minute,
		},
		Messaging: MessagingConfig{
			Backend:           "",
			TelemetryTopic:    "fleet/telemetry",
			EventsTopic:       "fleet/events",
			HeartbeatInterval: 60 * time.Second,
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
		},
		Presence: PresenceConfig{
			Addr: "localhost:6379",
			TTL:  5 * time.Minute,
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ClientID returns the messaging client ID, derived from fleet and driver
// when not set explicitly.
func (c *Config) ClientID() string {
	if c.Messaging.MQTT.ClientID != "" {
		return c.Messaging.MQTT.ClientID
	}
	return c.FleetID + "." + c.DriverID
}
