// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"

	EventsBackendNone = "none"
	EventsBackendAMQP = "amqp"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	// Timezone is the IANA zone dates and slots are interpreted in.
	Timezone                     string        `yaml:"timezone"`
	CancellationCutoff           time.Duration `yaml:"cancellation_cutoff"`
	MaxReservationsPerUserPerDay int           `yaml:"max_reservations_per_user_per_day"`
	LockBackend                  string        `yaml:"lock_backend"`
	LockTTL                      time.Duration `yaml:"lock_ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // Loaded from environment
}

// EventsConfig selects where reservation events are published.
type EventsConfig struct {
	Backend  string `yaml:"backend"`
	Exchange string `yaml:"exchange"`
	URL      string `yaml:"-"` // Loaded from environment
}

// RateLimitConfig throttles reservation writes. Zero limits take the
// limiter defaults.
type RateLimitConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Window     time.Duration `yaml:"window"`
	MaxPerUser int           `yaml:"max_per_user"`
	MaxPerIP   int           `yaml:"max_per_ip"`
	Cooldown   time.Duration `yaml:"cooldown"`
	TrustProxy bool          `yaml:"trust_proxy"`
}

type SchedulerConfig struct {
	// CompletionSweep is a standard five field cron expression.
	CompletionSweep string `yaml:"completion_sweep"`
}

type Config struct {
	App struct {
		Name                   string `yaml:"name"`
		Environment            string `yaml:"environment"`
		Port                   int    `yaml:"port"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	Booking   BookingConfig   `yaml:"booking"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Events    EventsConfig    `yaml:"events"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Events.URL = os.Getenv("AMQP_URL")
	if cfg.Events.Backend == EventsBackendAMQP && cfg.Events.URL == "" {
		return nil, fmt.Errorf("invalid configuration: AMQP_URL is required when events backend is amqp")
	}

	return cfg, nil
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.ShutdownTimeoutSeconds == 0 {
		c.App.ShutdownTimeoutSeconds = 30
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Booking.LockBackend == "" {
		c.Booking.LockBackend = LockBackendLocal
	}
	if c.Booking.LockTTL == 0 {
		c.Booking.LockTTL = 10 * time.Second
	}
	if c.Events.Backend == "" {
		c.Events.Backend = EventsBackendNone
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = "courtbook.reservations"
	}
	if c.Scheduler.CompletionSweep == "" {
		c.Scheduler.CompletionSweep = "*/5 * * * *"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid booking timezone %q: %w", c.Booking.Timezone, err)
	}
	if c.Booking.CancellationCutoff < 0 {
		return fmt.Errorf("booking cancellation_cutoff must not be negative")
	}
	if c.Booking.MaxReservationsPerUserPerDay < 0 {
		return fmt.Errorf("booking max_reservations_per_user_per_day must not be negative")
	}
	if c.Booking.LockTTL < 0 {
		return fmt.Errorf("booking lock_ttl must not be negative")
	}

	switch c.Booking.LockBackend {
	case LockBackendLocal:
	case LockBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required when lock_backend is redis")
		}
	default:
		return fmt.Errorf("unsupported lock backend: %s", c.Booking.LockBackend)
	}

	switch c.Events.Backend {
	case EventsBackendNone, EventsBackendAMQP:
	default:
		return fmt.Errorf("unsupported events backend: %s", c.Events.Backend)
	}

	if c.RateLimit.Window < 0 || c.RateLimit.MaxPerUser < 0 || c.RateLimit.MaxPerIP < 0 || c.RateLimit.Cooldown < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}

	if _, err := cron.ParseStandard(c.Scheduler.CompletionSweep); err != nil {
		return fmt.Errorf("invalid scheduler completion_sweep %q: %w", c.Scheduler.CompletionSweep, err)
	}

	return nil
}

// Location returns the facility time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ShutdownTimeout returns how long the server waits for in-flight requests.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.App.ShutdownTimeoutSeconds) * time.Second
}
