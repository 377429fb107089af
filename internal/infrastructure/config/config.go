package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/paths"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Desktop   DesktopConfig
	Auth      AuthConfig
	Chart     ChartConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// CORSOrigins is a comma separated list; "*" allows any origin.
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// StorageConfig holds database and fixture catalog locations.
type StorageConfig struct {
	// DBPath is the SQLite file; empty resolves to the XDG data dir,
	// ":memory:" keeps everything in process.
	DBPath string `envconfig:"DB_PATH" default:""`
	// FixturesPath is an optional YAML catalog overriding the seed data.
	FixturesPath string `envconfig:"FIXTURES_PATH" default:""`
	// ArchiveBuffer is the queue length of the desktop activity archiver.
	ArchiveBuffer int `envconfig:"ARCHIVE_BUFFER" default:"256"`
}

// DesktopConfig holds per-session desktop settings.
type DesktopConfig struct {
	ActivityCapacity int    `envconfig:"ACTIVITY_CAPACITY" default:"100"`
	ActivityActor    string `envconfig:"ACTIVITY_ACTOR" default:"Alex Carter"`
}

// AuthConfig holds token and account settings.
type AuthConfig struct {
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"30m"`
	SeedUsers bool          `envconfig:"SEED_USERS" default:"true"`
}

// ChartConfig holds admin chart refresh settings.
type ChartConfig struct {
	Interval time.Duration `envconfig:"CHART_INTERVAL" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			ArchiveBuffer: 256,
		},
		Desktop: DesktopConfig{
			ActivityCapacity: 100,
			ActivityActor:    "Alex Carter",
		},
		Auth: AuthConfig{
			TokenTTL:  30 * time.Minute,
			SeedUsers: true,
		},
		Chart: ChartConfig{
			Interval: 30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Desktop.ActivityCapacity <= 0 {
		return fmt.Errorf("ACTIVITY_CAPACITY must be positive, got %d", c.Desktop.ActivityCapacity)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Chart.Interval <= 0 {
		return fmt.Errorf("CHART_INTERVAL must be positive, got %s", c.Chart.Interval)
	}
	return nil
}

// DatabasePath resolves the SQLite location.
func (c *Config) DatabasePath() string {
	if c.Storage.DBPath == "" {
		return paths.DatabaseFile()
	}
	return c.Storage.DBPath
}

// Address returns the listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
