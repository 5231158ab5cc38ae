package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRest     = "rest"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Env      string `envconfig:"ENV" default:"dev"`

	// Store
	Store          string        `envconfig:"STORE" default:"memory"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	BackendURL     string        `envconfig:"BACKEND_URL"`
	BackendAPIKey  string        `envconfig:"BACKEND_API_KEY"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`
	SeedDemoData   bool          `envconfig:"SEED_DEMO_DATA" default:"false"`

	// Session
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Workers; 0 disables the closer
	CloseInterval time.Duration `envconfig:"CLOSE_INTERVAL" default:"30s"`

	// Tracing; empty disables export
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads the configuration from the environment and validates it
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks the settings that depend on each other
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET must not be empty")
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for store %q", c.Store)
		}
	case StoreRest:
		if c.BackendURL == "" || c.BackendAPIKey == "" {
			return fmt.Errorf("config: BACKEND_URL and BACKEND_API_KEY are required for store %q", c.Store)
		}
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}
	if c.CloseInterval < 0 {
		return fmt.Errorf("config: CLOSE_INTERVAL must not be negative")
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("config: BACKEND_TIMEOUT must be positive")
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
