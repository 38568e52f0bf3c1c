// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint for traces (optional)

	// Ingestion settings
	HistoryLimit int // max samples returned per history query
	RateLimitRPS int

	// Security
	AdminSecret string // guards the authorized-ID admin routes

	// Agent settings
	DashboardURL   string        // base URL of the dashboard server
	StudentID      string        // ID the agent submits telemetry under
	WorkspaceRoot  string        // workspace scanned for project/tech info
	ProbeCommand   string        // external command printing "app<TAB>title"
	SampleInterval time.Duration // telemetry assembly period
	ProbeInterval  time.Duration // active-window probe period
}

// Defaults
const (
	DefaultPort           = "8080"
	DefaultEnv            = "development"
	DefaultLogLevel       = "info"
	DefaultHistoryLimit   = 100
	DefaultRateLimit      = 100
	DefaultDashboardURL   = "http://localhost:8080"
	DefaultSampleInterval = 5 * time.Second
	DefaultProbeInterval  = 2 * time.Second
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", DefaultPort),
		Env:            getEnv("ENV", DefaultEnv),
		LogLevel:       getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:    os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		HistoryLimit:   int(getEnvInt64("HISTORY_LIMIT", DefaultHistoryLimit)),
		RateLimitRPS:   int(getEnvInt64("RATE_LIMIT_RPS", DefaultRateLimit)),
		AdminSecret:    os.Getenv("ADMIN_SECRET"),
		DashboardURL:   getEnv("DASHBOARD_URL", DefaultDashboardURL),
		StudentID:      os.Getenv("STUDENT_ID"),
		WorkspaceRoot:  os.Getenv("WORKSPACE_ROOT"),
		ProbeCommand:   os.Getenv("PROBE_COMMAND"),
		SampleInterval: getEnvDuration("SAMPLE_INTERVAL", DefaultSampleInterval),
		ProbeInterval:  getEnvDuration("PROBE_INTERVAL", DefaultProbeInterval),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent
func (c *Config) Validate() error {
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be positive")
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("PROBE_INTERVAL must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
