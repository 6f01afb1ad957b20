// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// MigrationConfig controls schema migrations at startup.
type MigrationConfig interface {
	DatabaseConfig
	GetRunMigrations() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetReadHeaderTimeout() time.Duration
	GetShutdownTimeout() time.Duration
}

// RateLimitConfig provides per-IP rate limiting settings for the API group.
type RateLimitConfig interface {
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
	IsRateLimitEnabled() bool
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig interface {
	IsMetricsEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	RunMigrations     bool
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	RateLimitRPS      float64
	RateLimitBurst    int
	MetricsEnabled    bool
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool { return strings.EqualFold(c.Env, "development") }

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// MigrationConfig implementation
func (c *Config) GetRunMigrations() bool { return c.RunMigrations }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string                 { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool               { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string            { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool             { return c.CORSAllowCreds }
func (c *Config) GetReadHeaderTimeout() time.Duration { return c.ReadHeaderTimeout }
func (c *Config) GetShutdownTimeout() time.Duration   { return c.ShutdownTimeout }

// RateLimitConfig implementation
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }
func (c *Config) IsRateLimitEnabled() bool { return c.RateLimitRPS > 0 }

// MetricsConfig implementation
func (c *Config) IsMetricsEnabled() bool { return c.MetricsEnabled }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:8000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RunMigrations:     strings.EqualFold(getEnv("RUN_MIGRATIONS", "true"), "true"),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		RateLimitRPS:      mustFloat64(getEnv("RATE_LIMIT_RPS", "0")),
		RateLimitBurst:    mustInt(getEnv("RATE_LIMIT_BURST", "20")),
		MetricsEnabled:    strings.EqualFold(getEnv("METRICS_ENABLED", "true"), "true"),
		ReadHeaderTimeout: mustDuration(getEnv("READ_HEADER_TIMEOUT", "10s")),
		ShutdownTimeout:   mustDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if !cfg.CORSAllowAll {
		if len(cfg.CORSOrigins) == 0 {
			return nil, fmt.Errorf("CORS_ORIGINS must list at least one origin unless CORS_ALLOW_ALL is true")
		}
		for _, origin := range cfg.CORSOrigins {
			if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
				return nil, fmt.Errorf("CORS_ORIGINS entry %q must start with http:// or https://", origin)
			}
		}
	}
	if cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if cfg.IsRateLimitEnabled() && cfg.RateLimitBurst < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat64(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
