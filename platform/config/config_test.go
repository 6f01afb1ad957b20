package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/webjs")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://eu.example.com")
	t.Setenv("CORS_ALLOW_ALL", "false")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("SHUTDOWN_TIMEOUT", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.GetCORSOrigins()) != 2 || cfg.GetCORSOrigins()[1] != "https://eu.example.com" {
		t.Fatalf("unexpected CORS origins: %v", cfg.GetCORSOrigins())
	}
	if cfg.IsRateLimitEnabled() {
		t.Fatal("rate limiting should be disabled when RATE_LIMIT_RPS is 0")
	}
	if cfg.GetShutdownTimeout() != 15*time.Second {
		t.Fatalf("expected 15s shutdown timeout, got %s", cfg.GetShutdownTimeout())
	}
}

func TestLoadWildcardOriginEnablesAllowAll(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/webjs")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.GetCORSAllowAll() {
		t.Fatal("expected wildcard origin to enable CORS_ALLOW_ALL")
	}
}

func TestLoadRejectsCredentialsWithAllowAll(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/webjs")
	t.Setenv("CORS_ALLOW_ALL", "true")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for credentials combined with allow-all")
	}
}

func TestLoadRejectsZeroBurstWhenRateLimited(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/webjs")
	t.Setenv("CORS_ALLOW_ALL", "false")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("RATE_LIMIT_BURST", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero burst")
	}
}

func TestLoadRejectsOriginWithoutScheme(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/webjs")
	t.Setenv("CORS_ALLOW_ALL", "false")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")
	t.Setenv("CORS_ORIGINS", "app.example.com")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for origin without scheme")
	}
}
