package config_test

import (
	"testing"
	"time"

	"github.com/iho/gotransfer/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_BACKEND", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.StoreBackend != config.BackendRedis {
		t.Fatalf("expected default backend redis, got %q", cfg.StoreBackend)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.CommitMaxAttempts != 3 || cfg.CommitRetryDelay != 500*time.Millisecond {
		t.Fatalf("unexpected commit retry defaults: %d / %s", cfg.CommitMaxAttempts, cfg.CommitRetryDelay)
	}

	if cfg.StatusWriteMaxAttempts != 3 || cfg.StatusWriteRetryDelay != 500*time.Millisecond {
		t.Fatalf("unexpected status write defaults: %d / %s", cfg.StatusWriteMaxAttempts, cfg.StatusWriteRetryDelay)
	}

	if cfg.IdempotencyKeyPolicy != "require" {
		t.Fatalf("expected require key policy, got %q", cfg.IdempotencyKeyPolicy)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("COMMIT_RETRY_DELAY", "100ms")
	t.Setenv("IDEMPOTENCY_KEY_POLICY", "derive")
	t.Setenv("RATE_LIMIT_RPS", "12.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.StoreBackend != config.BackendPostgres {
		t.Fatalf("expected postgres backend, got %s", cfg.StoreBackend)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.CommitRetryDelay != 100*time.Millisecond {
		t.Fatalf("expected commit delay override, got %s", cfg.CommitRetryDelay)
	}

	if cfg.IdempotencyKeyPolicy != "derive" || cfg.RateLimitRPS != 12.5 {
		t.Fatalf("unexpected overrides: policy=%s rps=%v", cfg.IdempotencyKeyPolicy, cfg.RateLimitRPS)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown backend", "STORE_BACKEND", "dynamo"},
		{"zero commit attempts", "COMMIT_MAX_ATTEMPTS", "0"},
		{"zero conflict attempts", "CONFLICT_MAX_ATTEMPTS", "0"},
		{"zero status attempts", "STATUS_WRITE_MAX_ATTEMPTS", "0"},
		{"negative rate", "RATE_LIMIT_RPS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
