package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "EMAIL_PROVIDER", "RATE_LIMIT_BACKEND",
		"RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW", "REDIS_ADDR", "AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY", "SENDGRID_API_KEY", "SMTP_HOST", "CONTACT_EMAIL",
		"CORS_ALLOWED_ORIGINS", "EMAIL_MAX_RETRIES", "EMAIL_RETRY_BASE_DELAY", "HONEYPOT_DELAY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.ContactEmail != "info@t5fueling.com" {
		t.Fatalf("expected default contact email, got %s", cfg.ContactEmail)
	}
	if cfg.EmailFrom != "no-reply@t5fueling.com" {
		t.Fatalf("expected default sender, got %s", cfg.EmailFrom)
	}
	if cfg.RateLimitMax != 5 || cfg.RateLimitWindow != time.Hour {
		t.Fatalf("expected 5 per hour, got %d per %s", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if cfg.EmailMaxRetries != 3 || cfg.EmailRetryBaseDelay != time.Second {
		t.Fatalf("expected 3 retries with 1s base, got %d / %s", cfg.EmailMaxRetries, cfg.EmailRetryBaseDelay)
	}
	if cfg.RateLimitSweepInterval != 10*time.Minute {
		t.Fatalf("expected 10m sweep, got %s", cfg.RateLimitSweepInterval)
	}
	if cfg.HoneypotDelay != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s honeypot delay, got %s", cfg.HoneypotDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected development defaults to validate, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("EMAIL_PROVIDER", " SendGrid ")
	t.Setenv("SENDGRID_API_KEY", "sg-key")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://t5fueling.com, https://www.t5fueling.com,")
	t.Setenv("EMAIL_RETRY_BASE_DELAY", "250ms")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
	if cfg.EmailProvider != "sendgrid" {
		t.Fatalf("expected normalized provider, got %q", cfg.EmailProvider)
	}
	if cfg.RateLimitMax != 10 || cfg.RateLimitWindow != 30*time.Minute {
		t.Fatalf("unexpected rate limit override: %d per %s", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://www.t5fueling.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.EmailRetryBaseDelay != 250*time.Millisecond {
		t.Fatalf("expected base delay override, got %s", cfg.EmailRetryBaseDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid production config, got %v", err)
	}
}

func TestValidateProductionMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	cfg := Load()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for production config without database or AWS credentials")
	}
	for _, want := range []string{"DATABASE_URL", "AWS_ACCESS_KEY_ID"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s to be reported, got %v", want, err)
		}
	}
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	cfg.RateLimitBackend = "memcached"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown rate limit backend")
	}

	cfg = Load()
	cfg.EmailProvider = "pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown email provider")
	}

	cfg = Load()
	cfg.RateLimitBackend = "redis"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "REDIS_ADDR") {
		t.Fatalf("expected REDIS_ADDR to be required, got %v", err)
	}
}

func TestValidateRejectsStubInProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("EMAIL_PROVIDER", "stub")
	if err := Load().Validate(); err == nil {
		t.Fatal("expected stub provider to be rejected in production")
	}
}
