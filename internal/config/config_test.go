package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("AUTH_DEFAULT_ROLE", "")
	t.Setenv("AUTH_SESSION_TTL_HOURS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Name != "sprintflow" {
		t.Fatalf("unexpected app name %q", cfg.App.Name)
	}
	if !cfg.App.IsLocal() {
		t.Fatalf("expected development env to be local")
	}
	if cfg.Auth.SessionTTL() != 7*24*time.Hour {
		t.Fatalf("expected 7 day session ttl, got %s", cfg.Auth.SessionTTL())
	}
	if cfg.Auth.CookieName != "sprintflow_token" {
		t.Fatalf("unexpected cookie name %q", cfg.Auth.CookieName)
	}
	if cfg.Auth.DefaultRole != "ADMIN" {
		t.Fatalf("unexpected default role %q", cfg.Auth.DefaultRole)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing secret in production")
	}
}

func TestLoadRejectsUnknownRole(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("AUTH_DEFAULT_ROLE", "owner")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown default role")
	}
}

func TestAppConfigHelpers(t *testing.T) {
	app := AppConfig{Host: "127.0.0.1", Port: "9000", Env: "production", RequestTimeoutSeconds: 5}
	if app.Addr() != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %q", app.Addr())
	}
	if app.IsLocal() {
		t.Fatal("production must not be local")
	}
	if app.RequestTimeout() != 5*time.Second {
		t.Fatalf("unexpected timeout %s", app.RequestTimeout())
	}
	app.RequestTimeoutSeconds = 0
	if app.RequestTimeout() != 0 {
		t.Fatal("expected zero timeout to disable")
	}
}
