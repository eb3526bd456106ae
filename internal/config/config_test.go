package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.IdentityBaseURL == "" || cfg.LocationBaseURL == "" {
		t.Fatalf("expected default base urls")
	}
	if cfg.RequestTimeout != 120*time.Second {
		t.Fatalf("expected 120s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.StoreBackend != "memory" {
		t.Fatalf("expected memory backend, got %q", cfg.StoreBackend)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("IDENTITY_BASE_URL", "https://id.example.com/api")
	t.Setenv("LOCATION_BASE_URL", "https://geo.example.com/api")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REGISTRAR_USERNAME", "registrar")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.IdentityBaseURL != "https://id.example.com/api" {
		t.Fatalf("expected override identity url")
	}
	if cfg.LocationBaseURL != "https://geo.example.com/api" {
		t.Fatalf("expected override location url")
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisPassword != "hunter2" {
		t.Fatalf("expected override redis")
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("expected override timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.StoreBackend != "redis" {
		t.Fatalf("expected override backend")
	}
	if cfg.RegistrarUsername != "registrar" || cfg.RegistrarPassword != "" {
		t.Fatalf("expected registrar account override")
	}
}

func TestLocation(t *testing.T) {
	if (Config{Timezone: "Local"}).Location() != time.Local {
		t.Fatalf("expected local zone")
	}
	if (Config{Timezone: "Not/AZone"}).Location() != time.Local {
		t.Fatalf("expected fallback to local zone")
	}
	loc := (Config{Timezone: "UTC"}).Location()
	if loc.String() != "UTC" {
		t.Fatalf("unexpected zone %s", loc)
	}
}
