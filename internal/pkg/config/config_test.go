package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("densitymap-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Telemetry.ServiceName != "densitymap-test" {
		t.Errorf("expected service name from argument, got %q", cfg.Telemetry.ServiceName)
	}
	if got := cfg.Render.LayerOptions(); got.Radius != 25 || got.Blur != 15 || got.MaxZoom != 17 || len(got.Gradient) != 6 {
		t.Errorf("unexpected layer options %+v", got)
	}
	if got := cfg.Render.FitOptions(); got != domain.DefaultFitOptions {
		t.Errorf("expected default fit options, got %+v", got)
	}
	if got := cfg.Render.AcquireTimeout(); got != 10*time.Second {
		t.Errorf("expected 10s acquire timeout, got %v", got)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DENSITYMAP_RENDER_RADIUS", "40")
	t.Setenv("DENSITYMAP_SERVER_PORT", "9090")

	cfg, err := config.Load("densitymap-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.Radius != 40 {
		t.Errorf("expected radius 40, got %v", cfg.Render.Radius)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
}

func TestLoad_DatabasePool(t *testing.T) {
	cfg, err := config.Load("densitymap-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.MaxConns != 10 || cfg.Database.MinConns != 0 || cfg.Database.MaxConnLifetime != 3600 {
		t.Errorf("unexpected pool defaults %+v", cfg.Database)
	}

	t.Setenv("DENSITYMAP_DATABASE_MAX_CONNS", "32")
	t.Setenv("DENSITYMAP_DATABASE_MIN_CONNS", "4")
	cfg, err = config.Load("densitymap-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.MaxConns != 32 || cfg.Database.MinConns != 4 {
		t.Errorf("expected pool 4-32, got %d-%d", cfg.Database.MinConns, cfg.Database.MaxConns)
	}

	t.Setenv("DENSITYMAP_DATABASE_MIN_CONNS", "64")
	if _, err := config.Load("densitymap-test"); err == nil || !strings.Contains(err.Error(), "database.min_conns") {
		t.Fatalf("expected min_conns validation error, got %v", err)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("DENSITYMAP_RENDER_MAX_ZOOM", "30")

	_, err := config.Load("densitymap-test")
	if err == nil || !strings.Contains(err.Error(), "render.max_zoom") {
		t.Fatalf("expected max_zoom validation error, got %v", err)
	}
}

func TestLoad_LogSettings(t *testing.T) {
	t.Setenv("DENSITYMAP_LOG_LEVEL", "debug")
	t.Setenv("DENSITYMAP_LOG_FORMAT", "text")

	cfg, err := config.Load("densitymap-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}

	t.Setenv("DENSITYMAP_LOG_FORMAT", "xml")
	if _, err := config.Load("densitymap-test"); err == nil || !strings.Contains(err.Error(), "log.format") {
		t.Fatalf("expected log.format validation error, got %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &config.Config{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for zero config")
	}
	for _, want := range []string{"server.port", "database.host", "database.max_conns", "nats.url", "render.radius", "render.capability_timeout", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestDSN(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "densitymap", SSLMode: "disable"}
	if got, want := d.DSN(), "postgres://u:p@db:5432/densitymap?sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
