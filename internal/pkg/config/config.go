package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Render    RenderConfig    `mapstructure:"render"`
	Log       LogConfig       `mapstructure:"log"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	// Pool sizing. Point datasets are read-mostly, so the defaults are small.
	MaxConns        int32 `mapstructure:"max_conns"`
	MinConns        int32 `mapstructure:"min_conns"`
	MaxConnLifetime int   `mapstructure:"max_conn_lifetime"` // seconds
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// RenderConfig holds the fixed visual parameters of every map view.
type RenderConfig struct {
	Radius            float64 `mapstructure:"radius"`
	Blur              float64 `mapstructure:"blur"`
	MaxZoom           int     `mapstructure:"max_zoom"`
	FitPadding        int     `mapstructure:"fit_padding"`
	FitMaxZoom        int     `mapstructure:"fit_max_zoom"`
	SurfaceWidth      int     `mapstructure:"surface_width"`
	SurfaceHeight     int     `mapstructure:"surface_height"`
	CapabilityTimeout int     `mapstructure:"capability_timeout"` // seconds
}

// LayerOptions builds density layer options with the standard gradient.
func (r RenderConfig) LayerOptions() domain.LayerOptions {
	opts := domain.DefaultLayerOptions()
	opts.Radius = r.Radius
	opts.Blur = r.Blur
	opts.MaxZoom = r.MaxZoom
	return opts
}

// FitOptions builds viewport fit options.
func (r RenderConfig) FitOptions() domain.FitOptions {
	return domain.FitOptions{PaddingPx: r.FitPadding, MaxZoom: r.FitMaxZoom}
}

// AcquireTimeout is how long a reconcile waits for the density renderer.
func (r RenderConfig) AcquireTimeout() time.Duration {
	return time.Duration(r.CapabilityTimeout) * time.Second
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "densitymap")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "densitymap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.max_conn_lifetime", 3600)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.task_queue", "density-refresh")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("render.radius", 25)
	v.SetDefault("render.blur", 15)
	v.SetDefault("render.max_zoom", 17)
	v.SetDefault("render.fit_padding", 20)
	v.SetDefault("render.fit_max_zoom", 15)
	v.SetDefault("render.surface_width", 1024)
	v.SetDefault("render.surface_height", 768)
	v.SetDefault("render.capability_timeout", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: DENSITYMAP_RENDER_RADIUS → render.radius
	v.SetEnvPrefix("DENSITYMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "database.max_conns must be positive")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Sprintf("database.min_conns must be 0-%d, got %d", c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConnLifetime <= 0 {
		errs = append(errs, "database.max_conn_lifetime must be positive")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}
	if c.Render.Radius <= 0 {
		errs = append(errs, "render.radius must be positive")
	}
	if c.Render.Blur < 0 {
		errs = append(errs, "render.blur must not be negative")
	}
	if c.Render.MaxZoom < 0 || c.Render.MaxZoom > 22 {
		errs = append(errs, fmt.Sprintf("render.max_zoom must be 0-22, got %d", c.Render.MaxZoom))
	}
	if c.Render.FitMaxZoom < 0 || c.Render.FitMaxZoom > 22 {
		errs = append(errs, fmt.Sprintf("render.fit_max_zoom must be 0-22, got %d", c.Render.FitMaxZoom))
	}
	if c.Render.FitPadding < 0 {
		errs = append(errs, "render.fit_padding must not be negative")
	}
	if c.Render.SurfaceWidth <= 2*c.Render.FitPadding || c.Render.SurfaceHeight <= 2*c.Render.FitPadding {
		errs = append(errs, "render.surface_width and render.surface_height must exceed twice the fit padding")
	}
	if c.Render.CapabilityTimeout <= 0 {
		errs = append(errs, "render.capability_timeout must be positive")
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "text" {
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
