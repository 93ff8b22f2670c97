package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store drivers.
const (
	DriverPebble   = "pebble"
	DriverPostgres = "postgres"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	HTTPAddr  string          `json:"httpAddr" env:"HTTP_ADDR"`
	GRPCAddr  string          `json:"grpcAddr" env:"GRPC_ADDR"`
	DataDir   string          `json:"dataDir" env:"DATA_DIR"`
	Store     StoreConfig     `json:"store" envPrefix:"STORE_"`
	Stream    StreamConfig    `json:"stream" envPrefix:"STREAM_"`
	Log       LogConfig       `json:"log" envPrefix:"LOG_"`
	RateLimit RateLimitConfig `json:"rateLimit" envPrefix:"RATE_LIMIT_"`
	CORS      CORSConfig      `json:"cors" envPrefix:"CORS_"`
}

// StoreConfig selects and tunes the durable channel/message store.
type StoreConfig struct {
	Driver        string         `json:"driver" env:"DRIVER"`
	Fsync         string         `json:"fsync" env:"FSYNC"`
	FsyncInterval Duration       `json:"fsyncInterval" env:"FSYNC_INTERVAL"`
	Postgres      PostgresConfig `json:"postgres" envPrefix:"PG_"`
}

// PostgresConfig mirrors the pgxpool knobs.
type PostgresConfig struct {
	URL               string   `json:"url" env:"URL"`
	MaxConns          int32    `json:"maxConns" env:"MAX_CONNS"`
	MinConns          int32    `json:"minConns" env:"MIN_CONNS"`
	HealthCheckPeriod Duration `json:"healthCheckPeriod" env:"HEALTHCHECK_PERIOD"`
	MaxConnIdleTime   Duration `json:"maxConnIdleTime" env:"MAX_CONN_IDLE_TIME"`
	MaxConnLifetime   Duration `json:"maxConnLifetime" env:"MAX_CONN_LIFETIME"`
	RetryAttempts     int      `json:"retryAttempts" env:"RETRY_ATTEMPTS"`
	RetryInterval     Duration `json:"retryInterval" env:"RETRY_INTERVAL"`
	MigrationsTable   string   `json:"migrationsTable" env:"MIGRATIONS_TABLE"`
}

// StreamConfig tunes live streaming connections.
type StreamConfig struct {
	// KeepAlive is the fixed interval between comment frames on idle and busy streams alike.
	KeepAlive Duration `json:"keepAlive" env:"KEEPALIVE"`
	// Buffer is the per-subscriber delivery buffer; a full buffer evicts the subscriber.
	Buffer int `json:"buffer" env:"BUFFER"`
	// Retry is the reconnection delay advertised to SSE clients. Zero omits it.
	Retry Duration `json:"retry" env:"RETRY"`
}

// LogConfig is passed to log.ApplyConfig.
type LogConfig struct {
	Level  string `json:"level" env:"LEVEL"`
	Format string `json:"format" env:"FORMAT"`
	Output string `json:"output" env:"OUTPUT"`
}

// RateLimitConfig limits message posts per client IP. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `json:"rps" env:"RPS"`
	Burst int     `json:"burst" env:"BURST"`
}

// CORSConfig lists allowed origins; "*" allows any.
type CORSConfig struct {
	AllowedOrigins []string `json:"allowedOrigins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		GRPCAddr: ":50051",
		Store: StoreConfig{
			Driver:        DriverPebble,
			Fsync:         "always",
			FsyncInterval: Duration(5 * time.Millisecond),
			Postgres: PostgresConfig{
				MaxConns:          10,
				MinConns:          1,
				HealthCheckPeriod: Duration(time.Minute),
				MaxConnIdleTime:   Duration(10 * time.Minute),
				MaxConnLifetime:   Duration(30 * time.Minute),
				RetryAttempts:     3,
				RetryInterval:     Duration(2 * time.Second),
				MigrationsTable:   "schema_migrations",
			},
		},
		Stream: StreamConfig{
			KeepAlive: Duration(10 * time.Second),
			Buffer:    64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		RateLimit: RateLimitConfig{
			RPS:   20,
			Burst: 40,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads configuration from a JSON file on top of Default(). If path is
// empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return Config{}, errors.New("yaml config not supported; use JSON")
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverPebble:
	case DriverPostgres:
		if c.Store.Postgres.URL == "" {
			return errors.New("store: postgres driver requires a connection url")
		}
	default:
		return fmt.Errorf("store: unknown driver %q", c.Store.Driver)
	}
	switch c.Store.Fsync {
	case "always", "interval", "never":
	default:
		return fmt.Errorf("store: invalid fsync mode %q; use always|interval|never", c.Store.Fsync)
	}
	if c.Stream.KeepAlive.Std() <= 0 {
		return errors.New("stream: keepalive must be positive")
	}
	if c.Stream.Buffer <= 0 {
		return errors.New("stream: buffer must be positive")
	}
	if c.HTTPAddr == "" {
		return errors.New("httpAddr is required")
	}
	return nil
}
