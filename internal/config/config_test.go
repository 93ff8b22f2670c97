package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DriverPebble, cfg.Store.Driver)
	assert.Equal(t, 10*time.Second, cfg.Stream.KeepAlive.Std())
	assert.Equal(t, 64, cfg.Stream.Buffer)
	require.NoError(t, cfg.Validate())
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "relay.json")
	data := []byte(`{"httpAddr":":9090","store":{"driver":"postgres","postgres":{"url":"postgres://localhost/relay","retryInterval":"250ms"}},"stream":{"keepAlive":"3s"}}`)
	require.NoError(t, os.WriteFile(file, data, 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/relay", cfg.Store.Postgres.URL)
	assert.Equal(t, 250*time.Millisecond, cfg.Store.Postgres.RetryInterval.Std())
	assert.Equal(t, 3*time.Second, cfg.Stream.KeepAlive.Std())
	// untouched sections keep their defaults
	assert.Equal(t, 64, cfg.Stream.Buffer)
	assert.Equal(t, int32(10), cfg.Store.Postgres.MaxConns)
}

func TestLoadRejectsYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(file, []byte("httpAddr: :1"), 0o644))
	_, err := Load(file)
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFromEnv(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env
	t.Setenv("RELAY_HTTP_ADDR", ":7070")
	t.Setenv("RELAY_STORE_DRIVER", "postgres")
	t.Setenv("RELAY_STORE_PG_URL", "postgres://env/relay")
	t.Setenv("RELAY_STORE_PG_MAX_CONNS", "4")
	t.Setenv("RELAY_STREAM_KEEPALIVE", "15s")
	t.Setenv("RELAY_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := Default()
	require.NoError(t, FromEnv(&cfg))
	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://env/relay", cfg.Store.Postgres.URL)
	assert.Equal(t, int32(4), cfg.Store.Postgres.MaxConns)
	assert.Equal(t, 15*time.Second, cfg.Stream.KeepAlive.Std())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	// unset variables leave defaults alone
	assert.Equal(t, 64, cfg.Stream.Buffer)
}

func TestFromEnvDotenv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("RELAY_GRPC_ADDR=:6060\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RELAY_GRPC_ADDR") })

	cfg := Default()
	require.NoError(t, FromEnv(&cfg, file))
	assert.Equal(t, ":6060", cfg.GRPCAddr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"postgres without url", func(c *Config) { c.Store.Driver = DriverPostgres }},
		{"bad fsync", func(c *Config) { c.Store.Fsync = "sometimes" }},
		{"zero keepalive", func(c *Config) { c.Stream.KeepAlive = 0 }},
		{"zero buffer", func(c *Config) { c.Stream.Buffer = 0 }},
		{"no http addr", func(c *Config) { c.HTTPAddr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
