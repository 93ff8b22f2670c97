package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/relay/internal/cmd/client"
	serverrun "github.com/rzbill/relay/internal/cmd/server"
	cfgpkg "github.com/rzbill/relay/internal/config"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "relay",
		Short:        "relay chat fan-out server and CLI",
		Long:         "relay stores channels and messages and streams new messages to live subscribers over SSE and WebSocket.",
		SilenceUsage: true,
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverCmd.AddCommand(newServerStartCmd())
	rootCmd.AddCommand(serverCmd)

	clientcmd.Register(rootCmd, clientcmd.BaseURLFromEnv)
	return rootCmd
}

func newServerStartCmd() *cobra.Command {
	startCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start relay server (HTTP and gRPC)",
		Aliases: []string{"run"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := serverConfig(cmd)
			if err != nil {
				return err
			}
			if err := serverrun.Run(cmd.Context(), serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	f := startCmd.Flags()
	f.String("config", os.Getenv("RELAY_CONFIG"), "Path to a JSON config file")
	f.String("http", "", "HTTP listen address (default :8080)")
	f.String("grpc", "", "gRPC listen address (default :50051; empty string disables)")
	f.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	f.String("store", "", "Store driver: pebble|postgres")
	f.String("pg-url", "", "Postgres connection URL when --store=postgres")
	f.String("fsync", "", "Fsync mode: always|interval|never")
	f.Duration("fsync-interval", 0, "When --fsync=interval, group-commit window")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: text|json")
	f.Duration("keepalive", 0, "Stream keepalive interval (default 10s)")
	f.Int("buffer", 0, "Per-subscriber delivery buffer")
	f.Duration("retry", 0, "SSE reconnection delay advertised to clients")
	return startCmd
}

// serverConfig layers defaults, the config file, RELAY_* variables and finally
// explicitly set flags.
func serverConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfgpkg.FromEnv(&cfg); err != nil {
		return cfgpkg.Config{}, fmt.Errorf("config env: %w", err)
	}

	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	dur := func(name string, dst *cfgpkg.Duration) {
		if f.Changed(name) {
			v, _ := f.GetDuration(name)
			*dst = cfgpkg.Duration(v)
		}
	}
	str("http", &cfg.HTTPAddr)
	str("grpc", &cfg.GRPCAddr)
	str("data-dir", &cfg.DataDir)
	str("store", &cfg.Store.Driver)
	str("pg-url", &cfg.Store.Postgres.URL)
	str("fsync", &cfg.Store.Fsync)
	dur("fsync-interval", &cfg.Store.FsyncInterval)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	dur("keepalive", &cfg.Stream.KeepAlive)
	dur("retry", &cfg.Stream.Retry)
	if f.Changed("buffer") {
		cfg.Stream.Buffer, _ = f.GetInt("buffer")
	}

	if err := cfg.Validate(); err != nil {
		return cfgpkg.Config{}, err
	}
	return cfg, nil
}
