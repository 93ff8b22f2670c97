package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	cfgpkg "github.com/rzbill/relay/internal/config"
	"github.com/rzbill/relay/internal/hub"
	pebblestore "github.com/rzbill/relay/internal/storage/pebble"
	pgstore "github.com/rzbill/relay/internal/storage/postgres"
	"github.com/rzbill/relay/internal/store"
	"github.com/rzbill/relay/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger log.Logger
}

// Runtime owns the durable store and the hub registry for one process.
type Runtime struct {
	config   cfgpkg.Config
	logger   log.Logger
	store    store.Store
	registry *hub.Registry

	closeOnce sync.Once
	closeErr  error
}

// Open initializes the configured store and an empty registry.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	reg := hub.NewRegistry(
		hub.WithDefaultBuffer(cfg.Stream.Buffer),
		hub.WithLogger(logger),
	)
	logger.Info("runtime opened", log.Str("driver", cfg.Store.Driver))
	return &Runtime{config: cfg, logger: logger, store: st, registry: reg}, nil
}

func openStore(ctx context.Context, cfg cfgpkg.Config, logger log.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case cfgpkg.DriverPostgres:
		pg := cfg.Store.Postgres
		pool, err := pgstore.Connect(ctx, pgstore.Options{
			URL:               pg.URL,
			MaxConns:          pg.MaxConns,
			MinConns:          pg.MinConns,
			HealthCheckPeriod: pg.HealthCheckPeriod.Std(),
			MaxConnIdleTime:   pg.MaxConnIdleTime.Std(),
			MaxConnLifetime:   pg.MaxConnLifetime.Std(),
			RetryAttempts:     pg.RetryAttempts,
			RetryInterval:     pg.RetryInterval.Std(),
		})
		if err != nil {
			return nil, err
		}
		err = pgstore.Migrate(ctx, pool, pgstore.MigrateOptions{
			FS:    store.Migrations,
			Dir:   store.MigrationsDir,
			Table: pg.MigrationsTable,
		}, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store.NewPostgres(pool), nil
	default:
		dir := cfg.DataDir
		if dir == "" {
			dir = cfgpkg.DefaultDataDir()
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		mode, err := pebblestore.ParseFsyncMode(cfg.Store.Fsync)
		if err != nil {
			return nil, err
		}
		db, err := pebblestore.Open(pebblestore.Options{
			DataDir:       dir,
			Fsync:         mode,
			FsyncInterval: cfg.Store.FsyncInterval.Std(),
		})
		if err != nil {
			return nil, fmt.Errorf("open pebble at %s: %w", dir, err)
		}
		return store.NewPebble(db), nil
	}
}

// Close ends every live stream, then closes the store.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		r.registry.Close()
		r.closeErr = r.store.Close()
	})
	return r.closeErr
}

// CheckHealth pings the store.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("store not open")
	}
	return r.store.Ping(ctx)
}

// Store returns the durable store.
func (r *Runtime) Store() store.Store { return r.store }

// Registry returns the hub registry.
func (r *Runtime) Registry() *hub.Registry { return r.registry }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the root logger.
func (r *Runtime) Logger() log.Logger { return r.logger }
