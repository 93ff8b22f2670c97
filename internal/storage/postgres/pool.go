package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrEmptyConnectionString = errors.New("pgstore: empty connection string")
	ErrFailedToParseConfig   = errors.New("pgstore: failed to parse config")
	ErrFailedToConnect       = errors.New("pgstore: failed to connect")
	ErrHealthcheckFailed     = errors.New("pgstore: healthcheck failed")
)

// Options tunes the pool. Zero values keep the pgxpool defaults.
type Options struct {
	URL               string
	MaxConns          int32
	MinConns          int32
	HealthCheckPeriod time.Duration
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	// RetryAttempts is the number of connection attempts; values below 1 mean one.
	RetryAttempts int
	// RetryInterval is the first backoff delay; it doubles after each failure.
	RetryInterval time.Duration
}

func (o Options) poolConfig() (*pgxpool.Config, error) {
	if o.URL == "" {
		return nil, ErrEmptyConnectionString
	}
	pc, err := pgxpool.ParseConfig(o.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConfig, err)
	}
	if o.MaxConns > 0 {
		pc.MaxConns = o.MaxConns
	}
	if o.MinConns > 0 {
		pc.MinConns = o.MinConns
	}
	if o.HealthCheckPeriod > 0 {
		pc.HealthCheckPeriod = o.HealthCheckPeriod
	}
	if o.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = o.MaxConnIdleTime
	}
	if o.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = o.MaxConnLifetime
	}
	return pc, nil
}

// Connect opens a pool and pings it, retrying with exponential backoff.
func Connect(ctx context.Context, opts Options) (*pgxpool.Pool, error) {
	pc, err := opts.poolConfig()
	if err != nil {
		return nil, err
	}
	attempts := max(opts.RetryAttempts, 1)
	delay := opts.RetryInterval
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for i := range attempts {
		if i > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, errors.Join(ErrFailedToConnect, ctx.Err(), lastErr)
			case <-t.C:
			}
			delay *= 2
		}
		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err != nil {
			lastErr = err
			continue
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			lastErr = err
			continue
		}
		return pool, nil
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrFailedToConnect, attempts, lastErr)
}

// Healthcheck returns a function that pings the pool.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
