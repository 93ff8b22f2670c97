package pgstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/rzbill/relay/pkg/log"
)

var ErrFailedToApplyMigrations = errors.New("pgstore: failed to apply migrations")

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// MigrateOptions selects the migration source and bookkeeping table.
type MigrateOptions struct {
	FS    fs.FS
	Dir   string
	Table string
}

// Migrate applies every pending migration in opts.FS/opts.Dir.
func Migrate(ctx context.Context, pool *pgxpool.Pool, opts MigrateOptions, logger log.Logger) error {
	if opts.FS == nil {
		return fmt.Errorf("%w: no migration source", ErrFailedToApplyMigrations)
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if logger == nil {
		logger = log.NewNop()
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(opts.FS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{logger.WithComponent("migrate")})
	if opts.Table != "" {
		goose.SetTableName(opts.Table)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, opts.Dir); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

type gooseLogger struct{ l log.Logger }

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Info(trimNewline(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(trimNewline(fmt.Sprintf(format, v...)))
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
