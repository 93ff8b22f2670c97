package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	pgstore "github.com/rzbill/relay/internal/storage/postgres"
)

// Migrations holds the postgres schema, applied by pgstore.Migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// PostgresStore keeps channels and messages in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a migrated pool. Close closes pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateChannel(ctx context.Context, name string) (Channel, error) {
	ch := Channel{Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO channels (name) VALUES ($1) RETURNING id`, name).Scan(&ch.ID)
	if err != nil {
		return Channel{}, fmt.Errorf("create channel: %w", err)
	}
	return ch, nil
}

func (s *PostgresStore) GetChannel(ctx context.Context, id int64) (Channel, error) {
	var ch Channel
	err := s.pool.QueryRow(ctx,
		`SELECT id, name FROM channels WHERE id = $1`, id).Scan(&ch.ID, &ch.Name)
	if pgstore.IsNotFoundError(err) {
		return Channel{}, ErrChannelNotFound
	}
	if err != nil {
		return Channel{}, fmt.Errorf("get channel %d: %w", id, err)
	}
	return ch, nil
}

func (s *PostgresStore) ListChannels(ctx context.Context) ([]Channel, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM channels ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Channel, error) {
		var ch Channel
		err := row.Scan(&ch.ID, &ch.Name)
		return ch, err
	})
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	if out == nil {
		out = []Channel{}
	}
	return out, nil
}

func (s *PostgresStore) DeleteChannel(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete channel %d: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) CreateMessage(ctx context.Context, in NewMessage) (Message, error) {
	m := Message{ChannelID: in.ChannelID, Username: in.Username, Content: in.Content}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (content, channelid, username) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		in.Content, in.ChannelID, in.Username,
	).Scan(&m.ID, &m.CreatedAt)
	if pgstore.IsForeignKeyViolationError(err) {
		return Message{}, ErrChannelNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, channelID int64) ([]Message, error) {
	if _, err := s.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, channelid, username, content, created_at FROM messages
		 WHERE channelid = $1 ORDER BY created_at DESC, id DESC`, channelID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var m Message
		err := row.Scan(&m.ID, &m.ChannelID, &m.Username, &m.Content, &m.CreatedAt)
		m.CreatedAt = m.CreatedAt.UTC()
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if out == nil {
		out = []Message{}
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return pgstore.Healthcheck(s.pool)(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
