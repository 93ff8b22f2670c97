package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrChannelNotFound is returned when a channel id has no row.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store closed")
)

// Channel is a named topic messages are posted into.
type Channel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Message is a persisted chat message. The JSON shape is the stream payload.
type Message struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channelId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage is the input to CreateMessage.
type NewMessage struct {
	ChannelID int64
	Content   string
	Username  string
}

// Store is the durable channel/message repository.
type Store interface {
	CreateChannel(ctx context.Context, name string) (Channel, error)
	GetChannel(ctx context.Context, id int64) (Channel, error)
	// ListChannels returns all channels ordered by id ascending.
	ListChannels(ctx context.Context) ([]Channel, error)
	// DeleteChannel removes the channel and all of its messages. Deleting a
	// missing channel is not an error.
	DeleteChannel(ctx context.Context, id int64) error

	// CreateMessage persists msg and returns it with id and created_at set.
	// Unknown channels yield ErrChannelNotFound.
	CreateMessage(ctx context.Context, msg NewMessage) (Message, error)
	// ListMessages returns the channel's messages newest first. Unknown
	// channels yield ErrChannelNotFound.
	ListMessages(ctx context.Context, channelID int64) ([]Message, error)

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*PebbleStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
