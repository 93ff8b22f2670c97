package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	pebblestore "github.com/rzbill/relay/internal/storage/pebble"
)

// PebbleStore keeps channels and messages in an embedded Pebble database.
type PebbleStore struct {
	db  *pebblestore.DB
	now func() time.Time

	// mu serializes writers so id allocation and the channel existence
	// check in CreateMessage are atomic with respect to DeleteChannel.
	// Readers hold it shared so Close cannot release db under them.
	mu     sync.RWMutex
	closed bool
}

// PebbleOption configures a PebbleStore.
type PebbleOption func(*PebbleStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) PebbleOption {
	return func(s *PebbleStore) { s.now = now }
}

// NewPebble wraps an open Pebble database. Close closes db.
func NewPebble(db *pebblestore.DB, opts ...PebbleOption) *PebbleStore {
	s := &PebbleStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PebbleStore) nextID(key []byte) (int64, error) {
	b, err := s.db.Get(key)
	if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
		return 0, err
	}
	return decodeSeq(b) + 1, nil
}

func (s *PebbleStore) CreateChannel(ctx context.Context, name string) (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Channel{}, ErrClosed
	}
	id, err := s.nextID(seqChannelKey)
	if err != nil {
		return Channel{}, fmt.Errorf("allocate channel id: %w", err)
	}
	ch := Channel{ID: id, Name: name}
	val, err := json.Marshal(ch)
	if err != nil {
		return Channel{}, err
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(seqChannelKey, encodeSeq(id), nil); err != nil {
		return Channel{}, err
	}
	if err := b.Set(channelKey(id), val, nil); err != nil {
		return Channel{}, err
	}
	if err := s.db.CommitBatch(b); err != nil {
		return Channel{}, fmt.Errorf("create channel: %w", err)
	}
	return ch, nil
}

func (s *PebbleStore) GetChannel(ctx context.Context, id int64) (Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Channel{}, ErrClosed
	}
	return s.getChannel(id)
}

// getChannel reads a channel record; callers hold mu.
func (s *PebbleStore) getChannel(id int64) (Channel, error) {
	b, err := s.db.Get(channelKey(id))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Channel{}, ErrChannelNotFound
	}
	if err != nil {
		return Channel{}, err
	}
	var ch Channel
	if err := json.Unmarshal(b, &ch); err != nil {
		return Channel{}, fmt.Errorf("decode channel %d: %w", id, err)
	}
	return ch, nil
}

func (s *PebbleStore) ListChannels(ctx context.Context) ([]Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := []Channel{}
	var decodeErr error
	err := s.db.Scan(chanPrefix, false, func(_, v []byte) bool {
		var ch Channel
		if decodeErr = json.Unmarshal(v, &ch); decodeErr != nil {
			return false
		}
		out = append(out, ch)
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode channel: %w", decodeErr)
	}
	return out, nil
}

func (s *PebbleStore) DeleteChannel(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Delete(channelKey(id), nil); err != nil {
		return err
	}
	if err := pebblestore.DeletePrefix(b, messagesPrefix(id)); err != nil {
		return err
	}
	if err := s.db.CommitBatch(b); err != nil {
		return fmt.Errorf("delete channel %d: %w", id, err)
	}
	return nil
}

func (s *PebbleStore) CreateMessage(ctx context.Context, in NewMessage) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Message{}, ErrClosed
	}
	if _, err := s.getChannel(in.ChannelID); err != nil {
		return Message{}, err
	}
	id, err := s.nextID(seqMessageKey)
	if err != nil {
		return Message{}, fmt.Errorf("allocate message id: %w", err)
	}
	msg := Message{
		ID:        id,
		ChannelID: in.ChannelID,
		Username:  in.Username,
		Content:   in.Content,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	val, err := json.Marshal(msg)
	if err != nil {
		return Message{}, err
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(seqMessageKey, encodeSeq(id), nil); err != nil {
		return Message{}, err
	}
	if err := b.Set(messageKey(in.ChannelID, id), val, nil); err != nil {
		return Message{}, err
	}
	if err := s.db.CommitBatch(b); err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// ListMessages relies on message ids being allocated in creation order, so a
// reverse key scan is newest first.
func (s *PebbleStore) ListMessages(ctx context.Context, channelID int64) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if _, err := s.getChannel(channelID); err != nil {
		return nil, err
	}
	out := []Message{}
	var decodeErr error
	err := s.db.Scan(messagesPrefix(channelID), true, func(_, v []byte) bool {
		var m Message
		if decodeErr = json.Unmarshal(v, &m); decodeErr != nil {
			return false
		}
		out = append(out, m)
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode message: %w", decodeErr)
	}
	return out, nil
}

func (s *PebbleStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Ping()
}

func (s *PebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
