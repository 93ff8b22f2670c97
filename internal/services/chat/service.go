package chatsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rzbill/relay/internal/hub"
	"github.com/rzbill/relay/internal/runtime"
	"github.com/rzbill/relay/internal/store"
	logpkg "github.com/rzbill/relay/pkg/log"
)

var (
	// ErrInvalidArgument wraps validation failures.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoSubscribers reports a broadcast to a channel without a hub. The
	// message is still persisted.
	ErrNoSubscribers = errors.New("no active subscribers")
)

// Service combines the store and the hub registry.
type Service struct {
	store    store.Store
	registry *hub.Registry
	logger   logpkg.Logger
}

// New builds a Service over rt.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, rt.Logger())
}

// NewWithLogger allows injecting a custom logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewNop()
	}
	return &Service{
		store:    rt.Store(),
		registry: rt.Registry(),
		logger:   logger.WithComponent("chat"),
	}
}

func invalid(field string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalidArgument, field)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// CreateChannel persists a new channel.
func (s *Service) CreateChannel(ctx context.Context, name string) (store.Channel, error) {
	if blank(name) {
		return store.Channel{}, invalid("name")
	}
	ch, err := s.store.CreateChannel(ctx, name)
	if err != nil {
		return store.Channel{}, err
	}
	s.logger.Info("channel created", logpkg.Int64("channel_id", ch.ID), logpkg.Str("name", ch.Name))
	return ch, nil
}

// ListChannels returns every channel ordered by id.
func (s *Service) ListChannels(ctx context.Context) ([]store.Channel, error) {
	return s.store.ListChannels(ctx)
}

// DeleteChannel removes the channel with its messages, then removes its hub,
// which ends any open streams with hub.ErrChannelDeleted.
func (s *Service) DeleteChannel(ctx context.Context, id int64) error {
	if err := s.store.DeleteChannel(ctx, id); err != nil {
		return err
	}
	hadHub := s.registry.Remove(id)
	s.logger.Info("channel deleted", logpkg.Int64("channel_id", id), logpkg.Bool("had_hub", hadHub))
	return nil
}

// ListMessages returns the channel's messages newest first.
func (s *Service) ListMessages(ctx context.Context, channelID int64) ([]store.Message, error) {
	return s.store.ListMessages(ctx, channelID)
}

// PostMessage validates, persists, and broadcasts a message. When the store
// write succeeds the returned message is valid even if err is
// ErrNoSubscribers.
func (s *Service) PostMessage(ctx context.Context, channelID int64, content, username string) (store.Message, error) {
	if blank(content) {
		return store.Message{}, invalid("content")
	}
	if blank(username) {
		return store.Message{}, invalid("username")
	}
	msg, err := s.store.CreateMessage(ctx, store.NewMessage{
		ChannelID: channelID,
		Content:   content,
		Username:  username,
	})
	if err != nil {
		return store.Message{}, err
	}
	if _, err := s.Broadcast(msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// Broadcast publishes an already persisted message to the channel's hub. It
// never touches the store.
func (s *Service) Broadcast(msg store.Message) (hub.PublishResult, error) {
	h, ok := s.registry.Find(msg.ChannelID)
	if !ok {
		return hub.PublishResult{}, fmt.Errorf("channel %d: %w", msg.ChannelID, ErrNoSubscribers)
	}
	res, err := h.Publish(msg)
	if errors.Is(err, hub.ErrHubClosed) {
		return hub.PublishResult{}, fmt.Errorf("channel %d: %w", msg.ChannelID, ErrNoSubscribers)
	}
	if err != nil {
		return hub.PublishResult{}, err
	}
	s.logger.Debug("message broadcast",
		logpkg.Int64("channel_id", msg.ChannelID),
		logpkg.Int64("message_id", msg.ID),
		logpkg.Uint64("seq", res.Delivery.Seq),
		logpkg.Int("delivered", res.Delivered),
		logpkg.Int("evicted", res.Evicted))
	return res, nil
}

// Stats returns per-hub subscriber counts.
func (s *Service) Stats() []hub.HubStats {
	return s.registry.Snapshot()
}

// Registry exposes the hub registry to stream transports.
func (s *Service) Registry() *hub.Registry { return s.registry }
