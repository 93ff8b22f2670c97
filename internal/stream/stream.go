package stream

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rzbill/relay/internal/hub"
	"github.com/rzbill/relay/pkg/log"
)

// DefaultKeepAlive is the keepalive interval when Options leaves it unset.
const DefaultKeepAlive = 10 * time.Second

// State is the lifecycle position of a stream.
type State int32

const (
	StateHandshaking State = iota
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Sink writes stream frames to one client. Each method must flush before
// returning.
type Sink interface {
	Handshake() error
	Deliver(hub.Delivery) error
	Keepalive() error
	// Close writes the final frame when the server ends the stream. It is not
	// called when the client went away.
	Close(reason error) error
}

// Subscriber is the part of hub.Registry a stream needs.
type Subscriber interface {
	Subscribe(channelID int64, opts ...hub.SubscribeOption) (*hub.Subscriber, error)
}

// Options tunes one stream.
type Options struct {
	KeepAlive time.Duration
	Buffer    int
	Filter    *hub.Filter
	Logger    log.Logger
	// OnState observes every state transition. Used by tests.
	OnState func(State)
}

// Stream is one running subscription.
type Stream struct {
	channelID int64
	reg       Subscriber
	sink      Sink
	opts      Options
	logger    log.Logger
	state     atomic.Int32
}

// New prepares a stream; Serve runs it.
func New(reg Subscriber, channelID int64, sink Sink, opts Options) *Stream {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = DefaultKeepAlive
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Stream{
		channelID: channelID,
		reg:       reg,
		sink:      sink,
		opts:      opts,
		logger:    logger.WithComponent("stream").With(log.Int64("channel_id", channelID)),
	}
}

// State returns the current lifecycle state.
func (s *Stream) State() State { return State(s.state.Load()) }

func (s *Stream) setState(st State) {
	s.state.Store(int32(st))
	if s.opts.OnState != nil {
		s.opts.OnState(st)
	}
}

// Serve runs the stream until ctx is done or the subscription ends. It
// returns nil when the client disconnected, the hub's reason when the server
// ended the stream, or the sink's write error.
func (s *Stream) Serve(ctx context.Context) (err error) {
	s.setState(StateHandshaking)
	defer s.setState(StateClosed)

	if err := s.sink.Handshake(); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	subOpts := []hub.SubscribeOption{hub.WithFilter(s.opts.Filter)}
	if s.opts.Buffer > 0 {
		subOpts = append(subOpts, hub.WithBuffer(s.opts.Buffer))
	}
	sub, err := s.reg.Subscribe(s.channelID, subOpts...)
	if err != nil {
		_ = s.sink.Close(err)
		return err
	}
	defer sub.Close()

	logger := s.logger.With(log.Str("subscriber_id", sub.ID()))
	logger.Debug("stream opened", log.Str("filter", s.opts.Filter.String()))
	defer func() {
		if err != nil {
			logger.Debug("stream closed", log.Err(err))
		} else {
			logger.Debug("stream closed")
		}
	}()

	keepalive := time.NewTicker(s.opts.KeepAlive)
	defer keepalive.Stop()

	s.setState(StateStreaming)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-sub.C():
			if err := s.sink.Deliver(d); err != nil {
				return fmt.Errorf("deliver seq %d: %w", d.Seq, err)
			}
		case <-keepalive.C:
			if err := s.sink.Keepalive(); err != nil {
				return fmt.Errorf("keepalive: %w", err)
			}
		case <-sub.Done():
			if err := s.drain(sub); err != nil {
				return err
			}
			reason := sub.Err()
			if reason == nil {
				return nil
			}
			if err := s.sink.Close(reason); err != nil && !errors.Is(err, context.Canceled) {
				logger.Debug("close frame failed", log.Err(err))
			}
			return reason
		}
	}
}

// drain writes deliveries that were buffered before the subscription ended.
func (s *Stream) drain(sub *hub.Subscriber) error {
	for {
		select {
		case d := <-sub.C():
			if err := s.sink.Deliver(d); err != nil {
				return fmt.Errorf("deliver seq %d: %w", d.Seq, err)
			}
		default:
			return nil
		}
	}
}
