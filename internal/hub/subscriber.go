package hub

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rzbill/relay/internal/store"
)

// DefaultBuffer is the per-subscriber delivery buffer when none is set.
const DefaultBuffer = 64

// Delivery is one publish as seen by a subscriber.
type Delivery struct {
	Seq     uint64        `json:"seq"`
	Message store.Message `json:"message"`
}

// Subscriber is one open stream bound to a Hub.
type Subscriber struct {
	id     string
	hub    *Hub
	filter *Filter
	ch     chan Delivery

	once sync.Once
	done chan struct{}
	err  error
}

// SubscribeOption configures a Subscriber.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	buffer int
	filter *Filter
}

// WithBuffer sets the delivery buffer size. Values below 1 are ignored.
func WithBuffer(n int) SubscribeOption {
	return func(o *subscribeOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// WithFilter drops deliveries that f does not match. A nil filter matches
// everything.
func WithFilter(f *Filter) SubscribeOption {
	return func(o *subscribeOptions) { o.filter = f }
}

func newSubscriber(h *Hub, o subscribeOptions) *Subscriber {
	return &Subscriber{
		id:     uuid.NewString(),
		hub:    h,
		filter: o.filter,
		ch:     make(chan Delivery, o.buffer),
		done:   make(chan struct{}),
	}
}

// ID uniquely identifies the subscriber for logs and stats.
func (s *Subscriber) ID() string { return s.id }

// ChannelID is the channel the subscriber is bound to.
func (s *Subscriber) ChannelID() int64 { return s.hub.channelID }

// C yields deliveries in sequence order. It is never closed; select on Done
// as well.
func (s *Subscriber) C() <-chan Delivery { return s.ch }

// Done is closed once the subscriber has left its hub.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Err reports why the subscriber ended: nil after Close, otherwise one of
// ErrChannelDeleted, ErrShutdown or ErrSlowSubscriber. Only meaningful after
// Done is closed.
func (s *Subscriber) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close unsubscribes. Safe to call more than once and after the hub ended
// the subscription.
func (s *Subscriber) Close() {
	s.hub.Unsubscribe(s)
}

// end records err and closes done. Callers hold the hub mutex.
func (s *Subscriber) end(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

// offer hands d to the subscriber without blocking. It reports false when the
// buffer is full.
func (s *Subscriber) offer(d Delivery) bool {
	select {
	case s.ch <- d:
		return true
	default:
		return false
	}
}
