package hub

import (
	"fmt"
	"sync"

	"github.com/rzbill/relay/internal/store"
	"github.com/rzbill/relay/pkg/log"
)

// Hub fans publishes on one channel out to its subscribers.
type Hub struct {
	channelID int64
	buffer    int
	logger    log.Logger

	mu       sync.Mutex
	subs     map[*Subscriber]struct{}
	seq      Sequence
	closed   bool
	closeErr error
}

// PublishResult summarizes one Publish.
type PublishResult struct {
	Delivery Delivery
	// Delivered counts subscribers the delivery was buffered for.
	Delivered int
	// Filtered counts subscribers whose filter rejected the delivery.
	Filtered int
	// Evicted counts subscribers removed because their buffer was full.
	Evicted int
}

func newHub(channelID int64, buffer int, logger log.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		channelID: channelID,
		buffer:    buffer,
		logger:    logger.With(log.Int64("channel_id", channelID)),
		subs:      make(map[*Subscriber]struct{}),
		seq:       NewSequence(),
	}
}

// ChannelID returns the channel this hub serves.
func (h *Hub) ChannelID() int64 { return h.channelID }

// Subscribe registers a new subscriber. It fails only once the hub is closed.
func (h *Hub) Subscribe(opts ...SubscribeOption) (*Subscriber, error) {
	o := subscribeOptions{buffer: h.buffer}
	for _, opt := range opts {
		opt(&o)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, fmt.Errorf("%w: %w", ErrHubClosed, h.closeErr)
	}
	s := newSubscriber(h, o)
	h.subs[s] = struct{}{}
	h.logger.Debug("subscriber joined", log.Str("subscriber_id", s.id), log.Int("subscribers", len(h.subs)))
	return s, nil
}

// Unsubscribe removes s. Removing a subscriber that already left is a no-op.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	s.end(nil)
	h.logger.Debug("subscriber left", log.Str("subscriber_id", s.id), log.Int("subscribers", len(h.subs)))
}

// Publish assigns msg the next sequence number and offers it to every current
// subscriber. Subscribers with a full buffer are evicted; the publish itself
// never fails for a delivery problem.
func (h *Hub) Publish(msg store.Message) (PublishResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return PublishResult{}, fmt.Errorf("%w: %w", ErrHubClosed, h.closeErr)
	}

	res := PublishResult{Delivery: Delivery{Seq: h.seq.Next(), Message: msg}}
	for s := range h.subs {
		if !s.filter.Match(res.Delivery) {
			res.Filtered++
			continue
		}
		if s.offer(res.Delivery) {
			res.Delivered++
			continue
		}
		delete(h.subs, s)
		s.end(ErrSlowSubscriber)
		res.Evicted++
		h.logger.Warn("evicted slow subscriber",
			log.Str("subscriber_id", s.id),
			log.Uint64("seq", res.Delivery.Seq),
			log.Int("buffer", cap(s.ch)))
	}
	return res, nil
}

// Len returns the number of current subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// NextSeq returns the sequence number the next publish will receive.
func (h *Hub) NextSeq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq.Peek()
}

// Closed reports whether the hub has been closed.
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// close ends every subscriber with reason and rejects further use.
func (h *Hub) close(reason error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.closeErr = reason
	for s := range h.subs {
		delete(h.subs, s)
		s.end(reason)
	}
}
