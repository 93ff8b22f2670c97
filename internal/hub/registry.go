package hub

import (
	"errors"
	"slices"
	"sync"

	"github.com/rzbill/relay/pkg/log"
)

// Registry maps channel ids to their hubs.
type Registry struct {
	buffer int
	logger log.Logger

	mu     sync.RWMutex
	hubs   map[int64]*Hub
	closed bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaultBuffer sets the subscriber buffer for hubs the registry creates.
func WithDefaultBuffer(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.buffer = n
		}
	}
}

// WithLogger sets the logger used by the registry and its hubs.
func WithLogger(l log.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		buffer: DefaultBuffer,
		logger: log.NewNop(),
		hubs:   make(map[int64]*Hub),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("hub")
	return r
}

// GetOrCreate returns the hub for channelID, creating an empty one if needed.
// After Close it returns a detached hub that is already closed.
func (r *Registry) GetOrCreate(channelID int64) *Hub {
	r.mu.RLock()
	h, ok := r.hubs[channelID]
	closed := r.closed
	r.mu.RUnlock()
	if ok {
		return h
	}
	if closed {
		return r.closedHub(channelID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.closedHub(channelID)
	}
	if h, ok := r.hubs[channelID]; ok {
		return h
	}
	h = newHub(channelID, r.buffer, r.logger)
	r.hubs[channelID] = h
	r.logger.Debug("hub created", log.Int64("channel_id", channelID))
	return h
}

func (r *Registry) closedHub(channelID int64) *Hub {
	h := newHub(channelID, r.buffer, r.logger)
	h.close(ErrShutdown)
	return h
}

// Find returns the hub for channelID without creating one.
func (r *Registry) Find(channelID int64) (*Hub, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hubs[channelID]
	return h, ok
}

// Remove drops the hub for channelID and ends its subscribers with
// ErrChannelDeleted. It reports whether a hub existed.
func (r *Registry) Remove(channelID int64) bool {
	r.mu.Lock()
	h, ok := r.hubs[channelID]
	if ok {
		delete(r.hubs, channelID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	h.close(ErrChannelDeleted)
	r.logger.Debug("hub removed", log.Int64("channel_id", channelID))
	return true
}

// Subscribe gets or creates the hub for channelID and subscribes to it. If the
// hub is removed between the lookup and the subscribe, a fresh hub is used.
func (r *Registry) Subscribe(channelID int64, opts ...SubscribeOption) (*Subscriber, error) {
	for {
		h := r.GetOrCreate(channelID)
		s, err := h.Subscribe(opts...)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrHubClosed) || errors.Is(err, ErrShutdown) {
			return nil, err
		}
		if cur, ok := r.Find(channelID); ok && cur == h {
			return nil, err
		}
	}
}

// Close ends every subscriber with ErrShutdown and drops all hubs. Later
// subscribes fail with ErrShutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	hubs := r.hubs
	r.hubs = make(map[int64]*Hub)
	r.mu.Unlock()

	for _, h := range hubs {
		h.close(ErrShutdown)
	}
	r.logger.Info("registry closed", log.Int("hubs", len(hubs)))
}

// HubStats describes one hub for the stats endpoint.
type HubStats struct {
	ChannelID   int64  `json:"channelId"`
	Subscribers int    `json:"subscribers"`
	NextSeq     uint64 `json:"nextSeq"`
}

// Snapshot returns stats for every hub ordered by channel id.
func (r *Registry) Snapshot() []HubStats {
	r.mu.RLock()
	hubs := make([]*Hub, 0, len(r.hubs))
	for _, h := range r.hubs {
		hubs = append(hubs, h)
	}
	r.mu.RUnlock()

	out := make([]HubStats, 0, len(hubs))
	for _, h := range hubs {
		h.mu.Lock()
		out = append(out, HubStats{ChannelID: h.channelID, Subscribers: len(h.subs), NextSeq: h.seq.Peek()})
		h.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b HubStats) int {
		switch {
		case a.ChannelID < b.ChannelID:
			return -1
		case a.ChannelID > b.ChannelID:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of live hubs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hubs)
}
