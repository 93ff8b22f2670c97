package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/relay/internal/hub"
	"github.com/rzbill/relay/internal/store"
)

type frame struct {
	kind string
	seq  uint64
	err  error
}

type recordingSink struct {
	mu         sync.Mutex
	frames     []frame
	deliverErr error
	notify     chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan struct{}, 128)}
}

func (s *recordingSink) add(f frame) {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *recordingSink) Handshake() error { s.add(frame{kind: "init"}); return nil }
func (s *recordingSink) Keepalive() error { s.add(frame{kind: "keepalive"}); return nil }
func (s *recordingSink) Close(reason error) error {
	s.add(frame{kind: "close", err: reason})
	return nil
}
func (s *recordingSink) Deliver(d hub.Delivery) error {
	if s.deliverErr != nil {
		return s.deliverErr
	}
	s.add(frame{kind: "data", seq: d.Seq})
	return nil
}

func (s *recordingSink) snapshot() []frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]frame(nil), s.frames...)
}

func (s *recordingSink) waitFor(t *testing.T, pred func([]frame) bool) []frame {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if fr := s.snapshot(); pred(fr) {
			return fr
		}
		select {
		case <-s.notify:
		case <-deadline:
			t.Fatalf("condition not met; frames=%v", s.snapshot())
			return nil
		}
	}
}

func count(frames []frame, kind string) int {
	n := 0
	for _, f := range frames {
		if f.kind == kind {
			n++
		}
	}
	return n
}

type serveResult struct {
	err error
}

func start(t *testing.T, ctx context.Context, reg *hub.Registry, ch int64, sink Sink, opts Options) (*Stream, <-chan serveResult) {
	t.Helper()
	st := New(reg, ch, sink, opts)
	done := make(chan serveResult, 1)
	go func() { done <- serveResult{err: st.Serve(ctx)} }()
	return st, done
}

func waitSubscribed(t *testing.T, reg *hub.Registry, ch int64, n int) *hub.Hub {
	t.Helper()
	require.Eventually(t, func() bool {
		h, ok := reg.Find(ch)
		return ok && h.Len() == n
	}, 2*time.Second, 5*time.Millisecond)
	h, _ := reg.Find(ch)
	return h
}

func publish(t *testing.T, h *hub.Hub, id int64) {
	t.Helper()
	_, err := h.Publish(store.Message{ID: id, ChannelID: h.ChannelID(), Username: "u", Content: "c"})
	require.NoError(t, err)
}

func TestServeHandshakeThenDeliveries(t *testing.T) {
	reg := hub.NewRegistry()
	sink := newRecordingSink()
	ctx, cancel := context.WithCancel(context.Background())
	st, done := start(t, ctx, reg, 1, sink, Options{KeepAlive: time.Hour})

	h := waitSubscribed(t, reg, 1, 1)
	require.Eventually(t, func() bool { return st.State() == StateStreaming }, time.Second, time.Millisecond)
	publish(t, h, 10)
	publish(t, h, 11)
	fr := sink.waitFor(t, func(f []frame) bool { return count(f, "data") == 2 })

	assert.Equal(t, "init", fr[0].kind)
	assert.Equal(t, uint64(1), fr[1].seq)
	assert.Equal(t, uint64(2), fr[2].seq)

	cancel()
	res := <-done
	assert.NoError(t, res.err)
	assert.Equal(t, StateClosed, st.State())
	// Client disconnects do not get a close frame and unsubscribe the handle.
	assert.Equal(t, 0, count(sink.snapshot(), "close"))
	assert.Equal(t, 0, h.Len())
}

func TestKeepalivesDoNotConsumeSeq(t *testing.T) {
	reg := hub.NewRegistry()
	sink := newRecordingSink()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, done := start(t, ctx, reg, 1, sink, Options{KeepAlive: 10 * time.Millisecond})

	h := waitSubscribed(t, reg, 1, 1)
	sink.waitFor(t, func(f []frame) bool { return count(f, "keepalive") >= 3 })
	assert.Equal(t, uint64(1), h.NextSeq())

	publish(t, h, 1)
	fr := sink.waitFor(t, func(f []frame) bool { return count(f, "data") == 1 })
	for _, f := range fr {
		if f.kind == "data" {
			assert.Equal(t, uint64(1), f.seq)
		}
	}
	cancel()
	<-done
}

func TestChannelDeletionClosesStream(t *testing.T) {
	reg := hub.NewRegistry()
	sink := newRecordingSink()
	st, done := start(t, context.Background(), reg, 4, sink, Options{KeepAlive: time.Hour})

	h := waitSubscribed(t, reg, 4, 1)
	publish(t, h, 1)
	reg.Remove(4)

	res := <-done
	assert.ErrorIs(t, res.err, hub.ErrChannelDeleted)
	assert.Equal(t, StateClosed, st.State())

	fr := sink.snapshot()
	require.Len(t, fr, 3)
	assert.Equal(t, "data", fr[1].kind)
	assert.Equal(t, "close", fr[2].kind)
	assert.ErrorIs(t, fr[2].err, hub.ErrChannelDeleted)
}

func TestRegistryCloseEndsStream(t *testing.T) {
	reg := hub.NewRegistry()
	sink := newRecordingSink()
	_, done := start(t, context.Background(), reg, 1, sink, Options{})
	waitSubscribed(t, reg, 1, 1)

	reg.Close()
	res := <-done
	assert.ErrorIs(t, res.err, hub.ErrShutdown)
}

func TestSubscribeAfterShutdownFails(t *testing.T) {
	reg := hub.NewRegistry()
	reg.Close()
	sink := newRecordingSink()
	err := New(reg, 1, sink, Options{}).Serve(context.Background())
	assert.ErrorIs(t, err, hub.ErrShutdown)
	fr := sink.snapshot()
	require.Len(t, fr, 2)
	assert.Equal(t, "init", fr[0].kind)
	assert.Equal(t, "close", fr[1].kind)
}

func TestDeliverErrorEndsStream(t *testing.T) {
	reg := hub.NewRegistry()
	sink := newRecordingSink()
	sink.deliverErr = errors.New("broken pipe")
	_, done := start(t, context.Background(), reg, 1, sink, Options{})

	h := waitSubscribed(t, reg, 1, 1)
	publish(t, h, 1)
	res := <-done
	assert.ErrorContains(t, res.err, "broken pipe")
	assert.Equal(t, 0, h.Len())
}

func TestStateTransitions(t *testing.T) {
	reg := hub.NewRegistry()
	var mu sync.Mutex
	var states []State
	ctx, cancel := context.WithCancel(context.Background())
	_, done := start(t, ctx, reg, 1, newRecordingSink(), Options{OnState: func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}})
	waitSubscribed(t, reg, 1, 1)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateHandshaking, StateStreaming, StateClosed}, states)
	assert.Equal(t, "streaming", StateStreaming.String())
}
