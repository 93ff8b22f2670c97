package runtime

import (
	"context"
	"errors"
	"testing"

	cfgpkg "github.com/rzbill/relay/internal/config"
	"github.com/rzbill/relay/internal/hub"
	"github.com/rzbill/relay/internal/store"
)

func testConfig(t *testing.T) cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.Store.Fsync = "never"
	return cfg
}

func TestOpenCloseHealth(t *testing.T) {
	rt, err := Open(context.Background(), Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if rt.Config().Store.Driver != cfgpkg.DriverPebble {
		t.Fatalf("driver: %q", rt.Config().Store.Driver)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "sqlite"
	if _, err := Open(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestCloseEndsStreamsAndStore(t *testing.T) {
	rt, err := Open(context.Background(), Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ch, err := rt.Store().CreateChannel(context.Background(), "general")
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	sub, err := rt.Registry().Subscribe(ch.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	<-sub.Done()
	if !errors.Is(sub.Err(), hub.ErrShutdown) {
		t.Fatalf("subscriber err = %v", sub.Err())
	}
	if err := rt.CheckHealth(context.Background()); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("health after close = %v", err)
	}
}
