package serverrun

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/rzbill/relay/internal/config"
	logpkg "github.com/rzbill/relay/pkg/log"
)

func testConfig(t *testing.T) cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.Store.Fsync = "never"
	cfg.RateLimit.RPS = 0
	return cfg
}

func startServer(t *testing.T, cfg cfgpkg.Config) (string, context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{
			Config: cfg,
			Logger: logpkg.NewNop(),
			Ready:  func(httpAddr, _ string) { ready <- httpAddr },
		})
	}()
	select {
	case addr := <-ready:
		return "http://" + addr, cancel, done
	case err := <-done:
		cancel()
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}
	return "", cancel, done
}

func TestRunServesAndShutsDown(t *testing.T) {
	base, cancel, done := startServer(t, testConfig(t))

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown timed out")
	}
}

func TestShutdownEndsOpenStreams(t *testing.T) {
	base, cancel, done := startServer(t, testConfig(t))

	resp, err := http.Post(base+"/channel", "application/json", strings.NewReader(`{"name":"general"}`))
	require.NoError(t, err)
	var ch struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ch))
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, base+"/events/"+itoa(ch.ID), nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()

	sc := bufio.NewScanner(stream.Body)
	require.True(t, sc.Scan())
	assert.Equal(t, "event: init", sc.Text())

	cancel()

	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	assert.Contains(t, lines, "event: close")
	assert.Contains(t, lines, `data: {"reason":"shutdown"}`)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown timed out")
	}
}

func TestRunRejectsBusyAddress(t *testing.T) {
	cfg := testConfig(t)
	base, cancel, done := startServer(t, cfg)
	defer func() { cancel(); <-done }()

	cfg2 := testConfig(t)
	cfg2.HTTPAddr = strings.TrimPrefix(base, "http://")
	err := Run(context.Background(), Options{Config: cfg2, Logger: logpkg.NewNop()})
	assert.ErrorContains(t, err, "http listen")
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
