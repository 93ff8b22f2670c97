package serverrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/relay/internal/config"
	"github.com/rzbill/relay/internal/runtime"
	grpcserver "github.com/rzbill/relay/internal/server/grpc"
	httpserver "github.com/rzbill/relay/internal/server/http"
	logpkg "github.com/rzbill/relay/pkg/log"
)

// Options configures Run.
type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
	// Ready, if set, is called with the bound addresses once both listeners
	// are open. grpcAddr is empty when gRPC is disabled.
	Ready func(httpAddr, grpcAddr string)
}

// Run opens the runtime, starts the HTTP and gRPC servers, and blocks until
// ctx is cancelled or a signal arrives. Shutdown ends live streams first,
// then stops the servers, then closes the store.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	procLogger := opts.Logger
	if procLogger == nil {
		l, closer, err := logpkg.ApplyConfig(&logpkg.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cfg.Log.Output,
		})
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer closer.Close()
		procLogger = l
	}
	// Pebble logs through the standard library logger.
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(sctx, runtime.Options{Config: cfg, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	hsrv := httpserver.New(rt, procLogger)
	if err := hsrv.Listen(cfg.HTTPAddr); err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	var gsrv *grpcserver.Server
	if cfg.GRPCAddr != "" {
		gsrv = grpcserver.New(rt, procLogger)
		if err := gsrv.Listen(cfg.GRPCAddr); err != nil {
			hsrv.Close()
			return fmt.Errorf("grpc listen: %w", err)
		}
	}

	procLogger.Info("starting relay server",
		logpkg.Str("http", hsrv.Addr().String()),
		logpkg.Str("grpc", cfg.GRPCAddr),
		logpkg.Str("store", cfg.Store.Driver),
		logpkg.Str("data_dir", cfg.DataDir),
		logpkg.Duration("keepalive", cfg.Stream.KeepAlive.Std()),
		logpkg.Int("stream_buffer", cfg.Stream.Buffer),
	)

	// Servers get their own context so streams can be ended before the
	// listeners stop.
	serveCtx, cancelServe := context.WithCancel(context.Background())
	defer cancelServe()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(serveCtx, cfg.HTTPAddr); err != nil {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	if gsrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gsrv.ListenAndServe(serveCtx, cfg.GRPCAddr); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	if opts.Ready != nil {
		grpcAddr := ""
		if gsrv != nil {
			grpcAddr = gsrv.Addr().String()
		}
		opts.Ready(hsrv.Addr().String(), grpcAddr)
	}

	var runErr error
	select {
	case <-sctx.Done():
	case runErr = <-errCh:
		procLogger.Error("server failed", logpkg.Err(runErr))
	}

	procLogger.Info("shutting down")
	rt.Registry().Close()
	cancelServe()
	wg.Wait()
	if err := rt.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close store: %w", err)
	}
	procLogger.Info("shutdown complete")
	return runErr
}
