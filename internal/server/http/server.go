package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rzbill/relay/internal/runtime"
	"github.com/rzbill/relay/internal/server/http/controllers"
	"github.com/rzbill/relay/internal/server/http/middleware"
	chatsvc "github.com/rzbill/relay/internal/services/chat"
	"github.com/rzbill/relay/pkg/log"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 5 * time.Second

// Server is the relay HTTP API.
type Server struct {
	rt      *runtime.Runtime
	srv     *http.Server
	lis     net.Listener
	limiter *middleware.RateLimiter
	logger  log.Logger
}

// New builds the router and every controller over rt.
func New(rt *runtime.Runtime, logger log.Logger) *Server {
	if logger == nil {
		logger = rt.Logger()
	}
	logger = logger.WithComponent("httpserver")
	cfg := rt.Config()

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.AccessLog(logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}` + "\n"))
	})

	s := &Server{rt: rt, logger: logger}
	limited := r.NewRoute().Subrouter()
	if cfg.RateLimit.RPS > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		limited.Use(s.limiter.Middleware())
	}

	chat := chatsvc.NewWithLogger(rt, logger)
	controllers.NewControllerRegistry(rt, chat, logger).RegisterAllRoutes(r, limited)

	s.srv = &http.Server{
		Handler:           middleware.CORS(cfg.CORS.AllowedOrigins)(r),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.ToStdLogger(logger, log.WarnLevel),
	}
	return s
}

// Handler exposes the root handler for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Listen binds addr without serving yet.
func (s *Server) Listen(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	return nil
}

// Addr returns the bound address once listening.
func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
// Callers close the hub registry first so open streams return promptly.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if s.lis == nil {
		if err := s.Listen(addr); err != nil {
			return err
		}
	}
	s.logger.Info("http listening", log.Str("addr", s.lis.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.lis) }()
	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown() error {
	defer s.stopLimiter()
	cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(cctx); err != nil {
		s.logger.Warn("http shutdown incomplete", log.Err(err))
		return s.srv.Close()
	}
	return nil
}

// Close closes the listener and every connection immediately.
func (s *Server) Close() {
	s.stopLimiter()
	_ = s.srv.Close()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func (s *Server) stopLimiter() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}
