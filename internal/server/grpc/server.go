package grpcserver

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/rzbill/relay/internal/runtime"
	"github.com/rzbill/relay/pkg/log"
)

// ServiceName is the health service name reported alongside the overall "".
const ServiceName = "relay"

// DefaultHealthInterval is how often the store is probed.
const DefaultHealthInterval = 5 * time.Second

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt       *runtime.Runtime
	grpc     *grpc.Server
	health   *health.Server
	lis      net.Listener
	logger   log.Logger
	interval time.Duration
}

// New constructs a gRPC server and registers the standard health and
// reflection services.
func New(rt *runtime.Runtime, logger log.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = rt.Logger()
	}
	s := &Server{
		rt:       rt,
		grpc:     grpc.NewServer(opts...),
		health:   health.NewServer(),
		logger:   logger.WithComponent("grpcserver"),
		interval: DefaultHealthInterval,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	return s
}

// Refresh probes the store once and publishes the result.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.rt.CheckHealth(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("health check failed", log.Err(err))
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

func (s *Server) watch(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, s.interval)
			s.Refresh(pctx)
			cancel()
		}
	}
}

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

// ListenAndServe binds to addr, unless Listen already did, and serves until
// ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if s.lis == nil {
		if err := s.Listen(addr); err != nil {
			return err
		}
	}
	l := s.lis
	s.Refresh(ctx)
	go s.watch(ctx)

	s.logger.Info("grpc listening", log.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	s.health.Shutdown()
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
