// Package grpcserver hosts the gRPC endpoint of a relay node. It serves the
// standard grpc.health.v1.Health service, with status mirrored from the
// store health check, and server reflection.
//
// Example:
//
//	s := grpcserver.New(rt, logger)
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
