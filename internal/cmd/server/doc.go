// Package serverrun exposes the Run entrypoint used by the CLI to start a
// relay node with its HTTP and gRPC servers, handling lifecycle and ordered
// shutdown.
//
// Example:
//
//	cfg := config.Default()
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
