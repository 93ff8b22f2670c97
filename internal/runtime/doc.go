// Package runtime wires the configured store and the in-process hub registry
// into a single relay instance. It exposes Open/Close, a health check, and
// accessors used by the chat service and the transports.
//
// Example:
//
//	cfg := config.Default()
//	cfg.DataDir = "./data"
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(ctx)
//	sub, _ := rt.Registry().Subscribe(1)
package runtime
