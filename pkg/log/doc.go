// Package log provides relay's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. It is backed by the standard library
// slog handlers (text or JSON), so records written through the facade and
// records written by slog-aware libraries end up in the same stream.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormat(log.TextFormat),
//	)
//	l = l.With(log.Component("server"), log.Int64("channel", 42))
//	l.Info("server started", log.Str("addr", ":8080"))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config (level, format,
// output and redacted keys).
//
// # Interop
//
// Pebble and a few other dependencies log through the standard library
// *log.Logger. RedirectStdLog points it at a facade logger.
package log
