package log

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Config is the declarative form of a logger.
type Config struct {
	Level  string
	Format string
	// Output is "stderr" (default), "stdout", "discard" or a file path.
	Output string
	Redact []string
}

// ApplyConfig builds a Logger from cfg. The returned closer releases the
// output file, if any; it is never nil.
func ApplyConfig(cfg *Config) (Logger, io.Closer, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nopCloser{}, err
	}

	var format Format
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		format = TextFormat
	case "json":
		format = JSONFormat
	default:
		return nil, nopCloser{}, fmt.Errorf("log: unknown format %q", cfg.Format)
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		out = os.Stdout
	case "discard":
		out = io.Discard
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("log: open output: %w", err)
		}
		out, closer = f, f
	}

	l := NewLogger(
		WithLevel(level),
		WithFormat(format),
		WithOutput(out),
		WithRedactedKeys(cfg.Redact...),
	)
	return l, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
