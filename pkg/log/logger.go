package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

// Format selects the record encoding.
type Format string

const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

// Logger defines the logging interface used across relay components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger that always carries fields.
	With(fields ...Field) Logger
	// WithComponent tags logs with a component name.
	WithComponent(component string) Logger
	// WithError attaches err under the "error" key.
	WithError(err error) Logger

	Enabled(level Level) bool
	SetLevel(level Level)
	GetLevel() Level
}

// LoggerOption configures a BaseLogger.
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	level  Level
	format Format
	out    io.Writer
	redact []string
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(o *loggerOptions) { o.level = level }
}

// WithFormat selects text or JSON output.
func WithFormat(format Format) LoggerOption {
	return func(o *loggerOptions) { o.format = format }
}

// WithOutput sets the destination writer. Defaults to stderr.
func WithOutput(w io.Writer) LoggerOption {
	return func(o *loggerOptions) { o.out = w }
}

// WithRedactedKeys replaces the values of the given attribute keys.
func WithRedactedKeys(keys ...string) LoggerOption {
	return func(o *loggerOptions) { o.redact = append(o.redact, keys...) }
}

// BaseLogger implements Logger on top of slog.
type BaseLogger struct {
	level *slog.LevelVar
	sl    *slog.Logger
}

// NewLogger creates a new logger with the given options.
func NewLogger(options ...LoggerOption) Logger {
	o := loggerOptions{level: InfoLevel, format: TextFormat, out: os.Stderr}
	for _, opt := range options {
		opt(&o)
	}

	lv := new(slog.LevelVar)
	lv.Set(toSlogLevel(o.level))

	var h slog.Handler
	hopts := &slog.HandlerOptions{Level: lv}
	if o.format == JSONFormat {
		h = slog.NewJSONHandler(o.out, hopts)
	} else {
		h = slog.NewTextHandler(o.out, hopts)
	}
	if len(o.redact) > 0 {
		h = newRedactHandler(h, o.redact)
	}
	return &BaseLogger{level: lv, sl: slog.New(h)}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return NewLogger(WithOutput(io.Discard), WithLevel(ErrorLevel))
}

func (l *BaseLogger) log(level Level, msg string, fields []Field) {
	sl := toSlogLevel(level)
	if !l.sl.Enabled(context.Background(), sl) {
		return
	}
	l.sl.LogAttrs(context.Background(), sl, msg, attrs(fields)...)
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	args := make([]any, 0, len(fields))
	for _, a := range attrs(fields) {
		args = append(args, a)
	}
	return &BaseLogger{level: l.level, sl: l.sl.With(args...)}
}

func (l *BaseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

func (l *BaseLogger) WithError(err error) Logger {
	return l.With(Err(err))
}

func (l *BaseLogger) Enabled(level Level) bool {
	return l.sl.Enabled(context.Background(), toSlogLevel(level))
}

// SetLevel changes the level for this logger and every logger derived from it.
func (l *BaseLogger) SetLevel(level Level) { l.level.Set(toSlogLevel(level)) }

func (l *BaseLogger) GetLevel() Level { return fromSlogLevel(l.level.Level()) }

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fromSlogLevel(level slog.Level) Level {
	switch {
	case level <= slog.LevelDebug:
		return DebugLevel
	case level <= slog.LevelInfo:
		return InfoLevel
	case level <= slog.LevelWarn:
		return WarnLevel
	default:
		return ErrorLevel
	}
}
