// Package log provides structured logging for the JAM node. It wraps Go's
// log/slog with protocol-specific conveniences such as per-subsystem child
// loggers and a disable-able tracing sink.
package log

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with per-module context.
type Logger struct {
	inner *slog.Logger
}

// defaultLogger is the process-wide logger used by the package-level
// convenience functions.
var defaultLogger *Logger

func init() {
	defaultLogger = New(slog.LevelInfo)
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{inner: slog.New(h)}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler. This
// is useful for testing or for writing to a custom destination.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Module returns a child logger with an additional "module" attribute. This
// is the primary way subsystems (pvm, safrole, accumulate, codec, ...)
// obtain their own contextual logger.
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With("module", name)}
}

// TraceSink is a write-only, optionally-disabled destination for PVM step
// traces and host-call traces. It holds no state the STF reads back, so
// enabling or disabling it never changes execution outcomes.
type TraceSink struct {
	logger  *Logger
	enabled bool
}

// NewTraceSink creates a disabled trace sink bound to the given logger.
func NewTraceSink(l *Logger) *TraceSink {
	if l == nil {
		l = Default()
	}
	return &TraceSink{logger: l.Module("trace")}
}

// Enable turns tracing on.
func (t *TraceSink) Enable() { t.enabled = true }

// Disable turns tracing off.
func (t *TraceSink) Disable() { t.enabled = false }

// Enabled reports whether the sink currently accepts events.
func (t *TraceSink) Enabled() bool { return t != nil && t.enabled }

// Emit records a trace event if the sink is enabled; otherwise it is a no-op.
func (t *TraceSink) Emit(msg string, args ...any) {
	if t == nil || !t.enabled {
		return
	}
	t.logger.Debug(msg, args...)
}

// With returns a child logger with additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// ---------------------------------------------------------------------------
// Package-level convenience functions -- delegate to defaultLogger.
// ---------------------------------------------------------------------------

// Debug logs at LevelDebug using the default logger.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

// Info logs at LevelInfo using the default logger.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs at LevelWarn using the default logger.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs at LevelError using the default logger.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
