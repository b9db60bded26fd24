// Package log provides leveled structured logging for svnstamp.
// It wraps log/slog with klog-style -v verbosity levels.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	logger    atomic.Pointer[slog.Logger]
	level     = new(slog.LevelVar)
	verbosity atomic.Int32
)

func init() {
	verbosity.Store(VerbosityWarn)
	level.Set(slog.LevelWarn)
	logger.Store(slog.New(NewHandler(HandlerOptions{
		Level:  level,
		Format: FormatText,
		Output: os.Stderr,
	})))
}

// Init configures the global logger to write to stderr. Call once at startup.
func Init(v int, format string) {
	InitWithOutput(v, format, os.Stderr)
}

// InitWithOutput is Init with an explicit destination.
func InitWithOutput(v int, format string, w io.Writer) {
	SetVerbosity(v)
	l := slog.New(NewHandler(HandlerOptions{
		Level:  level,
		Format: format,
		Output: w,
	}))
	logger.Store(l)
	slog.SetDefault(l)
}

// SetVerbosity changes verbosity at runtime.
func SetVerbosity(v int) {
	verbosity.Store(int32(v))
	level.Set(VerbosityToLevel(v))
}

// Warn logs at warn level (v=1).
func Warn(msg string, args ...any) {
	logger.Load().Warn(msg, args...)
}

// Trace logs at trace level (v=4).
func Trace(msg string, args ...any) {
	logger.Load().Log(context.Background(), LevelTrace, msg, args...)
}

// V returns a logger that only logs if verbosity >= v.
// Usage: log.V(3).Info("detailed", "key", value)
func V(v int) *slog.Logger {
	if int(verbosity.Load()) >= v {
		return logger.Load()
	}
	return slog.New(discardHandler{})
}

// With returns a logger with additional context.
func With(args ...any) *slog.Logger {
	return logger.Load().With(args...)
}

// Component returns a logger tagged with a component name.
func Component(name string) *slog.Logger {
	return logger.Load().With("component", name)
}
