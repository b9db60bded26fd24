package log

import "log/slog"

// LevelTrace is more verbose than slog.LevelDebug.
const LevelTrace = slog.Level(-8)

// Verbosity levels accepted by -v.
const (
	VerbosityError = 0 // Errors only
	VerbosityWarn  = 1 // + Warnings (default)
	VerbosityInfo  = 2 // + Resolved stamps, config sources
	VerbosityDebug = 3 // + svn invocations, ignore lists
	VerbosityTrace = 4 // + Per-entry decisions
)

// VerbosityToLevel maps -v=N to a slog level.
func VerbosityToLevel(v int) slog.Level {
	switch {
	case v <= VerbosityError:
		return slog.LevelError
	case v == VerbosityWarn:
		return slog.LevelWarn
	case v == VerbosityInfo:
		return slog.LevelInfo
	case v == VerbosityDebug:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// LevelName returns the display name for a level, including TRACE.
func LevelName(l slog.Level) string {
	if l <= LevelTrace {
		return "TRACE"
	}
	return l.String()
}
