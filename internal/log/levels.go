// Package log provides structured logging with verbosity levels for tarcycle.
// It follows kubectl/klog -v=N conventions, mapped onto zap level semantics.
package log

import (
	"log/slog"

	"go.uber.org/zap/zapcore"
)

// LevelTrace is a custom trace level (more verbose than debug).
// slog has no trace, so we use a custom level below Debug (-4).
const LevelTrace = slog.Level(-8)

// Verbosity level constants for documentation and reference.
const (
	VerbosityError = 0 // Errors only (quiet, cron-friendly)
	VerbosityWarn  = 1 // + Warnings
	VerbosityInfo  = 2 // + Info (tool found, chain decision, prune summary)
	VerbosityDebug = 3 // + Debug (inventory contents, command lines, timing)
	VerbosityTrace = 4 // + Trace (per-file watch events, full data dumps)
)

// VerbosityToLevel maps -v=N to a slog level.
func VerbosityToLevel(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1:
		return slog.LevelWarn
	case v == 2:
		return slog.LevelInfo
	case v == 3:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// LevelToVerbosity maps a slog level to -v=N (for display).
func LevelToVerbosity(l slog.Level) int {
	switch {
	case l >= slog.LevelError:
		return VerbosityError
	case l >= slog.LevelWarn:
		return VerbosityWarn
	case l >= slog.LevelInfo:
		return VerbosityInfo
	case l >= slog.LevelDebug:
		return VerbosityDebug
	default:
		return VerbosityTrace
	}
}

// zapLevel converts a slog level to the equivalent zap level.
func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l >= slog.LevelError:
		return zapcore.ErrorLevel
	case l >= slog.LevelWarn:
		return zapcore.WarnLevel
	case l >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// LevelName returns the display name for a level, including custom levels.
func LevelName(l slog.Level) string {
	if l <= LevelTrace {
		return "TRACE"
	}
	return zapLevel(l).CapitalString()
}
