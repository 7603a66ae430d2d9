// Package logger provides structured logging using Go 1.21's log/slog.
// It sets up a JSON handler with service-level context; engine components
// receive the logger by injection rather than reaching for a global.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Init creates a structured logger for the given service, writing JSON to
// stdout, and installs it as the process default so bare slog calls share
// the same output.
func Init(service string, level slog.Level) *slog.Logger {
	logger := New(os.Stdout, service, level)
	slog.SetDefault(logger)
	return logger
}

// New builds the JSON logger over an arbitrary writer with the service name
// embedded in every record. Init wraps this for the stdout default.
func New(w io.Writer, service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With(
		slog.String("service", service),
	)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
