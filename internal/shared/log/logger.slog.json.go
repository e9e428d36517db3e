// Package log builds the process-wide structured logger.
package log

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// NewJSONLogger creates a JSON slog logger writing to stdout at the given
// level ("debug", "info", "warn", "error"; anything else means info).
// The level is fixed at construction: the logger is built from the initial
// configuration and deliberately not rebuilt on reload, so startup failures
// stay observable with a working logger.
func NewJSONLogger(level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, attr.Value.Time().UTC().Format(time.RFC3339))
			}
			return attr
		},
	})

	return slog.New(handler)
}

// ParseLevel maps a config string to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
