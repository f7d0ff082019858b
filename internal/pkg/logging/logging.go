// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a config level name to a slog level. Unknown names, and
// the empty string, mean info.
func ParseLevel(name string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// New builds a logger writing to w. format is "json" (default) or "text".
// attrs are attached to every record.
func New(w io.Writer, level, format string, attrs ...any) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With(attrs...)
}

// Setup installs a stdout logger as slog's default and returns it.
func Setup(level, format string, attrs ...any) *slog.Logger {
	logger := New(os.Stdout, level, format, attrs...)
	slog.SetDefault(logger)
	return logger
}
