// Package logging builds the slog loggers used across tvgrid.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/chris/tvgrid/internal/config"
)

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unrecognised strings fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// New creates a text logger writing to w at the given level.
func New(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// NewJSON creates a JSON logger writing to w at the given level.
func NewJSON(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// Rotating returns a size-rotated log file writer. The terminal belongs to
// the grid while it runs, so interactive commands log here instead.
func Rotating(cfg config.Logging) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
}

// NewFile creates a logger writing to the rotating file from cfg. The
// returned closer flushes and closes the file.
func NewFile(cfg config.Logging) (*slog.Logger, io.Closer) {
	w := Rotating(cfg)
	return New(cfg.Level, w), w
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
