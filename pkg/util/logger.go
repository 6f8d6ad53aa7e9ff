package util

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger: human-readable text at debug level in
// development, JSON at info level everywhere else.
func NewLogger(env string) *slog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("service", "go-crm")
}

// NewDiscardLogger returns a logger that drops everything. Used by tests.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
