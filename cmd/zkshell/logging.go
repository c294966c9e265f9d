package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// newLogger returns a text logger tagged with a fresh session id.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("session", uuid.NewString())
}

// storeLogf forwards store client diagnostics to logger at debug level.
func storeLogf(logger *slog.Logger) func(format string, args ...any) {
	return func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...), "component", "store")
	}
}
