package logging

import (
	"log/slog"
)

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return slog.New(slog.DiscardHandler)
}
