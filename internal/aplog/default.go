package aplog

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// NewDefault constructs the process-wide logger. Debug mode gets a human-readable tinted handler at
// debug level; otherwise structured JSON at info level.
func NewDefault(debug bool) *slog.Logger {
	if debug {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level: slog.LevelDebug,
		}))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// NewNop returns a logger that discards everything. Intended for tests.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
