package logging

import (
	"log/slog"
	"os"
)

// New creates a configured application logger.
// It writes to Stderr so it never interleaves with the transcript on Stdout.
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, options(level)))
}

// NewJSON creates a JSON logger on Stderr, used by the long-running server modes.
func NewJSON(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, options(level)))
}

// ForMode picks the logger for a CLI invocation: debug output goes to Stderr,
// otherwise everything is discarded except in server modes, which keep Info.
func ForMode(debug, server bool) *slog.Logger {
	switch {
	case server && debug:
		return NewJSON(slog.LevelDebug)
	case server:
		return NewJSON(slog.LevelInfo)
	case debug:
		return New(slog.LevelDebug)
	default:
		return NewNop()
	}
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func options(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
}
