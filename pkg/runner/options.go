package runner

import "log/slog"

// Option customises a Runner built by NewRunner.
type Option func(*Runner)

// WithLogger sets the logger for loop diagnostics such as failed turns and
// closed input. A nil logger keeps the silent default.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithIOHandler sets where the chat reads lines and renders turns, e.g. a
// TextHandler for a terminal or a JSONHandler for scripts.
func WithIOHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}
