package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/internal/config"
	"github.com/aretw0/palaver/pkg/adapters/remote"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// Options carries the flags shared by every command.
type Options struct {
	ConfigFile string
	Debug      bool
	BaseURL    string
	AgentID    string
	JSON       bool

	// In and Out default to Stdin and Stdout.
	In  io.Reader
	Out io.Writer

	// LookupEnv overrides os.LookupEnv, for tests.
	LookupEnv func(string) (string, bool)
}

func (o Options) stdout() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o Options) stdin() io.Reader {
	if o.In == nil {
		return os.Stdin
	}
	return o.In
}

// loadConfig layers the explicitly set flags over file and environment.
func loadConfig(opts Options, overrides map[string]any) (*config.Config, error) {
	if overrides == nil {
		overrides = map[string]any{}
	}
	if opts.Debug {
		overrides["debug"] = true
	}
	if opts.BaseURL != "" {
		overrides["base_url"] = opts.BaseURL
	}
	if opts.AgentID != "" {
		overrides["agent_id"] = opts.AgentID
	}
	return config.Load(config.LoadOptions{
		File:      opts.ConfigFile,
		LookupEnv: opts.LookupEnv,
		Overrides: overrides,
	})
}

func newClient(cfg *config.Config, logger *slog.Logger) *remote.Client {
	return remote.NewClient(cfg.APIKey,
		remote.WithBaseURL(cfg.BaseURL),
		remote.WithUserAgent("palaver/"+strings.TrimSpace(palaver.Version)),
		remote.WithLogger(logger),
	)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}
