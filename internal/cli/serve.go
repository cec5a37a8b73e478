package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/palaver/internal/config"
	"github.com/aretw0/palaver/internal/logging"
	httpAdapter "github.com/aretw0/palaver/pkg/adapters/http"
	"github.com/aretw0/palaver/pkg/adapters/memory"
	"github.com/aretw0/palaver/pkg/adapters/redis"
	"github.com/aretw0/palaver/pkg/observability"
	"github.com/aretw0/palaver/pkg/persistence/middleware"
	"github.com/aretw0/palaver/pkg/ports"
	"github.com/aretw0/palaver/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures the HTTP gateway.
type ServeOptions struct {
	Options

	// Addr and RedisAddr override the configured listener and store when set.
	Addr      string
	RedisAddr string
}

// Serve runs the HTTP gateway until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, opts ServeOptions) error {
	overrides := map[string]any{}
	if opts.Addr != "" {
		overrides["http.addr"] = opts.Addr
	}
	if opts.RedisAddr != "" {
		overrides["redis.addr"] = opts.RedisAddr
	}
	cfg, err := loadConfig(opts.Options, overrides)
	if err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	logger := logging.ForMode(cfg.Debug, true)
	handler, closeStore, err := buildGateway(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("Failed to close session store", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting palaver gateway", "address", srv.Addr, "default_agent", cfg.AgentID, "redis", cfg.Redis.Addr != "")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Start shutdown...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("palaver gateway stopped gracefully")
		return nil
	}
}

// buildGateway wires the remote client, session store, metrics and SSE streams
// behind the gateway router. The returned func releases the store.
func buildGateway(ctx context.Context, cfg *config.Config, logger *slog.Logger) (http.Handler, func() error, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)
	streams := httpAdapter.NewStreamManager(logger)

	mgr, closeStore, err := newManager(ctx, cfg, logger,
		session.WithHooks(observability.Combine(metrics.Hooks(), observability.LogHooks(logger))),
		session.WithObserver(streams.Observe),
	)
	if err != nil {
		return nil, nil, err
	}

	handler := httpAdapter.NewHandler(mgr,
		httpAdapter.WithStreams(streams),
		httpAdapter.WithDefaultAgent(cfg.AgentID),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
		httpAdapter.WithLogger(logger),
	)
	return handler, closeStore, nil
}

// newManager builds a session manager over Redis when an address is configured,
// and over process memory otherwise.
func newManager(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...session.Option) (*session.Manager, func() error, error) {
	client := newClient(cfg, logger)
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithTimeout(cfg.Timeout),
	}

	var store ports.StateStore = memory.NewStore()
	closeStore := func() error { return nil }

	if cfg.Redis.Addr != "" {
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		store = rs
		closeStore = rs.Close
		opts = append(opts, session.WithLocker(redis.NewLocker(rs.Client(), cfg.Redis.Prefix)))
		logger.Debug("Using redis session store", "address", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
	}

	protected, err := protectStore(store, cfg.Store)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	opts = append(opts, extra...)
	return session.NewManager(protected, client, client, opts...), closeStore, nil
}

// protectStore masks then encrypts conversations on their way into store.
func protectStore(store ports.StateStore, cfg config.StoreConfig) (ports.StateStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Redact))
	}
	if cfg.Key != "" {
		active, err := middleware.ParseKey(cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("invalid store key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("invalid fallback store key #%d: %w", i+1, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return middleware.Chain(store, mws...), nil
}
