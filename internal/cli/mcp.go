package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/adapters/mcp"
	"github.com/aretw0/palaver/pkg/observability"
	"github.com/aretw0/palaver/pkg/session"
)

// MCPOptions configures the MCP server.
type MCPOptions struct {
	Options

	// Transport is "stdio" (default) or "sse".
	Transport string
	Addr      string

	// PublicURL is the address SSE clients reach the server at.
	PublicURL string
}

// ServeMCP exposes conversations with the configured agent as MCP tools.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	cfg, err := loadConfig(opts.Options, nil)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Stdout carries JSON-RPC; logs go to Stderr only.
	logger := logging.ForMode(cfg.Debug, true)
	mgr, closeStore, err := newManager(ctx, cfg, logger, session.WithHooks(observability.LogHooks(logger)))
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	srv := mcp.NewServer(mgr, cfg.AgentID, mcp.WithLogger(logger))

	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting palaver MCP Server (Stdio)...")
		return srv.ServeStdio()
	case "sse":
		baseURL := opts.PublicURL
		if baseURL == "" {
			baseURL = "http://localhost" + opts.Addr
		}
		if err := srv.ServeSSE(ctx, opts.Addr, baseURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", opts.Transport)
	}
}
