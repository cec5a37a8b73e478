package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://app.augmentedintelligence.co.za/api/v1"

// maxErrorBody caps how much of an error body is kept for diagnostics.
const maxErrorBody = 4096

// Client talks to the remote agent API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// Ensure Client implements both driven ports.
var (
	_ ports.AgentLister = (*Client)(nil)
	_ ports.ChatSender  = (*Client)(nil)
)

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient injects the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger configures a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client authenticating with apiKey as a bearer credential.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type listEnvelope struct {
	Agents     []domain.AgentDescriptor `json:"agents"`
	Pagination struct {
		Total *int `json:"total"`
	} `json:"pagination"`
}

// ListAgents implements ports.AgentLister.
func (c *Client) ListAgents(ctx context.Context) (domain.AgentListing, error) {
	const op = "list agents"

	var env listEnvelope
	if err := c.do(ctx, op, http.MethodGet, c.baseURL+"/agents", nil, &env); err != nil {
		return domain.AgentListing{}, err
	}

	listing := domain.AgentListing{Agents: env.Agents, Total: len(env.Agents)}
	if listing.Agents == nil {
		listing.Agents = []domain.AgentDescriptor{}
	}
	if env.Pagination.Total != nil {
		listing.Total = *env.Pagination.Total
	}
	return listing, nil
}

type chatEnvelope struct {
	Response     *string `json:"response"`
	Conversation struct {
		ThreadID string `json:"threadId"`
	} `json:"conversation"`
}

// Chat implements ports.ChatSender.
func (c *Client) Chat(ctx context.Context, agentID string, req ports.ChatRequest) (ports.ChatReply, error) {
	const op = "chat"

	body, err := json.Marshal(req)
	if err != nil {
		return ports.ChatReply{}, fmt.Errorf("%s: encode request: %w", op, err)
	}

	endpoint := c.baseURL + "/agents/" + url.PathEscape(agentID) + "/chat"

	var env chatEnvelope
	if err := c.do(ctx, op, http.MethodPost, endpoint, body, &env); err != nil {
		return ports.ChatReply{}, err
	}

	reply := ports.ChatReply{
		Response: domain.NoResponse,
		ThreadID: env.Conversation.ThreadID,
	}
	if env.Response != nil {
		reply.Response = *env.Response
	}
	return reply, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("Remote request", "op", op, "method", method, "url", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("Remote non-success", "op", op, "status", resp.StatusCode)
		return &StatusError{Op: op, Status: resp.StatusCode, Body: string(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrapTransport(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
