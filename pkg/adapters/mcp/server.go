package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/conversation"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AgentURI is the resource describing the default agent.
const AgentURI = "palaver://agent"

// TurnResponse is the structured result of send_message.
type TurnResponse struct {
	SessionID string                   `json:"session_id" jsonschema_description:"The session the turn ran in"`
	Reply     string                   `json:"reply" jsonschema_description:"The assistant message appended by this turn"`
	Class     string                   `json:"class" jsonschema_description:"ok, quota_exhausted, rate_limited, timed_out or generic_failure"`
	State     domain.ConversationState `json:"state" jsonschema_description:"The conversation after the turn"`
}

// StateResponse is the structured result of reset_conversation and get_history.
type StateResponse struct {
	SessionID   string                   `json:"session_id" jsonschema_description:"The session"`
	State       domain.ConversationState `json:"state" jsonschema_description:"The current conversation"`
	Suggestions []string                 `json:"suggestions,omitempty" jsonschema_description:"Suggested questions, offered while the transcript is empty"`
}

// Sessions is the session API the MCP server drives. *session.Manager implements it.
type Sessions interface {
	Start(ctx context.Context, agentID string) (*domain.Session, error)
	Send(ctx context.Context, sessionID, freeform string) (domain.ConversationState, conversation.Turn, error)
	Reset(ctx context.Context, sessionID string) (domain.ConversationState, error)
	State(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Server exposes conversations with one configured agent as MCP tools.
// Calls that name no session_id share a default session started on first use.
type Server struct {
	sessions  Sessions
	agentID   string
	logger    *slog.Logger
	mcpServer *server.MCPServer

	mu        sync.Mutex
	defaultID string
	agent     *domain.AgentDescriptor
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions Sessions, agentID string, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		agentID:   agentID,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("palaver-mcp", strings.TrimSpace(palaver.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a message to the agent and get its reply. Failed calls still return a short apology as the reply."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The message to send")),
		mcp.WithString("session_id", mcp.Description("Session to continue (optional, defaults to the shared session)")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	resetTool := mcp.NewTool("reset_conversation",
		mcp.WithDescription("Clear the conversation history and start a new thread with the agent."),
		mcp.WithString("session_id", mcp.Description("Session to reset (optional)")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(resetTool, mcp.NewStructuredToolHandler(s.handleReset))

	historyTool := mcp.NewTool("get_history",
		mcp.WithDescription("Get the conversation history of a session."),
		mcp.WithString("session_id", mcp.Description("Session to read (optional)")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(historyTool, mcp.NewStructuredToolHandler(s.handleHistory))
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	message, _ := args["message"].(string)
	clean, err := runner.SanitizeInput(message)
	if err != nil {
		s.logger.Warn("MCP send_message: Input rejected", "err", err, "size", len(message))
		return TurnResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if strings.TrimSpace(clean) == "" {
		return TurnResponse{}, errors.New("message must not be empty")
	}

	id, err := s.sessionID(ctx, args)
	if err != nil {
		return TurnResponse{}, err
	}

	state, turn, err := s.sessions.Send(ctx, id, clean)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("send failed: %w", err)
	}
	return TurnResponse{SessionID: id, Reply: turn.Reply, Class: turn.Class.Label(), State: state}, nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	id, err := s.sessionID(ctx, args)
	if err != nil {
		return StateResponse{}, err
	}
	state, err := s.sessions.Reset(ctx, id)
	if err != nil {
		return StateResponse{}, fmt.Errorf("reset failed: %w", err)
	}
	return StateResponse{SessionID: id, State: state, Suggestions: conversation.Suggestions(state)}, nil
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	id, err := s.sessionID(ctx, args)
	if err != nil {
		return StateResponse{}, err
	}
	sess, err := s.sessions.State(ctx, id)
	if err != nil {
		return StateResponse{}, err
	}
	return StateResponse{SessionID: id, State: sess.State, Suggestions: conversation.Suggestions(sess.State)}, nil
}

// sessionID returns the requested session or the shared default one,
// starting it on first use.
func (s *Server) sessionID(ctx context.Context, args map[string]interface{}) (string, error) {
	if id, _ := args["session_id"].(string); id != "" {
		return id, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defaultID != "" {
		return s.defaultID, nil
	}

	sess, err := s.sessions.Start(ctx, s.agentID)
	if err != nil {
		return "", fmt.Errorf("could not start a conversation: %w", err)
	}
	s.defaultID = sess.ID
	s.agent = &sess.Agent
	s.logger.Info("MCP default session started", "session_id", sess.ID, "agent_id", sess.Agent.ID)
	return sess.ID, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(AgentURI, "Conversation Agent",
		mcp.WithResourceDescription("The agent this server talks to"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		agent, err := s.defaultAgent(ctx)
		if err != nil {
			return nil, err
		}
		jsonBytes, _ := json.Marshal(agent)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      AgentURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) defaultAgent(ctx context.Context) (domain.AgentDescriptor, error) {
	if _, err := s.sessionID(ctx, nil); err != nil {
		return domain.AgentDescriptor{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.agent, nil
}
