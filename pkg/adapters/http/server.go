package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/conversation"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/runner"
	"github.com/aretw0/palaver/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Sessions is the session API the gateway serves. *session.Manager implements it.
type Sessions interface {
	Start(ctx context.Context, agentID string) (*domain.Session, error)
	Send(ctx context.Context, sessionID, freeform string) (domain.ConversationState, conversation.Turn, error)
	Pend(ctx context.Context, sessionID, text string) (domain.ConversationState, error)
	Suggest(ctx context.Context, sessionID string, index int) (domain.ConversationState, error)
	Reset(ctx context.Context, sessionID string) (domain.ConversationState, error)
	State(ctx context.Context, sessionID string) (*domain.Session, error)
	Close(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// Server holds the gateway's collaborators.
type Server struct {
	Sessions     Sessions
	Streams      *StreamManager
	DefaultAgent string

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager, typically the one observing the session Manager.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithDefaultAgent sets the agent used when POST /sessions names none.
func WithDefaultAgent(agentID string) Option {
	return func(s *Server) {
		s.DefaultAgent = agentID
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the gateway's HTTP handler.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/events", s.SubscribeEvents)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.StartSession)
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.CloseSession)
			r.Post("/messages", s.SendMessage)
			r.Delete("/messages", s.ResetConversation)
			r.Put("/pending", s.SetPending)
			r.Get("/suggestions", s.GetSuggestions)
			r.Post("/suggestions/{index}", s.PickSuggestion)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MessageRequest is the body of POST /messages and PUT /pending.
type MessageRequest struct {
	Message string `json:"message"`
}

// StartRequest is the body of POST /sessions.
type StartRequest struct {
	AgentID string `json:"agent_id,omitempty"`
}

// StartResponse answers POST /sessions.
type StartResponse struct {
	SessionID string                   `json:"session_id"`
	Agent     domain.AgentDescriptor   `json:"agent"`
	State     domain.ConversationState `json:"state"`
}

// TurnResponse answers POST /messages.
type TurnResponse struct {
	State domain.ConversationState `json:"state"`
	Turn  conversation.Turn        `json:"turn"`
}

// StateResponse answers state-changing calls without a turn.
type StateResponse struct {
	State domain.ConversationState `json:"state"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":           "palaver-http",
		"version":       strings.TrimSpace(palaver.Version),
		"default_agent": s.DefaultAgent,
	})
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid request body")
			s.logger.Warn("StartSession: Invalid request body", "err", err)
			return
		}
	}
	agentID := body.AgentID
	if agentID == "" {
		agentID = s.DefaultAgent
	}

	sess, err := s.Sessions.Start(r.Context(), agentID)
	if err != nil {
		s.fail(w, "StartSession", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, StartResponse{SessionID: sess.ID, Agent: sess.Agent, State: sess.State})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// CloseSession handles DELETE /sessions/{id}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "CloseSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage handles POST /sessions/{id}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readMessage(w, r, "SendMessage")
	if !ok {
		return
	}

	state, turn, err := s.Sessions.Send(r.Context(), chi.URLParam(r, "id"), text)
	if err != nil {
		s.fail(w, "SendMessage", err)
		return
	}
	s.writeJSON(w, http.StatusOK, TurnResponse{State: state, Turn: turn})
}

// SetPending handles PUT /sessions/{id}/pending.
func (s *Server) SetPending(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readMessage(w, r, "SetPending")
	if !ok {
		return
	}

	state, err := s.Sessions.Pend(r.Context(), chi.URLParam(r, "id"), text)
	if err != nil {
		s.fail(w, "SetPending", err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{State: state})
}

// ResetConversation handles DELETE /sessions/{id}/messages.
func (s *Server) ResetConversation(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "ResetConversation", err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{State: state})
}

// GetSuggestions handles GET /sessions/{id}/suggestions.
func (s *Server) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSuggestions", err)
		return
	}
	suggestions := conversation.Suggestions(sess.State)
	if suggestions == nil {
		suggestions = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

// PickSuggestion handles POST /sessions/{id}/suggestions/{index}, queuing the
// 1-based suggested question as pending input.
func (s *Server) PickSuggestion(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid suggestion index")
		return
	}

	state, err := s.Sessions.Suggest(r.Context(), chi.URLParam(r, "id"), index-1)
	if err != nil {
		s.fail(w, "PickSuggestion", err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{State: state})
}

func (s *Server) readMessage(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn(op+": Invalid request body", "err", err)
		return "", false
	}
	clean, err := runner.SanitizeInput(body.Message)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid input: "+err.Error())
		s.logger.Warn(op+": Input rejected", "err", err, "size", len(body.Message))
		return "", false
	}
	return clean, true
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrAgentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTurnInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAgentID):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoSuggestion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLookupRejected):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrLookupUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
		s.writeError(w, status, "Internal error")
		return
	}
	s.logger.Debug(op+" rejected", "status", status, "err", err)
	s.writeError(w, status, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
