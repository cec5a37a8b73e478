package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
)

// DefaultTimeout bounds the wait for one chat reply.
const DefaultTimeout = 60 * time.Second

// Turn reports the outcome of one Send for operators and presentation layers.
type Turn struct {
	// Input is the text that was sent (empty when Skipped).
	Input string `json:"input,omitempty"`

	// Reply is the assistant-role content appended: the remote reply or an apology.
	Reply string `json:"reply,omitempty"`

	// Class is ClassNone on success.
	Class domain.ErrorClass `json:"class,omitempty"`

	// Err is the raw failure, for logging only. Never shown to end users.
	Err error `json:"-"`

	// ThreadID is the thread token in effect after the turn.
	ThreadID string `json:"thread_id,omitempty"`

	Duration    time.Duration `json:"duration"`
	Skipped     bool          `json:"skipped,omitempty"`
	FromPending bool          `json:"from_pending,omitempty"`
}

// OK reports whether the turn produced a remote reply.
func (t Turn) OK() bool {
	return !t.Skipped && t.Class == domain.ClassNone
}

// Session drives the turns of one conversation with one agent.
type Session struct {
	sender  ports.ChatSender
	agent   domain.AgentDescriptor
	timeout time.Duration
	logger  *slog.Logger
	hooks   domain.LifecycleHooks

	inFlight atomic.Bool
}

// Option configures the Session.
type Option func(*Session)

// WithTimeout sets the bounded wait for each chat call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger configures the operator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// New creates a Session for a resolved agent.
func New(sender ports.ChatSender, agent domain.AgentDescriptor, opts ...Option) *Session {
	s := &Session{
		sender:  sender,
		agent:   agent,
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Agent returns the agent this session talks to.
func (s *Session) Agent() domain.AgentDescriptor {
	return s.agent
}

// Timeout returns the bounded wait applied to each chat call.
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// Busy reports whether a turn is awaiting its outcome.
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}

// Send advances the conversation by one turn.
//
// The returned error is domain.ErrTurnInFlight or nil; every remote outcome is
// folded into the returned state and Turn.
func (s *Session) Send(ctx context.Context, state domain.ConversationState, freeform string) (domain.ConversationState, Turn, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return state, Turn{}, domain.ErrTurnInFlight
	}
	defer s.inFlight.Store(false)

	input, fromPending, next := state.TakeInput(freeform)
	if strings.TrimSpace(input) == "" {
		return next, Turn{Skipped: true, FromPending: fromPending, ThreadID: next.ThreadID}, nil
	}

	next = next.Append(domain.UserMessage(input))
	req := ports.ChatRequest{Message: input, ThreadID: next.ThreadID}

	start := time.Now()
	s.emitTurn(ctx, s.hooks.OnTurnStart, domain.EventTurnStart, fromPending, next.HasThread(), domain.ClassNone, 0)

	// Once issued, only the session timeout bounds the call.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	reply, err := s.sender.Chat(callCtx, s.agent.ID, req)
	cancel()

	turn := Turn{Input: input, FromPending: fromPending, Duration: time.Since(start)}

	if err == nil {
		if reply.ThreadID != "" {
			next.ThreadID = reply.ThreadID
		}
		turn.Reply = reply.Response
		s.logger.Debug("Turn completed", "agent_id", s.agent.ID, "thread_id", next.ThreadID, "duration", turn.Duration)
	} else {
		class, transport := Classify(err)
		turn.Class = class
		turn.Err = err
		turn.Reply = class.Apology(transport)
		s.logger.Warn("Turn failed",
			"agent_id", s.agent.ID,
			"class", class,
			"status", statusOf(err),
			"err", err,
		)
	}

	next = next.Append(domain.AssistantMessage(turn.Reply))
	turn.ThreadID = next.ThreadID

	s.emitTurn(ctx, s.hooks.OnTurnEnd, domain.EventTurnEnd, fromPending, next.HasThread(), turn.Class, turn.Duration)
	return next, turn, nil
}

// Reset clears history and thread token together.
func (s *Session) Reset(ctx context.Context, state domain.ConversationState) (domain.ConversationState, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return state, domain.ErrTurnInFlight
	}
	defer s.inFlight.Store(false)

	if s.hooks.OnReset != nil {
		s.hooks.OnReset(ctx, &domain.EventBase{Timestamp: time.Now(), Type: domain.EventReset, AgentID: s.agent.ID})
	}
	s.logger.Debug("Conversation reset", "agent_id", s.agent.ID, "dropped_messages", len(state.History))
	return state.Cleared(), nil
}

func (s *Session) emitTurn(ctx context.Context, hook func(context.Context, *domain.TurnEvent), typ domain.EventType, fromPending, hasThread bool, class domain.ErrorClass, d time.Duration) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.TurnEvent{
		EventBase:   domain.EventBase{Timestamp: time.Now(), Type: typ, AgentID: s.agent.ID},
		FromPending: fromPending,
		HasThread:   hasThread,
		Class:       class,
		Duration:    d,
	})
}
