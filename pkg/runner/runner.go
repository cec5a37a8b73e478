package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/conversation"
	"github.com/aretw0/palaver/pkg/domain"
)

// Conversation is the turn API the Runner drives. *conversation.Session implements it.
type Conversation interface {
	Agent() domain.AgentDescriptor
	Send(ctx context.Context, state domain.ConversationState, freeform string) (domain.ConversationState, conversation.Turn, error)
	Reset(ctx context.Context, state domain.ConversationState) (domain.ConversationState, error)
}

// Runner handles the interactive loop of one conversation using provided IO.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on stdin/stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run loops until the user quits, input ends or ctx is cancelled, and returns the
// last conversation state. Reaching the end of input is not an error.
func (r *Runner) Run(ctx context.Context, conv Conversation, state domain.ConversationState) (domain.ConversationState, error) {
	h := r.Handler
	agent := conv.Agent()

	if err := h.Greet(ctx, agent, conversation.Suggestions(state)); err != nil {
		return state, fmt.Errorf("output error: %w", err)
	}

	for {
		line, err := h.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.Logger.Debug("Input closed, leaving chat")
				return state, nil
			}
			if ctx.Err() != nil {
				return state, ctx.Err()
			}
			return state, fmt.Errorf("input error: %w", err)
		}

		cmd := ParseCommand(line)
		switch cmd.Kind {
		case CommandQuit:
			return state, nil

		case CommandClear:
			if len(state.History) == 0 {
				_ = h.SystemOutput(ctx, "Nothing to clear.")
				continue
			}
			next, err := conv.Reset(ctx, state)
			if err != nil {
				return state, err
			}
			state = next
			_ = h.SystemOutput(ctx, "Conversation cleared.")
			if err := h.Greet(ctx, agent, conversation.Suggestions(state)); err != nil {
				return state, fmt.Errorf("output error: %w", err)
			}
			continue

		case CommandSuggest:
			suggestions := conversation.Suggestions(state)
			if len(suggestions) == 0 {
				_ = h.SystemOutput(ctx, "Suggestions are only offered before the first message. Use /clear to start over.")
				continue
			}
			if err := h.Greet(ctx, agent, suggestions); err != nil {
				return state, fmt.Errorf("output error: %w", err)
			}
			continue

		case CommandPick:
			next, ok := conversation.Suggest(state, cmd.Index)
			if !ok {
				_ = h.SystemOutput(ctx, fmt.Sprintf("No suggested question /%d.", cmd.Index+1))
				continue
			}
			state = next
			line = ""
		}

		_ = h.Signal(ctx, SignalThinking)

		next, turn, err := conv.Send(ctx, state, line)
		if err != nil {
			return state, err
		}
		state = next

		if turn.Skipped {
			continue
		}
		if turn.Err != nil {
			r.Logger.Debug("Turn failed", "class", turn.Class, "err", turn.Err)
		}
		if err := h.Output(ctx, state, turn); err != nil {
			return state, fmt.Errorf("output error: %w", err)
		}
	}
}
