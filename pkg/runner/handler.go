package runner

import (
	"context"

	"github.com/aretw0/palaver/pkg/conversation"
	"github.com/aretw0/palaver/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Greet presents the agent header and, while the transcript is empty, the
	// suggested questions.
	Greet(ctx context.Context, agent domain.AgentDescriptor, suggestions []string) error

	// Input reads one line from the user.
	Input(ctx context.Context) (string, error)

	// Output presents the outcome of one turn.
	Output(ctx context.Context, state domain.ConversationState, turn conversation.Turn) error

	// Signal notifies the handler of a transient event (e.g. "thinking").
	Signal(ctx context.Context, name string) error

	// SystemOutput presents a meta-message to the user, distinct from agent replies.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// SignalThinking is sent while a turn awaits its reply.
const SignalThinking = "thinking"
