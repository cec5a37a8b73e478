package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/internal/presentation/tui"
	"github.com/aretw0/palaver/pkg/conversation"
	"github.com/aretw0/palaver/pkg/directory"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/observability"
	"github.com/aretw0/palaver/pkg/runner"
	"github.com/muesli/termenv"
)

// RunChat resolves the configured agent and runs an interactive conversation with it
// until the user quits, input ends or ctx is cancelled.
func RunChat(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts, nil)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.ForMode(cfg.Debug, false)
	client := newClient(cfg, logger)
	hooks := observability.LogHooks(logger)

	agent, err := directory.Resolve(ctx, client, cfg.AgentID, hooks)
	if err != nil {
		return fmt.Errorf("could not start a conversation: %w", err)
	}

	conv := conversation.New(client, agent,
		conversation.WithTimeout(cfg.Timeout),
		conversation.WithLogger(logger),
		conversation.WithHooks(hooks),
	)

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.stdin(), opts.stdout())
	} else {
		handler = newTextHandler(opts, agent)
	}

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithIOHandler(handler),
	)
	final, runErr := r.Run(ctx, conv, domain.NewConversationState())
	logger.Debug("Chat finished", "agent_id", agent.ID, "messages", len(final.History), "thread_id", final.ThreadID)

	if runErr != nil && isInterrupted(runErr) && !opts.JSON {
		fmt.Fprintln(opts.stdout())
		printSystemMessage(opts.stdout(), "Interrupted.")
	}
	return handleExecutionError(runErr)
}

// newTextHandler decorates the text handler only when Stdout is a terminal.
func newTextHandler(opts Options, agent domain.AgentDescriptor) runner.IOHandler {
	out := opts.stdout()
	f, ok := out.(*os.File)
	if !ok || !tui.IsTerminal(f) {
		return runner.NewTextHandler(opts.stdin(), out)
	}

	tui.PrintBanner(out, agent)
	return runner.NewTextHandler(opts.stdin(), out,
		runner.WithTextHandlerRenderer(tui.NewRenderer()),
		runner.WithTextHandlerHighlight(tui.NewHighlighter(termenv.EnvColorProfile())),
	)
}
