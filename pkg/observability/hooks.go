package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/palaver/pkg/domain"
)

// LogHooks returns hooks that log every lifecycle event at Debug, failed
// lookups at Warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_start",
				"agent_id", e.AgentID,
				"from_pending", e.FromPending,
				"has_thread", e.HasThread,
			)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_end",
				"agent_id", e.AgentID,
				"class", e.Class.Label(),
				"duration", e.Duration,
			)
		},
		OnReset: func(ctx context.Context, e *domain.EventBase) {
			logger.DebugContext(ctx, "reset", "agent_id", e.AgentID)
		},
		OnLookup: func(ctx context.Context, e *domain.LookupEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "lookup", "agent_id", e.AgentID, "outcome", LookupOutcome(e.Err), "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "lookup", "agent_id", e.AgentID, "outcome", "ok")
		},
	}
}

// Combine merges hook sets; each event is delivered to every set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnTurnStart = chain(out.OnTurnStart, h.OnTurnStart)
		out.OnTurnEnd = chain(out.OnTurnEnd, h.OnTurnEnd)
		out.OnReset = chain(out.OnReset, h.OnReset)
		out.OnLookup = chain(out.OnLookup, h.OnLookup)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
