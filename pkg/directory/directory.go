// Package directory resolves a configured agent id into an agent descriptor.
//
// Lookup is a stateless leaf: one listing call per attempt, no caching, no retry.
// Its result gates whether a conversation session may start at all.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
)

// statusCoder is satisfied by adapter errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// Resolve lists every agent visible to the credential and returns the first one
// whose id equals agentID.
//
// Failures are terminal for session start:
//   - domain.ErrInvalidAgentID when agentID is blank.
//   - domain.ErrLookupUnavailable (wrapping the cause) on transport failure.
//   - *domain.LookupRejectedError (errors.Is domain.ErrLookupRejected) on a non-success status.
//   - domain.ErrAgentNotFound when no listed agent matches.
func Resolve(ctx context.Context, lister ports.AgentLister, agentID string, hooks ...domain.LifecycleHooks) (domain.AgentDescriptor, error) {
	agent, err := resolve(ctx, lister, agentID)
	for _, h := range hooks {
		if h.OnLookup != nil {
			h.OnLookup(ctx, &domain.LookupEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventLookup, AgentID: agentID},
				Err:       err,
			})
		}
	}
	return agent, err
}

func resolve(ctx context.Context, lister ports.AgentLister, agentID string) (domain.AgentDescriptor, error) {
	if strings.TrimSpace(agentID) == "" {
		return domain.AgentDescriptor{}, domain.ErrInvalidAgentID
	}

	listing, err := List(ctx, lister)
	if err != nil {
		return domain.AgentDescriptor{}, err
	}

	for _, agent := range listing.Agents {
		if agent.ID == agentID {
			return agent, nil
		}
	}
	return domain.AgentDescriptor{}, fmt.Errorf("%w: %q", domain.ErrAgentNotFound, agentID)
}

// List returns every agent visible to the credential, with the same error
// mapping as Resolve.
func List(ctx context.Context, lister ports.AgentLister) (domain.AgentListing, error) {
	listing, err := lister.ListAgents(ctx)
	if err == nil {
		return listing, nil
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return domain.AgentListing{}, &domain.LookupRejectedError{Status: sc.StatusCode()}
	}
	return domain.AgentListing{}, fmt.Errorf("%w: %w", domain.ErrLookupUnavailable, err)
}
