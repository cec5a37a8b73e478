package ports

import (
	"context"

	"github.com/aretw0/palaver/pkg/domain"
)

// ChatRequest is the outbound chat payload.
type ChatRequest struct {
	Message string `json:"message"`
	// ThreadID is omitted from the wire when empty.
	ThreadID string `json:"threadId,omitempty"`
}

// ChatReply is the part of the chat response envelope the client reads.
type ChatReply struct {
	Response string `json:"response"`
	// ThreadID is empty when the remote did not return one.
	ThreadID string `json:"threadId,omitempty"`
}

// AgentLister lists the agents visible to the configured credential.
type AgentLister interface {
	// ListAgents returns every visible agent in one call.
	// Transport failures and non-success statuses are reported as errors;
	// see the remote adapter for their concrete types.
	ListAgents(ctx context.Context) (domain.AgentListing, error)
}

// ChatSender issues one chat request against a named agent.
type ChatSender interface {
	// Chat sends req to agentID and returns the decoded reply.
	// It makes exactly one attempt.
	Chat(ctx context.Context, agentID string, req ChatRequest) (ChatReply, error)
}
