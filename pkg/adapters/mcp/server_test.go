package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/palaver/pkg/adapters/memory"
	"github.com/aretw0/palaver/pkg/adapters/remote"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
	"github.com/aretw0/palaver/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var helper = domain.AgentDescriptor{ID: "agent-1", Name: "Helper", Description: "Answers questions"}

type lister struct{}

func (lister) ListAgents(ctx context.Context) (domain.AgentListing, error) {
	return domain.AgentListing{Agents: []domain.AgentDescriptor{helper}, Total: 1}, nil
}

type sender struct {
	fail bool
}

func (s sender) Chat(ctx context.Context, agentID string, req ports.ChatRequest) (ports.ChatReply, error) {
	if s.fail {
		return ports.ChatReply{}, &remote.StatusError{Op: "chat", Status: 402}
	}
	return ports.ChatReply{Response: "re: " + req.Message, ThreadID: "t1"}, nil
}

func newServer(t *testing.T, s ports.ChatSender, agentID string) *Server {
	t.Helper()
	mgr := session.NewManager(memory.NewStore(), s, lister{})
	return NewServer(mgr, agentID)
}

func TestSendMessage_DefaultSession(t *testing.T) {
	s := newServer(t, sender{}, "agent-1")
	ctx := context.Background()

	first, err := s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]interface{}{"message": "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "re: Hello", first.Reply)
	assert.Equal(t, "ok", first.Class)
	assert.Equal(t, "t1", first.State.ThreadID)

	second, err := s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]interface{}{"message": "More"})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID, "calls without session_id share one session")
	assert.Len(t, second.State.History, 4)

	history, err := s.handleHistory(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": first.SessionID})
	require.NoError(t, err)
	assert.Len(t, history.State.History, 4)
	assert.Empty(t, history.Suggestions)

	reset, err := s.handleReset(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Empty(t, reset.State.History)
	assert.Empty(t, reset.State.ThreadID)
	assert.Len(t, reset.Suggestions, 4)
}

func TestSendMessage_Failures(t *testing.T) {
	s := newServer(t, sender{fail: true}, "agent-1")
	ctx := context.Background()

	resp, err := s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]interface{}{"message": "Hello"})
	require.NoError(t, err, "remote failures are part of the transcript, not tool errors")
	assert.Equal(t, domain.ApologyQuotaExhausted, resp.Reply)
	assert.Equal(t, "quota_exhausted", resp.Class)

	_, err = s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]interface{}{"message": "  "})
	assert.Error(t, err)

	_, err = s.handleHistory(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestDefaultAgent(t *testing.T) {
	s := newServer(t, sender{}, "agent-1")
	agent, err := s.defaultAgent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, helper, agent)

	unknown := newServer(t, sender{}, "agent-2")
	_, err = unknown.defaultAgent(context.Background())
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
}
