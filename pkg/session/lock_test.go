package session

import (
	"context"
	"testing"

	"github.com/aretw0/palaver/pkg/adapters/memory"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoSender struct{}

func (echoSender) Chat(ctx context.Context, agentID string, req ports.ChatRequest) (ports.ChatReply, error) {
	return ports.ChatReply{Response: req.Message}, nil
}

type oneAgent struct{}

func (oneAgent) ListAgents(ctx context.Context) (domain.AgentListing, error) {
	return domain.AgentListing{Agents: []domain.AgentDescriptor{{ID: "a"}}, Total: 1}, nil
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore(), echoSender{}, oneAgent{})
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		sess, err := mgr.Start(ctx, "a")
		require.NoError(t, err)
		_, _, err = mgr.Send(ctx, sess.ID, "ping")
		require.NoError(t, err)
		require.NoError(t, mgr.Close(ctx, sess.ID))
	}

	assert.Empty(t, mgr.locks, "lock entries must be released once unused")
}
