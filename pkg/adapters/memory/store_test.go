package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/palaver/pkg/adapters/memory"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, memory.NewStore())
}

func TestMemoryStore_SaveIsolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	s := &domain.Session{ID: "s1", State: domain.NewConversationState().Append(domain.UserMessage("a"))}
	require.NoError(t, store.Save(ctx, s))

	// Mutating the caller's copy after Save must not leak into the store.
	s.State.History[0] = domain.UserMessage("changed")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.State.History[0].Content)
}
