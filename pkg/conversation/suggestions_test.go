package conversation

import (
	"testing"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSuggestions_OnlyWhileEmpty(t *testing.T) {
	assert.Equal(t, DefaultSuggestions, Suggestions(domain.NewConversationState()))

	busy := domain.NewConversationState().Append(domain.UserMessage("a"), domain.AssistantMessage("b"))
	assert.Empty(t, Suggestions(busy))

	_, ok := Suggest(busy, 0)
	assert.False(t, ok)
}

func TestSuggest_Bounds(t *testing.T) {
	state := domain.NewConversationState()

	_, ok := Suggest(state, -1)
	assert.False(t, ok)
	_, ok = Suggest(state, len(DefaultSuggestions))
	assert.False(t, ok)

	next, ok := Suggest(state, 2)
	assert.True(t, ok)
	assert.Equal(t, "Tell me about your capabilities", next.Pending.Peek())
}

func TestClassify_Nil(t *testing.T) {
	class, transport := Classify(nil)
	assert.Equal(t, domain.ClassNone, class)
	assert.False(t, transport)
}
