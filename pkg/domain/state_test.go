package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTakeInput_PendingWins(t *testing.T) {
	s := NewConversationState().WithPending("suggested")

	input, fromPending, next := s.TakeInput("typed")

	assert.Equal(t, "suggested", input)
	assert.True(t, fromPending)
	assert.False(t, next.Pending.IsSet(), "pending slot must be cleared after consumption")
	assert.True(t, s.Pending.IsSet(), "original value must not be mutated")

	// Second take falls back to freeform.
	input, fromPending, _ = next.TakeInput("typed")
	assert.Equal(t, "typed", input)
	assert.False(t, fromPending)
}

func TestWithPending_ReplacesUnconsumed(t *testing.T) {
	s := NewConversationState().WithPending("first").WithPending("second")
	assert.Equal(t, "second", s.Pending.Peek())
}

func TestCleared(t *testing.T) {
	s := ConversationState{
		History:  []Message{UserMessage("hi"), AssistantMessage("hello")},
		ThreadID: "t1",
	}.WithPending("queued")

	cleared := s.Cleared()

	assert.Empty(t, cleared.History)
	assert.NotNil(t, cleared.History)
	assert.False(t, cleared.HasThread())
	assert.Equal(t, "queued", cleared.Pending.Peek())
	assert.Len(t, s.History, 2, "original history must survive")
}

func TestAppend_DoesNotAlias(t *testing.T) {
	base := NewConversationState().Append(UserMessage("a"))
	left := base.Append(AssistantMessage("b"))
	right := base.Append(AssistantMessage("c"))

	assert.Equal(t, "b", left.History[1].Content)
	assert.Equal(t, "c", right.History[1].Content)
	assert.Len(t, base.History, 1)
}

func TestErrorClass_Apology(t *testing.T) {
	tests := []struct {
		class     ErrorClass
		transport bool
		want      string
	}{
		{ClassQuotaExhausted, false, ApologyQuotaExhausted},
		{ClassRateLimited, false, ApologyRateLimited},
		{ClassTimedOut, false, ApologyTimedOut},
		{ClassGenericFailure, false, ApologyGeneric},
		{ClassGenericFailure, true, ApologyTransport},
	}
	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.class.Apology(tt.transport))
		})
	}
	assert.Equal(t, "ok", ClassNone.Label())
}

func TestLookupRejectedError_Is(t *testing.T) {
	var err error = &LookupRejectedError{Status: 401}
	assert.ErrorIs(t, err, ErrLookupRejected)
	assert.NotErrorIs(t, err, ErrAgentNotFound)
	assert.Contains(t, err.Error(), "401")
}

func TestPendingInput_JSON(t *testing.T) {
	s := NewConversationState().WithPending("queued")

	data, err := json.Marshal(s)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"pending":"queued"`)

	var back ConversationState
	assert.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "queued", back.Pending.Peek())
	assert.True(t, back.Pending.IsSet())

	data, err = json.Marshal(NewConversationState())
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"pending":null`)

	var empty ConversationState
	assert.NoError(t, json.Unmarshal(data, &empty))
	assert.False(t, empty.Pending.IsSet())
}
