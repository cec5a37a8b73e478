package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/palaver/pkg/adapters/remote"
	"github.com/aretw0/palaver/pkg/conversation"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var agent = domain.AgentDescriptor{ID: "agent-1", Name: "Helper", Description: "Answers questions"}

// fakeSender records every request and answers with the next scripted outcome.
type fakeSender struct {
	mu       sync.Mutex
	requests []ports.ChatRequest
	script   []outcome
	fallback outcome
}

type outcome struct {
	reply ports.ChatReply
	err   error
	block chan struct{}
}

func (f *fakeSender) Chat(ctx context.Context, agentID string, req ports.ChatRequest) (ports.ChatReply, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	o := f.fallback
	if len(f.script) > 0 {
		o = f.script[0]
		f.script = f.script[1:]
	}
	f.mu.Unlock()

	if o.block != nil {
		select {
		case <-o.block:
		case <-ctx.Done():
			return ports.ChatReply{}, ctx.Err()
		}
	}
	return o.reply, o.err
}

func (f *fakeSender) last() ports.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func ok(response, thread string) outcome {
	return outcome{reply: ports.ChatReply{Response: response, ThreadID: thread}}
}

func status(code int) outcome {
	return outcome{err: &remote.StatusError{Op: "chat", Status: code, Body: "raw upstream detail"}}
}

func TestSend_FirstTurnScenario(t *testing.T) {
	sender := &fakeSender{script: []outcome{ok("Hi!", "t1")}}
	s := conversation.New(sender, agent)

	state, turn, err := s.Send(context.Background(), domain.NewConversationState(), "Hello")
	require.NoError(t, err)

	assert.Equal(t, []domain.Message{
		domain.UserMessage("Hello"),
		domain.AssistantMessage("Hi!"),
	}, state.History)
	assert.Equal(t, "t1", state.ThreadID)
	assert.True(t, turn.OK())
	assert.Equal(t, ports.ChatRequest{Message: "Hello"}, sender.last(), "no thread token on the first turn")
}

func TestSend_ThreadContinuity(t *testing.T) {
	sender := &fakeSender{script: []outcome{ok("Hi!", "t1"), ok("Sure", ""), ok("Again", "t2"), ok("Last", "")}}
	s := conversation.New(sender, agent)
	ctx := context.Background()

	state, _, _ := s.Send(ctx, domain.NewConversationState(), "Hello")

	state, _, _ = s.Send(ctx, state, "More")
	assert.Equal(t, "t1", sender.last().ThreadID)
	assert.Equal(t, "t1", state.ThreadID, "absent token must not clear the stored one")

	state, _, _ = s.Send(ctx, state, "Even more")
	assert.Equal(t, "t1", sender.last().ThreadID)
	assert.Equal(t, "t2", state.ThreadID, "newer token replaces the stored one")

	_, _, _ = s.Send(ctx, state, "Final")
	assert.Equal(t, "t2", sender.last().ThreadID)
}

func TestSend_ThreadKeptAcrossFailures(t *testing.T) {
	sender := &fakeSender{script: []outcome{ok("Hi!", "t1"), status(500), ok("Back", "")}}
	s := conversation.New(sender, agent)
	ctx := context.Background()

	state, _, _ := s.Send(ctx, domain.NewConversationState(), "Hello")
	state, _, _ = s.Send(ctx, state, "Broken")
	assert.Equal(t, "t1", state.ThreadID)

	_, _, _ = s.Send(ctx, state, "Retry")
	assert.Equal(t, "t1", sender.last().ThreadID)
}

func TestSend_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		outcome outcome
		class   domain.ErrorClass
		want    string
	}{
		{"402", status(http.StatusPaymentRequired), domain.ClassQuotaExhausted, domain.ApologyQuotaExhausted},
		{"429", status(http.StatusTooManyRequests), domain.ClassRateLimited, domain.ApologyRateLimited},
		{"500", status(http.StatusInternalServerError), domain.ClassGenericFailure, domain.ApologyGeneric},
		{"404", status(http.StatusNotFound), domain.ClassGenericFailure, domain.ApologyGeneric},
		{"timeout", outcome{err: fmt.Errorf("chat: %w: %w", remote.ErrTimeout, context.DeadlineExceeded)}, domain.ClassTimedOut, domain.ApologyTimedOut},
		{"transport", outcome{err: errors.New("connection reset by peer")}, domain.ClassGenericFailure, domain.ApologyTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{script: []outcome{tt.outcome}}
			s := conversation.New(sender, agent)

			before := domain.NewConversationState().Append(domain.UserMessage("earlier"), domain.AssistantMessage("reply"))
			after, turn, err := s.Send(context.Background(), before, "Hello")
			require.NoError(t, err, "outcome errors never escape Send")

			assert.Len(t, after.History, len(before.History)+2)
			assert.Equal(t, domain.UserMessage("Hello"), after.History[len(after.History)-2])
			assert.Equal(t, domain.AssistantMessage(tt.want), after.History[len(after.History)-1])
			assert.Equal(t, tt.class, turn.Class)
			assert.Error(t, turn.Err)
			assert.NotContains(t, tt.want, "raw upstream detail")
		})
	}
}

func TestSend_RealTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	sender := &fakeSender{script: []outcome{{block: block}}}
	s := conversation.New(sender, agent, conversation.WithTimeout(20*time.Millisecond))

	state, turn, err := s.Send(context.Background(), domain.NewConversationState(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, domain.ClassTimedOut, turn.Class)
	assert.Equal(t, domain.ApologyTimedOut, state.History[1].Content)
}

func TestSend_CallerCancelWaitsForOutcome(t *testing.T) {
	block := make(chan struct{})
	sender := &fakeSender{script: []outcome{{reply: ports.ChatReply{Response: "Hi!", ThreadID: "t1"}, block: block}}}
	s := conversation.New(sender, agent, conversation.WithTimeout(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	go func() {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		close(block)
	}()

	state, turn, err := s.Send(ctx, domain.NewConversationState(), "Hello")
	require.NoError(t, err)
	assert.True(t, turn.OK())
	assert.Equal(t, "Hi!", state.History[1].Content)
	assert.Equal(t, "t1", state.ThreadID)
}

func TestSend_BlankInputIsNoop(t *testing.T) {
	sender := &fakeSender{}
	s := conversation.New(sender, agent)
	before := domain.NewConversationState().Append(domain.UserMessage("a"), domain.AssistantMessage("b"))

	for _, in := range []string{"", "   ", "\n\t"} {
		after, turn, err := s.Send(context.Background(), before, in)
		require.NoError(t, err)
		assert.True(t, turn.Skipped)
		assert.Equal(t, before.History, after.History)
	}
	assert.Empty(t, sender.requests)
	assert.False(t, s.Busy(), "session must be Idle after a rejected input")
}

func TestSend_PendingPrecedence(t *testing.T) {
	sender := &fakeSender{fallback: ok("ok", "")}
	s := conversation.New(sender, agent)
	ctx := context.Background()

	state := domain.NewConversationState().WithPending("Tell me about your capabilities")

	state, turn, err := s.Send(ctx, state, "typed text")
	require.NoError(t, err)
	assert.True(t, turn.FromPending)
	assert.Equal(t, "Tell me about your capabilities", sender.last().Message)
	assert.Equal(t, "Tell me about your capabilities", state.History[0].Content)
	assert.False(t, state.Pending.IsSet())

	// Next turn without new pending input must not resend it.
	state, turn, err = s.Send(ctx, state, "typed text")
	require.NoError(t, err)
	assert.False(t, turn.FromPending)
	assert.Equal(t, "typed text", sender.last().Message)
	assert.Len(t, state.History, 4)
}

func TestSend_PendingWithoutFreeform(t *testing.T) {
	sender := &fakeSender{fallback: ok("ok", "")}
	s := conversation.New(sender, agent)

	state, ok := conversation.Suggest(domain.NewConversationState(), 0)
	require.True(t, ok)

	state, _, err := s.Send(context.Background(), state, "")
	require.NoError(t, err)
	assert.Equal(t, conversation.DefaultSuggestions[0], sender.last().Message)
	assert.Len(t, state.History, 2)
}

func TestReset_Atomic(t *testing.T) {
	sender := &fakeSender{script: []outcome{ok("Hi!", "t1"), ok("Fresh", "")}}
	s := conversation.New(sender, agent)
	ctx := context.Background()

	state, _, _ := s.Send(ctx, domain.NewConversationState(), "Hello")
	state, err := s.Reset(ctx, state)
	require.NoError(t, err)

	assert.Empty(t, state.History)
	assert.False(t, state.HasThread())

	_, _, _ = s.Send(ctx, state, "Start over")
	assert.Empty(t, sender.last().ThreadID, "a reset conversation must not resend the old token")
}

func TestSend_SingleFlight(t *testing.T) {
	block := make(chan struct{})
	sender := &fakeSender{script: []outcome{{reply: ports.ChatReply{Response: "slow"}, block: block}}}
	s := conversation.New(sender, agent)
	ctx := context.Background()

	done := make(chan domain.ConversationState)
	go func() {
		state, _, _ := s.Send(ctx, domain.NewConversationState(), "first")
		done <- state
	}()

	require.Eventually(t, s.Busy, time.Second, time.Millisecond)

	state := domain.NewConversationState()
	same, _, err := s.Send(ctx, state, "second")
	assert.ErrorIs(t, err, domain.ErrTurnInFlight)
	assert.Equal(t, state, same)

	_, err = s.Reset(ctx, state)
	assert.ErrorIs(t, err, domain.ErrTurnInFlight)

	close(block)
	first := <-done
	assert.Len(t, first.History, 2)
	assert.False(t, s.Busy())
}

func TestSend_AlternationProperty(t *testing.T) {
	outcomes := []outcome{
		ok("reply", "t1"),
		ok("reply", ""),
		status(402),
		status(429),
		status(500),
		{err: context.DeadlineExceeded},
		{err: errors.New("boom")},
	}
	inputs := []string{"hello", "", "  ", "question?", "more"}

	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		sender := &fakeSender{}
		for i := 0; i < 20; i++ {
			sender.script = append(sender.script, outcomes[rng.Intn(len(outcomes))])
		}
		s := conversation.New(sender, agent)
		state := domain.NewConversationState()

		for i := 0; i < 20; i++ {
			if rng.Intn(5) == 0 {
				state = state.WithPending("suggested")
			}
			state, _, _ = s.Send(context.Background(), state, inputs[rng.Intn(len(inputs))])

			require.Equal(t, 0, len(state.History)%2, "history must have even length")
			for j, msg := range state.History {
				want := domain.RoleUser
				if j%2 == 1 {
					want = domain.RoleAssistant
				}
				require.Equal(t, want, msg.Role, "message %d out of alternation", j)
			}
		}
	}
}

func TestSend_Hooks(t *testing.T) {
	sender := &fakeSender{script: []outcome{status(429)}}
	var events []*domain.TurnEvent
	var resets int
	hooks := domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) { events = append(events, e) },
		OnTurnEnd:   func(ctx context.Context, e *domain.TurnEvent) { events = append(events, e) },
		OnReset:     func(ctx context.Context, e *domain.EventBase) { resets++ },
	}
	s := conversation.New(sender, agent, conversation.WithHooks(hooks))

	state, _, _ := s.Send(context.Background(), domain.NewConversationState(), "Hello")
	_, _ = s.Reset(context.Background(), state)

	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTurnStart, events[0].Type)
	assert.Equal(t, domain.EventTurnEnd, events[1].Type)
	assert.Equal(t, domain.ClassRateLimited, events[1].Class)
	assert.Equal(t, "agent-1", events[1].AgentID)
	assert.Equal(t, 1, resets)
}
