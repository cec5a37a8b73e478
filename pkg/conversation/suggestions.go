package conversation

import "github.com/aretw0/palaver/pkg/domain"

// DefaultSuggestions are offered while a transcript is empty.
var DefaultSuggestions = []string{
	"Hello! How can you help me today?",
	"What do you know about?",
	"Tell me about your capabilities",
	"Can you help me with questions?",
}

// Suggestions returns the suggested questions to offer for state: the defaults
// while the transcript is empty, none afterwards.
func Suggestions(state domain.ConversationState) []string {
	if len(state.History) > 0 {
		return nil
	}
	return DefaultSuggestions
}

// Suggest queues the suggestion at index (0-based) as pending input.
// ok is false when index is out of range or suggestions are not on offer.
func Suggest(state domain.ConversationState, index int) (next domain.ConversationState, ok bool) {
	offered := Suggestions(state)
	if index < 0 || index >= len(offered) {
		return state, false
	}
	return state.WithPending(offered[index]), true
}
