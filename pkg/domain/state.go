package domain

import (
	"encoding/json"
	"slices"
)

// PendingInput is a one-shot slot for a programmatically triggered message
// (e.g. a suggested question). It is consumed at most once and takes
// priority over freeform input for the turn that consumes it.
type PendingInput struct {
	text string
	set  bool
}

// NewPendingInput returns a slot holding text.
func NewPendingInput(text string) PendingInput {
	return PendingInput{text: text, set: true}
}

// IsSet reports whether the slot holds a value.
func (p PendingInput) IsSet() bool {
	return p.set
}

// Peek returns the queued text without consuming it.
func (p PendingInput) Peek() string {
	return p.text
}

// MarshalJSON encodes an empty slot as null and a queued one as its text.
func (p PendingInput) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	return json.Marshal(p.text)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *PendingInput) UnmarshalJSON(data []byte) error {
	var text *string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	if text == nil {
		*p = PendingInput{}
		return nil
	}
	*p = NewPendingInput(*text)
	return nil
}

// ConversationState is the explicitly owned state of one conversation.
// It is passed by value into Send/Reset and returned updated; callers hold the
// single live instance per session.
type ConversationState struct {
	// History is the chronological transcript. It only grows, except on Reset.
	History []Message `json:"history"`

	// ThreadID is the remote thread token. Empty means absent.
	ThreadID string `json:"thread_id,omitempty"`

	// Pending is the one-shot input slot. It serializes as null when empty.
	Pending PendingInput `json:"pending"`
}

// NewConversationState returns an empty state.
func NewConversationState() ConversationState {
	return ConversationState{History: []Message{}}
}

// Clone returns a copy whose History does not alias the receiver's.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.History = slices.Clone(s.History)
	if out.History == nil {
		out.History = []Message{}
	}
	return out
}

// HasThread reports whether a thread token has been established.
func (s ConversationState) HasThread() bool {
	return s.ThreadID != ""
}

// WithPending returns a copy with text queued in the pending slot.
// A later call replaces an earlier unconsumed value.
func (s ConversationState) WithPending(text string) ConversationState {
	out := s.Clone()
	out.Pending = NewPendingInput(text)
	return out
}

// TakeInput selects the input for a turn: the pending slot if set (clearing it),
// otherwise freeform. fromPending reports which source was used.
func (s ConversationState) TakeInput(freeform string) (input string, fromPending bool, next ConversationState) {
	next = s.Clone()
	if s.Pending.IsSet() {
		next.Pending = PendingInput{}
		return s.Pending.text, true, next
	}
	return freeform, false, next
}

// Cleared returns a copy with History emptied and ThreadID absent.
// Both are cleared together; the pending slot is left untouched.
func (s ConversationState) Cleared() ConversationState {
	return ConversationState{
		History: []Message{},
		Pending: s.Pending,
	}
}

// Append returns a copy with msgs appended to History.
func (s ConversationState) Append(msgs ...Message) ConversationState {
	out := s.Clone()
	out.History = append(out.History, msgs...)
	return out
}
