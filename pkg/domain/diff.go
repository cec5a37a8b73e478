package domain

// StateDiff represents the changes between two conversation states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Reset is set when the history was truncated. Appended then holds the
	// whole new history (usually empty).
	Reset bool `json:"reset,omitempty"`

	// Appended contains messages added since the old state.
	Appended []Message `json:"appended,omitempty"`

	// ThreadID is set when the thread token changed. An empty value means it was cleared.
	ThreadID *string `json:"thread_id,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(sessionID string, oldState *ConversationState, newState ConversationState) *StateDiff {
	diff := &StateDiff{SessionID: sessionID}

	switch {
	case oldState == nil:
		diff.Appended = newState.History
		if newState.HasThread() {
			diff.ThreadID = &newState.ThreadID
		}
		return diff
	case len(newState.History) < len(oldState.History) || !isPrefix(oldState.History, newState.History):
		diff.Reset = true
		diff.Appended = newState.History
	default:
		diff.Appended = newState.History[len(oldState.History):]
	}

	if oldState.ThreadID != newState.ThreadID {
		diff.ThreadID = &newState.ThreadID
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return !d.Reset && len(d.Appended) == 0 && d.ThreadID == nil
}

// isPrefix assumes append-only history; a mismatch means a rewrite.
func isPrefix(prefix, full []Message) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if prefix[i] != full[i] {
			return false
		}
	}
	return true
}
