package domain

import "time"

// Session is the stored record of one live conversation: who it talks to and
// where it stands. It lives only as long as the interactive session that owns it.
type Session struct {
	ID        string            `json:"id"`
	Agent     AgentDescriptor   `json:"agent"`
	State     ConversationState `json:"state"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Snapshot returns a deep copy of the record.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.State = s.State.Clone()
	return &out
}
