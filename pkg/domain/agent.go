package domain

// AgentDescriptor is the subset of the remote agent record the client uses.
// It is resolved once per session start and never mutated afterwards.
type AgentDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AgentListing is the result of listing every agent visible to a credential.
type AgentListing struct {
	Agents []AgentDescriptor `json:"agents"`
	// Total is the remote's reported total, or len(Agents) when it reports none.
	Total int `json:"total"`
}
