package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart EventType = "turn_start"
	EventTurnEnd   EventType = "turn_end"
	EventReset     EventType = "reset"
	EventLookup    EventType = "lookup"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	AgentID   string    `json:"agent_id"`
}

// TurnEvent describes the start or the end of one turn.
type TurnEvent struct {
	EventBase
	FromPending bool          `json:"from_pending,omitempty"`
	HasThread   bool          `json:"has_thread,omitempty"`
	Class       ErrorClass    `json:"class,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// LookupEvent describes one agent directory lookup.
type LookupEvent struct {
	EventBase
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for session observability.
type LifecycleHooks struct {
	OnTurnStart func(context.Context, *TurnEvent)
	OnTurnEnd   func(context.Context, *TurnEvent)
	OnReset     func(context.Context, *EventBase)
	OnLookup    func(context.Context, *LookupEvent)
}
