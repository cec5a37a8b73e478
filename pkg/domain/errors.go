package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAgentID is returned when the configured agent id is empty.
	ErrInvalidAgentID = errors.New("agent id must not be empty")

	// ErrLookupUnavailable is returned when the agent listing could not be reached.
	ErrLookupUnavailable = errors.New("agent directory unavailable")

	// ErrLookupRejected is returned (via LookupRejectedError) when the listing call
	// answered with a non-success status.
	ErrLookupRejected = errors.New("agent directory rejected the request")

	// ErrAgentNotFound is returned when no visible agent has the requested id.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTurnInFlight is returned when a turn is requested while another turn of
	// the same session is still awaiting its outcome.
	ErrTurnInFlight = errors.New("a turn is already in flight for this session")
)

// LookupRejectedError carries the status code of a rejected listing call.
type LookupRejectedError struct {
	Status int
}

func (e *LookupRejectedError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrLookupRejected, e.Status)
}

// Is makes errors.Is(err, ErrLookupRejected) hold.
func (e *LookupRejectedError) Is(target error) bool {
	return target == ErrLookupRejected
}
