package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTimeout marks a request that exceeded its bounded wait.
var ErrTimeout = errors.New("request timed out")

// StatusError is returned when the remote answers with a non-200 status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
}

// wrapTransport tags deadline failures with ErrTimeout so they can be told
// apart from other transport failures.
func wrapTransport(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// StatusCode exposes the HTTP status to callers that classify errors without
// depending on this package.
func (e *StatusError) StatusCode() int {
	return e.Status
}
