package conversation

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/palaver/pkg/domain"
)

type statusCoder interface {
	StatusCode() int
}

type timeouter interface {
	Timeout() bool
}

// Classify maps a ChatSender error onto the closed error taxonomy.
// transport reports a failure that never produced a status (used to pick the
// apology wording within ClassGenericFailure). A nil error is ClassNone.
func Classify(err error) (class domain.ErrorClass, transport bool) {
	if err == nil {
		return domain.ClassNone, false
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case http.StatusPaymentRequired:
			return domain.ClassQuotaExhausted, false
		case http.StatusTooManyRequests:
			return domain.ClassRateLimited, false
		default:
			return domain.ClassGenericFailure, false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ClassTimedOut, false
	}
	var to timeouter
	if errors.As(err, &to) && to.Timeout() {
		return domain.ClassTimedOut, false
	}

	return domain.ClassGenericFailure, true
}

// statusOf extracts the status for logging, or 0.
func statusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}
