package domain

// ErrorClass is the closed set of turn-level outcomes.
type ErrorClass string

const (
	ClassNone           ErrorClass = ""
	ClassQuotaExhausted ErrorClass = "quota_exhausted"
	ClassRateLimited    ErrorClass = "rate_limited"
	ClassTimedOut       ErrorClass = "timed_out"
	ClassGenericFailure ErrorClass = "generic_failure"
)

// Fixed assistant-role messages shown in place of a reply. Raw error detail is
// never part of these.
const (
	ApologyQuotaExhausted = "I'm temporarily unavailable. Please try again later."
	ApologyRateLimited    = "I'm receiving too many requests. Please wait a moment and try again."
	ApologyTimedOut       = "I'm taking longer than usual to respond. Please try asking again."
	ApologyGeneric        = "Sorry, I'm having trouble responding right now. Please try again."
	ApologyTransport      = "Something went wrong. Please try again."
)

// NoResponse stands in for a success envelope that carries no reply text.
const NoResponse = "No response received"

// Apology returns the fixed message for class. The transport flag selects the
// transport-exception wording within ClassGenericFailure.
func (c ErrorClass) Apology(transport bool) string {
	switch c {
	case ClassQuotaExhausted:
		return ApologyQuotaExhausted
	case ClassRateLimited:
		return ApologyRateLimited
	case ClassTimedOut:
		return ApologyTimedOut
	default:
		if transport {
			return ApologyTransport
		}
		return ApologyGeneric
	}
}

// Label returns a metrics-friendly name; success maps to "ok".
func (c ErrorClass) Label() string {
	if c == ClassNone {
		return "ok"
	}
	return string(c)
}
