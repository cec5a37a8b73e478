/*
Package observability turns conversation lifecycle events into logs and metrics.

Everything here is expressed as domain.LifecycleHooks, so the session Manager,
the conversation Session and the directory lookup stay unaware of slog or
Prometheus. Combine merges several hook sets into one.
*/
package observability
