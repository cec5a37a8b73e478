package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency control.
// It lets the session Manager keep turns single-flight across replicas.
type DistributedLocker interface {
	// TryLock attempts to acquire the lock for key without waiting.
	// It returns ok=false when another holder owns the lock.
	// The lock expires after ttl if it is never released.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock UnlockFunc, ok bool, err error)
}
