package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/palaver/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, ok, err := locker.TryLock(ctx, "sess-1", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("test:lock:sess-1"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:sess-1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, ok, err := locker.TryLock(ctx, "sess-1", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "sess-1", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused while the first holds the lock")

	// Other sessions are independent.
	unlockOther, ok, err := locker.TryLock(ctx, "sess-2", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, unlockOther(ctx))

	require.NoError(t, unlock(ctx))

	unlock, ok, err = locker.TryLock(ctx, "sess-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "lock must be available after release")
	require.NoError(t, unlock(ctx))
}

func TestRedisLocker_ExpiredLockIsNotStolenBack(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	staleUnlock, ok, err := locker.TryLock(ctx, "sess-1", 1*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = locker.TryLock(ctx, "sess-1", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// Releasing the expired handle must not delete the new holder's lock.
	require.NoError(t, staleUnlock(ctx))
	assert.True(t, mr.Exists("test:lock:sess-1"))
}
