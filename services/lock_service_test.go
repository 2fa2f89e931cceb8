package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamoLocker(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo(map[string]string{"BatchLocks": "lockKey"})
	ds := &DynamoService{Client: fake}

	clock := testNow
	newLocker := func() *DynamoLocker {
		l := NewDynamoLocker(ds, "BatchLocks", time.Minute, logr.Discard())
		l.Clock = func() time.Time { return clock }
		return l
	}
	first, second := newLocker(), newLocker()
	require.NotEqual(t, first.Owner, second.Owner)

	ok, err := first.TryAcquire(ctx, "batch_matching")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = first.TryAcquire(ctx, "batch_matching")
	require.NoError(t, err)
	assert.False(t, ok, "the lock is not reentrant")

	ok, err = second.TryAcquire(ctx, "batch_matching")
	require.NoError(t, err)
	assert.False(t, ok)

	err = second.Release(ctx, "batch_matching")
	assert.True(t, errors.Is(err, ErrLockNotHeld))

	require.NoError(t, first.Release(ctx, "batch_matching"))
	ok, err = second.TryAcquire(ctx, "batch_matching")
	require.NoError(t, err)
	assert.True(t, ok)

	clock = clock.Add(2 * time.Minute)
	ok, err = first.TryAcquire(ctx, "batch_matching")
	require.NoError(t, err)
	assert.True(t, ok, "an expired lease can be taken over")

	item := fake.tables["BatchLocks"]["batch_matching"]
	assert.Equal(t, first.Owner, attrS(item, "ownerToken"))
	assert.Equal(t, clock.Add(time.Minute).Unix(), attrN(item, "expiresAt"))
}

func TestNewDynamoLockerDefaultLease(t *testing.T) {
	l := NewDynamoLocker(&DynamoService{}, "BatchLocks", 0, logr.Discard())
	assert.Equal(t, DefaultLockLease, l.Lease)
}
