package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLockerAcquireAndRelease(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client)
	ctx := context.Background()

	mock.Regexp().ExpectSetNX("socialgraph:lock:story-sweep", `^[0-9a-f-]{36}$`, time.Minute).SetVal(true)

	token, ok, err := locker.Acquire(ctx, "story-sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectEvalSha(releaseScript.Hash(), []string{"socialgraph:lock:story-sweep"}, token).SetVal(int64(1))
	assert.NoError(t, locker.Release(ctx, "story-sweep", token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerContended(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client)

	mock.Regexp().ExpectSetNX("socialgraph:lock:story-sweep", `.+`, time.Minute).SetVal(false)

	token, ok, err := locker.Acquire(context.Background(), "story-sweep", time.Minute)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerReleaseExpired(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client)

	mock.ExpectEvalSha(releaseScript.Hash(), []string{"socialgraph:lock:story-sweep"}, "stale").SetVal(int64(0))

	err := locker.Release(context.Background(), "story-sweep", "stale")

	assert.True(t, errors.Is(err, ErrLockNotHeld))
}
