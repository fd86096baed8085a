package service

import (
	"context"
	"testing"
	"time"

	"socialgraph/internal/domain/story/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fakeLocker struct {
	free     bool
	released []string
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if !l.free {
		return "", false, nil
	}
	l.free = false
	return "token-1", true, nil
}

func (l *fakeLocker) Release(ctx context.Context, key, token string) error {
	l.released = append(l.released, token)
	l.free = true
	return nil
}

func TestSweepOnceHoldsLock(t *testing.T) {
	svc, repo, _ := newTestService(stubGate{})
	repo.On("ListExpired", mock.Anything, 50).Return([]model.Story{*story("s1", "a", fixedNow)}, nil)
	repo.On("DeleteExpired", []string{"s1"}, mock.Anything).Return([]string{"s1"}, nil)

	locker := &fakeLocker{free: true}
	sweeper := NewSweeper(svc, locker, time.Minute, 50, nil)

	assert.Equal(t, 1, sweeper.SweepOnce(context.Background()))
	assert.Equal(t, []string{"token-1"}, locker.released)
}

func TestSweepOnceSkipsWhenLockTaken(t *testing.T) {
	svc, repo, _ := newTestService(stubGate{})
	sweeper := NewSweeper(svc, &fakeLocker{free: false}, time.Minute, 50, nil)

	assert.Equal(t, 0, sweeper.SweepOnce(context.Background()))
	repo.AssertNotCalled(t, "ListExpired", mock.Anything, mock.Anything)
}

func TestRunStopsOnCancel(t *testing.T) {
	svc, _, _ := newTestService(stubGate{})
	sweeper := NewSweeper(svc, &fakeLocker{}, time.Hour, 50, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
