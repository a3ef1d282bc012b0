package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() {
		_ = s.Stop()
	})
	return s
}

func TestSchedulerAfter(t *testing.T) {
	s := newTestScheduler(t)

	var ran atomic.Int32
	_, err := s.After(10*time.Millisecond, "once", func(context.Context) {
		ran.Add(1)
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return ran.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSchedulerAfterCancelled(t *testing.T) {
	s := newTestScheduler(t)

	var ran atomic.Bool
	task, err := s.After(200*time.Millisecond, "cancelled", func(context.Context) {
		ran.Store(true)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Pending())

	task.Cancel()
	task.Cancel()
	assert.Equal(t, 0, s.Pending())

	time.Sleep(400 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestSchedulerEvery(t *testing.T) {
	s := newTestScheduler(t)

	var ticks atomic.Int32
	task, err := s.Every(20*time.Millisecond, "tick", func(context.Context) {
		ticks.Add(1)
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	task.Cancel()

	seen := ticks.Load()
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, ticks.Load(), seen+1)
}

func TestSchedulerEveryInvalidInterval(t *testing.T) {
	s := newTestScheduler(t)

	_, err := s.Every(0, "bad", func(context.Context) {})
	assert.Error(t, err)
}

func TestSchedulerStopCancelsPending(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	s.Start()

	var ran atomic.Bool
	_, err = s.After(100*time.Millisecond, "pending", func(context.Context) {
		ran.Store(true)
	})
	require.NoError(t, err)

	require.NoError(t, s.Stop())
	assert.Equal(t, 0, s.Pending())

	time.Sleep(200 * time.Millisecond)
	assert.False(t, ran.Load())
}
