package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPool_SameKeyRunsInOrder(t *testing.T) {
	p := NewPool(4, 16, zap.NewNop())

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		require.NoError(t, p.Submit(context.Background(), 7, func(context.Context) {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, p.Stop(context.Background()))

	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestPool_DifferentKeysRunConcurrently(t *testing.T) {
	p := NewPool(2, 1, zap.NewNop())
	defer p.Stop(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), 0, func(context.Context) { <-release }))

	require.NoError(t, p.Submit(context.Background(), 1, func(context.Context) { close(started) }))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("task on another lane was blocked")
	}
	close(release)
}

func TestPool_StopDrainsQueuedTasks(t *testing.T) {
	p := NewPool(3, 64, zap.NewNop())

	var n atomic.Int32
	for i := 0; i < 30; i++ {
		require.NoError(t, p.Submit(context.Background(), int64(i), func(context.Context) {
			time.Sleep(time.Millisecond)
			n.Add(1)
		}))
	}
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, int32(30), n.Load())

	err := p.Submit(context.Background(), 1, func(context.Context) {})
	assert.ErrorIs(t, err, ErrPoolClosed)
	require.NoError(t, p.Stop(context.Background()))
}

func TestPool_SubmitHonoursContextWhenLaneFull(t *testing.T) {
	p := NewPool(1, 0, zap.NewNop())
	release := make(chan struct{})
	running := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), 1, func(context.Context) {
		close(running)
		<-release
	}))
	<-running

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, 1, func(context.Context) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, p.Stop(context.Background()))
}

func TestPool_PanicDoesNotKillLane(t *testing.T) {
	p := NewPool(1, 4, zap.NewNop())

	ran := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), 1, func(context.Context) { panic("boom") }))
	require.NoError(t, p.Submit(context.Background(), 1, func(context.Context) { close(ran) }))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("lane stopped after panic")
	}
	require.NoError(t, p.Stop(context.Background()))
}

func TestPool_NegativeKeys(t *testing.T) {
	p := NewPool(5, 1, zap.NewNop())
	for _, k := range []int64{-1, -42, 0, 1 << 40} {
		idx := p.laneFor(k)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 5)
	}
	require.NoError(t, p.Stop(context.Background()))
}
