package commandqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandQueue_BasicEnqueue(t *testing.T) {
	cq := New(2)
	defer cq.Close()

	executed := false
	task := func(ctx context.Context) (interface{}, error) {
		executed = true
		return "result", nil
	}

	result, err := cq.Enqueue(context.Background(), "test", task, nil)

	assert.NoError(t, err)
	assert.Equal(t, "result", result)
	assert.True(t, executed)
}

func TestCommandQueue_TaskError(t *testing.T) {
	cq := New(2)
	defer cq.Close()

	expectedErr := errors.New("task failed")
	task := func(ctx context.Context) (interface{}, error) {
		return nil, expectedErr
	}

	result, err := cq.Enqueue(context.Background(), "test", task, nil)

	assert.ErrorIs(t, err, expectedErr)
	assert.Nil(t, result)
}

func TestCommandQueue_PanicBecomesError(t *testing.T) {
	cq := New(1)
	defer cq.Close()

	_, err := cq.Enqueue(context.Background(), "test", func(ctx context.Context) (interface{}, error) {
		panic("kaboom")
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "task panicked")

	// the slot was released
	v, err := cq.Enqueue(context.Background(), "test", func(ctx context.Context) (interface{}, error) {
		return 1, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestCommandQueue_ConcurrencyBound(t *testing.T) {
	cq := New(3)
	defer cq.Close()

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cq.Enqueue(context.Background(), "bounded", func(ctx context.Context) (interface{}, error) {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(15 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil, nil
			}, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(0))
}

func TestCommandQueue_LanesAreIndependent(t *testing.T) {
	cq := New(1)
	defer cq.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = cq.Enqueue(context.Background(), "slow", func(ctx context.Context) (interface{}, error) {
			close(started)
			<-block
			return nil, nil
		}, nil)
	}()
	<-started

	v, err := cq.Enqueue(context.Background(), "fast", func(ctx context.Context) (interface{}, error) {
		return "done", nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	close(block)
}

func TestCommandQueue_CallerTimeoutWhileWaiting(t *testing.T) {
	cq := New(1)
	defer cq.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = cq.Enqueue(context.Background(), "lane", func(ctx context.Context) (interface{}, error) {
			close(started)
			<-block
			return nil, nil
		}, nil)
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var ran atomic.Bool
	_, err := cq.Enqueue(ctx, "lane", func(ctx context.Context) (interface{}, error) {
		ran.Store(true)
		return nil, nil
	}, &TaskOptions{WarnAfter: 5 * time.Millisecond})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran.Load())
	close(block)
}

func TestCommandQueue_CallerTimeoutWhileRunning(t *testing.T) {
	cq := New(1)
	defer cq.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	taskSawCancel := make(chan struct{})
	_, err := cq.Enqueue(ctx, "lane", func(ctx context.Context) (interface{}, error) {
		<-ctx.Done()
		close(taskSawCancel)
		return nil, ctx.Err()
	}, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	select {
	case <-taskSawCancel:
	case <-time.After(time.Second):
		t.Fatal("task context was not cancelled")
	}
}

func TestCommandQueue_CloseRejectsAndCancels(t *testing.T) {
	cq := New(1)

	started := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		_, err := cq.Enqueue(context.Background(), "lane", func(ctx context.Context) (interface{}, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}, nil)
		errCh <- err
	}()
	<-started

	require.NoError(t, cq.Close())
	assert.ErrorIs(t, <-errCh, context.Canceled)

	_, err := cq.Enqueue(context.Background(), "lane", func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCommandQueue_Drain(t *testing.T) {
	cq := New(1)

	started := make(chan struct{})
	go func() {
		_, _ = cq.Enqueue(context.Background(), "lane", func(ctx context.Context) (interface{}, error) {
			close(started)
			time.Sleep(20 * time.Millisecond)
			return nil, nil
		}, nil)
	}()
	<-started

	assert.True(t, cq.Drain(time.Second))
	assert.Equal(t, 0, cq.GetRunningCount("lane"))
}

type countingObserver struct {
	started, finished atomic.Int32
}

func (o *countingObserver) QueueStarted()  { o.started.Add(1) }
func (o *countingObserver) QueueFinished() { o.finished.Add(1) }

func TestCommandQueue_ObserverAndStats(t *testing.T) {
	obs := &countingObserver{}
	cq := New(4, WithObserver(obs))
	defer cq.Close()

	require.NoError(t, cq.SetConcurrency("provider", 2))
	assert.Error(t, cq.SetConcurrency("provider", 3))
	assert.Error(t, cq.SetConcurrency("other", 0))

	_, err := cq.Enqueue(context.Background(), "provider", func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, nil)
	require.NoError(t, err)

	// the worker goroutine reports finish before handing back the result
	assert.Equal(t, int32(1), obs.started.Load())
	assert.Equal(t, int32(1), obs.finished.Load())

	stats := cq.GetStats()
	assert.Equal(t, 2, stats["provider"]["concurrency"])
	assert.Equal(t, 0, stats["provider"]["running"])
	assert.Equal(t, 0, stats["provider"]["waiting"])
}
