package commandqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harun/quill/internal/tracing"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("commandqueue: closed")

// Task represents a blocking operation to be executed
type Task func(ctx context.Context) (interface{}, error)

// TaskOptions provides configuration for task execution
type TaskOptions struct {
	// WarnAfter logs a warning if the task is still waiting for a slot
	WarnAfter time.Duration
}

// Observer is notified when tasks start and finish running.
type Observer interface {
	QueueStarted()
	QueueFinished()
}

// laneState bounds execution for a single lane
type laneState struct {
	sem         *semaphore.Weighted
	concurrency int
	waiting     atomic.Int64
	running     atomic.Int64
}

// CommandQueue provides lane-based concurrency limits for blocking tasks
type CommandQueue struct {
	lanes              map[string]*laneState
	defaultConcurrency int
	observer           Observer
	closed             bool
	mu                 sync.RWMutex
	wg                 sync.WaitGroup
	taskIDSeq          atomic.Uint64
	ctx                context.Context
	cancel             context.CancelFunc
}

// Option configures a CommandQueue.
type Option func(*CommandQueue)

// WithObserver reports task start/finish to o.
func WithObserver(o Observer) Option {
	return func(cq *CommandQueue) { cq.observer = o }
}

// New creates a queue whose lanes run up to concurrency tasks each.
func New(concurrency int, opts ...Option) *CommandQueue {
	if concurrency <= 0 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	cq := &CommandQueue{
		lanes:              make(map[string]*laneState),
		defaultConcurrency: concurrency,
		ctx:                ctx,
		cancel:             cancel,
	}
	for _, opt := range opts {
		opt(cq)
	}
	return cq
}

// SetConcurrency fixes the limit for lane. It only affects a lane that
// has not run anything yet.
func (cq *CommandQueue) SetConcurrency(lane string, concurrency int) error {
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	cq.mu.Lock()
	defer cq.mu.Unlock()

	if _, exists := cq.lanes[lane]; exists {
		return fmt.Errorf("lane %s already initialized", lane)
	}
	cq.lanes[lane] = newLane(concurrency)
	log.Debug().Str("lane", lane).Int("concurrency", concurrency).Msg("Lane initialized")
	return nil
}

func newLane(concurrency int) *laneState {
	return &laneState{
		sem:         semaphore.NewWeighted(int64(concurrency)),
		concurrency: concurrency,
	}
}

// acquireLane returns the named lane, creating it with the default limit. It also
// registers the caller with the wait group while the queue is open.
func (cq *CommandQueue) acquireLane(lane string) (*laneState, error) {
	cq.mu.Lock()
	defer cq.mu.Unlock()

	if cq.closed {
		return nil, ErrClosed
	}
	ls, exists := cq.lanes[lane]
	if !exists {
		ls = newLane(cq.defaultConcurrency)
		cq.lanes[lane] = ls
	}
	cq.wg.Add(1)
	return ls, nil
}

// Enqueue runs task on lane once a slot is free and waits for its result
// or for ctx to end.
func (cq *CommandQueue) Enqueue(ctx context.Context, lane string, task Task, options *TaskOptions) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ls, err := cq.acquireLane(lane)
	if err != nil {
		return nil, err
	}
	released := false
	defer func() {
		if !released {
			cq.wg.Done()
		}
	}()

	taskID := fmt.Sprintf("%s-%d", lane, cq.taskIDSeq.Add(1))
	logger := tracing.LoggerFromContext(ctx, log.Logger).With().
		Str("lane", lane).
		Str("taskId", taskID).
		Logger()

	// runCtx ends with the caller or with the queue
	runCtx, cancel := context.WithCancel(ctx)
	stopCancel := context.AfterFunc(cq.ctx, cancel)

	enqueuedAt := time.Now()
	ls.waiting.Add(1)
	if options != nil && options.WarnAfter > 0 {
		timer := time.AfterFunc(options.WarnAfter, func() {
			logger.Warn().
				Dur("waited", time.Since(enqueuedAt)).
				Int64("waiting", ls.waiting.Load()).
				Msg("Task waiting longer than expected")
		})
		defer timer.Stop()
	}

	err = ls.sem.Acquire(runCtx, 1)
	ls.waiting.Add(-1)
	if err != nil {
		stopCancel()
		cancel()
		if cq.ctx.Err() != nil && ctx.Err() == nil {
			return nil, ErrClosed
		}
		return nil, err
	}

	ls.running.Add(1)
	if cq.observer != nil {
		cq.observer.QueueStarted()
	}
	logger.Debug().
		Dur("waited", time.Since(enqueuedAt)).
		Int64("running", ls.running.Load()).
		Msg("Task started")

	results := make(chan taskResult, 1)
	released = true
	go func() {
		defer cq.wg.Done()
		defer func() {
			stopCancel()
			cancel()
		}()

		startTime := time.Now()
		r := runTask(runCtx, task)

		ls.running.Add(-1)
		ls.sem.Release(1)
		if cq.observer != nil {
			cq.observer.QueueFinished()
		}

		if r.err != nil {
			logger.Debug().Dur("duration", time.Since(startTime)).Err(r.err).Msg("Task failed")
		} else {
			logger.Debug().Dur("duration", time.Since(startTime)).Msg("Task completed")
		}
		results <- r
	}()

	select {
	case r := <-results:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type taskResult struct {
	value interface{}
	err   error
}

func runTask(ctx context.Context, task Task) taskResult {
	var r taskResult
	var pc panics.Catcher
	pc.Try(func() {
		r.value, r.err = task(ctx)
	})
	if rec := pc.Recovered(); rec != nil {
		return taskResult{err: fmt.Errorf("task panicked: %w", rec.AsError())}
	}
	return r
}

// GetRunningCount returns the number of currently executing tasks for a lane
func (cq *CommandQueue) GetRunningCount(lane string) int {
	cq.mu.RLock()
	ls, exists := cq.lanes[lane]
	cq.mu.RUnlock()

	if !exists {
		return 0
	}
	return int(ls.running.Load())
}

// GetStats returns statistics for all lanes
func (cq *CommandQueue) GetStats() map[string]map[string]int {
	cq.mu.RLock()
	defer cq.mu.RUnlock()

	stats := make(map[string]map[string]int, len(cq.lanes))
	for lane, ls := range cq.lanes {
		stats[lane] = map[string]int{
			"waiting":     int(ls.waiting.Load()),
			"running":     int(ls.running.Load()),
			"concurrency": ls.concurrency,
		}
	}
	return stats
}

// Close rejects new tasks, cancels the contexts of running ones and waits
// for them to return.
func (cq *CommandQueue) Close() error {
	cq.mu.Lock()
	cq.closed = true
	cq.mu.Unlock()

	cq.cancel()
	cq.wg.Wait()
	log.Debug().Msg("Command queue closed")
	return nil
}

// Drain waits up to timeout for running tasks to finish on their own, then
// closes the queue. It reports whether everything finished in time.
func (cq *CommandQueue) Drain(timeout time.Duration) bool {
	cq.mu.Lock()
	cq.closed = true
	cq.mu.Unlock()

	done := make(chan struct{})
	go func() {
		cq.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		_ = cq.Close()
		return true
	case <-time.After(timeout):
		log.Warn().Dur("timeout", timeout).Msg("Timeout waiting for active tasks")
		_ = cq.Close()
		return false
	}
}
