// Package commandqueue runs blocking work on a bounded set of slots so
// request goroutines only wait for results.
//
// Invariants:
//   - At most the lane's concurrency tasks run at once per lane.
//   - A caller whose context ends stops waiting; its task still holds the
//     slot until the task itself returns.
//   - A panicking task is reported to its caller as an error.
//   - Close rejects new tasks, cancels running ones and waits for them.
//
// Usage:
//
//	queue := commandqueue.New(8)
//	defer queue.Close()
//	result, err := queue.Enqueue(ctx, "provider", func(ctx context.Context) (interface{}, error) {
//		return "ok", nil
//	}, nil)
package commandqueue
