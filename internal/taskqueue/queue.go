// Package taskqueue provides a serialized asynchronous task queue.
//
// The queue guarantees that submitted operations execute strictly one at a
// time, in submission order, no matter how many callers submit concurrently.
// Internally it keeps a single tail channel representing completion of the
// most recently submitted operation; every new submission captures the
// current tail, installs its own completion channel as the new tail, and
// waits for the captured tail to settle before running. The outcome of the
// predecessor is deliberately ignored, so a failed or panicking operation
// never blocks its successors; only that operation's own result handle
// observes the failure.
//
// The queue offers no timeout and no cancellation after submission. An
// operation that never returns permanently blocks every operation submitted
// after it.
package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/conneroisu/headsync/internal/errors"
	"github.com/conneroisu/headsync/internal/logging"
)

// Queue serializes asynchronous operations. Safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	tail   <-chan struct{} // settles when the most recently submitted op finishes
	seq    atomic.Uint64
	logger logging.Logger
}

// New creates an empty queue.
func New(logger logging.Logger) *Queue {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Queue{
		logger: logger.WithComponent("taskqueue"),
	}
}

// Result is the handle returned to a submitter. It settles exactly once,
// with the operation's own outcome, after the operation has had its turn.
type Result[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done returns a channel that is closed once the operation has settled.
func (r *Result[T]) Done() <-chan struct{} {
	return r.done
}

// Await blocks until the operation settles or ctx is cancelled. Cancelling
// the wait does not withdraw the operation; it still runs in its turn.
func (r *Result[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Enqueue submits op to the queue and returns its result handle immediately.
// op starts only after every previously submitted operation has settled,
// successfully or not. The ctx is handed through to op; it does not cancel
// the operation's place in the queue.
func Enqueue[T any](q *Queue, ctx context.Context, op func(context.Context) (T, error)) *Result[T] {
	res := &Result[T]{done: make(chan struct{})}

	q.mu.Lock()
	prev := q.tail
	q.tail = res.done
	q.mu.Unlock()

	id := q.seq.Add(1)
	q.logger.Debug(ctx, "operation enqueued", "op", id)

	go func() {
		defer close(res.done)

		if prev != nil {
			// Predecessor outcome is ignored; a failed operation must
			// not abort the chain.
			<-prev
		}

		defer func() {
			if rec := recover(); rec != nil {
				res.err = errors.NewInternalError(
					errors.ErrCodeOperationPanicked,
					fmt.Sprintf("queued operation panicked: %v", rec),
					nil,
				)
				q.logger.Error(ctx, res.err, "operation panicked", "op", id)
			}
		}()

		res.value, res.err = op(ctx)

		if res.err != nil {
			q.logger.Debug(ctx, "operation failed", "op", id, "error", res.err.Error())
		} else {
			q.logger.Debug(ctx, "operation completed", "op", id)
		}
	}()

	return res
}

// Do submits an operation that produces no value.
func (q *Queue) Do(ctx context.Context, op func(context.Context) error) *Result[struct{}] {
	return Enqueue(q, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
}

// Wait blocks until every operation submitted before the call has settled,
// or until ctx is cancelled. Operations submitted while waiting are not
// covered.
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	tail := q.tail
	q.mu.Unlock()

	if tail == nil {
		return nil
	}

	select {
	case <-tail:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
