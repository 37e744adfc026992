package bridge

import (
	"context"
	"sync"

	"github.com/conneroisu/headsync/internal/errors"
)

// Loader memoizes asynchronous acquisition of the bridge handle. The first
// Get triggers acquisition; every caller, including the first, awaits the
// same shared outcome, so the handle is acquired at most once without a
// separate lock around the acquisition itself.
type Loader struct {
	acquire AcquireFunc

	mu     sync.Mutex
	done   chan struct{} // nil until acquisition starts, closed once settled
	handle Bridge
	err    error
}

// NewLoader creates a loader around acquire.
func NewLoader(acquire AcquireFunc) *Loader {
	return &Loader{acquire: acquire}
}

// Get returns the shared bridge handle, triggering acquisition on first use.
// Cancelling ctx abandons this caller's wait only; the acquisition itself
// keeps running so later callers can still share its result.
func (l *Loader) Get(ctx context.Context) (Bridge, error) {
	l.mu.Lock()
	if l.done == nil {
		l.done = make(chan struct{})
		// Acquisition outlives the first caller.
		go l.run(context.WithoutCancel(ctx))
	}
	done := l.done
	l.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if l.err != nil {
		return nil, errors.ErrBridgeUnavailable(l.err)
	}

	return l.handle, nil
}

func (l *Loader) run(ctx context.Context) {
	handle, err := l.acquire(ctx)

	l.mu.Lock()
	l.handle = handle
	l.err = err
	done := l.done
	l.mu.Unlock()

	close(done)
}

// Acquired reports whether a handle was successfully acquired.
func (l *Loader) Acquired() bool {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done == nil {
		return false
	}

	select {
	case <-done:
		return l.err == nil && l.handle != nil
	default:
		return false
	}
}

// Release closes the acquired handle, if any. When acquisition is still in
// flight it waits for it to settle, bounded by ctx. Releasing a loader that
// never acquired is a no-op.
func (l *Loader) Release(ctx context.Context) error {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if l.err != nil || l.handle == nil {
		return nil
	}

	return l.handle.Close()
}
