package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herrors "github.com/conneroisu/headsync/internal/errors"
)

func TestQueue_ExecutesInSubmissionOrder(t *testing.T) {
	q := New(nil)
	ctx := context.Background()

	const n = 32

	var mu sync.Mutex
	var order []int

	results := make([]*Result[int], 0, n)
	for i := 0; i < n; i++ {
		i := i
		results = append(results, Enqueue(q, ctx, func(context.Context) (int, error) {
			// Vary latency so late submissions would overtake early ones
			// if the queue did not serialize.
			time.Sleep(time.Duration((n-i)%5) * time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return i, nil
		}))
	}

	for i, res := range results {
		v, err := res.Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, n)
	for i, got := range order {
		assert.Equal(t, i, got, "execution order diverged from submission order")
	}
}

func TestQueue_FailureDoesNotAbortChain(t *testing.T) {
	q := New(nil)
	ctx := context.Background()

	var mu sync.Mutex
	var order []int

	run := func(i int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 1 {
				return 0, fmt.Errorf("op %d failed", i)
			}
			return i, nil
		}
	}

	r0 := Enqueue(q, ctx, run(0))
	r1 := Enqueue(q, ctx, run(1))
	r2 := Enqueue(q, ctx, run(2))
	r3 := Enqueue(q, ctx, run(3))

	_, err := r0.Await(ctx)
	assert.NoError(t, err)

	_, err = r1.Await(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op 1 failed")

	v, err := r2.Await(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = r3.Await(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, v)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestQueue_PanicIsIsolated(t *testing.T) {
	q := New(nil)
	ctx := context.Background()

	r1 := q.Do(ctx, func(context.Context) error {
		panic("boom")
	})
	r2 := Enqueue(q, ctx, func(context.Context) (string, error) {
		return "survived", nil
	})

	_, err := r1.Await(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.False(t, herrors.IsRecoverable(err))

	v, err := r2.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "survived", v)
}

func TestQueue_ConcurrentSubmittersKeepPerCallerOrder(t *testing.T) {
	q := New(nil)
	ctx := context.Background()

	const submitters = 8
	const perSubmitter = 20

	var mu sync.Mutex
	executed := make(map[int][]int)

	var wg sync.WaitGroup
	for s := 0; s < submitters; s++ {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < perSubmitter; k++ {
				k := k
				q.Do(ctx, func(context.Context) error {
					mu.Lock()
					executed[s] = append(executed[s], k)
					mu.Unlock()
					return nil
				})
			}
		}()
	}
	wg.Wait()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, q.Wait(waitCtx))

	mu.Lock()
	defer mu.Unlock()

	total := 0
	for s := 0; s < submitters; s++ {
		seq := executed[s]
		total += len(seq)
		require.Len(t, seq, perSubmitter, "submitter %d", s)
		// A single submitter's operations are mutually ordered by its own
		// Enqueue calls, so they must execute in that order.
		for k, got := range seq {
			assert.Equal(t, k, got, "submitter %d out of order", s)
		}
	}
	assert.Equal(t, submitters*perSubmitter, total)
}

func TestQueue_AtMostOneInFlight(t *testing.T) {
	q := New(nil)
	ctx := context.Background()

	var mu sync.Mutex
	current := 0
	peak := 0

	for i := 0; i < 16; i++ {
		q.Do(ctx, func(context.Context) error {
			mu.Lock()
			current++
			if current > peak {
				peak = current
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
			return nil
		})
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, q.Wait(waitCtx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, peak, "more than one operation was in flight")
}

func TestQueue_WaitOnEmptyQueue(t *testing.T) {
	q := New(nil)
	assert.NoError(t, q.Wait(context.Background()))
}

func TestQueue_AwaitHonorsContext(t *testing.T) {
	q := New(nil)
	ctx := context.Background()

	release := make(chan struct{})
	q.Do(ctx, func(context.Context) error {
		<-release
		return nil
	})
	blocked := Enqueue(q, ctx, func(context.Context) (int, error) {
		return 42, nil
	})

	awaitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err := blocked.Await(awaitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Cancelling the wait must not withdraw the operation.
	close(release)
	v, err := blocked.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
