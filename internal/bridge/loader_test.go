package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herrors "github.com/conneroisu/headsync/internal/errors"
)

// fakeBridge records calls for assertions.
type fakeBridge struct {
	mu     sync.Mutex
	titles []string
	closed bool
}

func (f *fakeBridge) SetTitle(_ context.Context, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeBridge) ProcessHeadContent(_ context.Context, ref ContentRef, _ string) (string, error) {
	title, _ := ExtractTitle(ref.Markup)
	return title, nil
}

func (f *fakeBridge) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestLoader_AcquiresExactlyOnce(t *testing.T) {
	var acquisitions atomic.Int32
	handle := &fakeBridge{}

	loader := NewLoader(func(context.Context) (Bridge, error) {
		acquisitions.Add(1)
		time.Sleep(10 * time.Millisecond) // widen the race window
		return handle, nil
	})

	const callers = 16
	var wg sync.WaitGroup
	handles := make([]Bridge, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i], errs[i] = loader.Get(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), acquisitions.Load(), "handle must be acquired at most once")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, handle, handles[i], "all callers share the same handle")
	}
}

func TestLoader_AcquisitionErrorSharedByAllCallers(t *testing.T) {
	loader := NewLoader(func(context.Context) (Bridge, error) {
		return nil, fmt.Errorf("module import failed")
	})

	for i := 0; i < 3; i++ {
		_, err := loader.Get(context.Background())
		require.Error(t, err)
		assert.True(t, herrors.IsBridgeError(err))
		assert.Contains(t, err.Error(), "module import failed")
	}
}

func TestLoader_GetHonorsCallerContext(t *testing.T) {
	block := make(chan struct{})
	loader := NewLoader(func(context.Context) (Bridge, error) {
		<-block
		return &fakeBridge{}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := loader.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The acquisition keeps running; a later caller still gets the handle.
	close(block)
	handle, err := loader.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, handle)
}

func TestLoader_Acquired(t *testing.T) {
	handle := &fakeBridge{}
	loader := NewLoader(func(context.Context) (Bridge, error) {
		return handle, nil
	})

	assert.False(t, loader.Acquired(), "nothing acquired before first Get")

	_, err := loader.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, loader.Acquired())
}

func TestLoader_ReleaseClosesHandle(t *testing.T) {
	handle := &fakeBridge{}
	loader := NewLoader(func(context.Context) (Bridge, error) {
		return handle, nil
	})

	_, err := loader.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, loader.Release(context.Background()))
	assert.True(t, handle.closed)
}

func TestLoader_ReleaseWithoutAcquisition(t *testing.T) {
	loader := NewLoader(func(context.Context) (Bridge, error) {
		t.Fatal("acquire must not be called")
		return nil, nil
	})

	assert.NoError(t, loader.Release(context.Background()))
}

func TestLoader_ReleaseBoundedByContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	loader := NewLoader(func(context.Context) (Bridge, error) {
		<-block
		return &fakeBridge{}, nil
	})

	go func() {
		_, _ = loader.Get(context.Background())
	}()

	// Give the acquisition goroutine a moment to start.
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loader.Release(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
