// Package head coordinates document head updates for a single client.
//
// A Coordinator owns the lifecycle of bridge-handle acquisition and
// translates higher-level intents — navigation occurred, the initial render
// completed, head markup content became available — into bridge calls
// submitted to a serialized task queue. The queue is the single
// synchronization point through which all bridge interaction flows, so no
// two bridge calls ever overlap.
package head

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/conneroisu/headsync/internal/bridge"
	"github.com/conneroisu/headsync/internal/errors"
	"github.com/conneroisu/headsync/internal/logging"
	"github.com/conneroisu/headsync/internal/navigation"
	"github.com/conneroisu/headsync/internal/taskqueue"
)

// State is the coordinator lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateRendering
	StateReady
	StateDisposed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRendering:
		return "rendering"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// SuffixProvider supplies the currently configured title suffix. Hot
// reloading swaps the value underneath a running coordinator.
type SuffixProvider func() string

// Options configures a coordinator.
type Options struct {
	// Suffix is appended verbatim to every derived title.
	Suffix string

	// SuffixFn, when set, takes precedence over Suffix and is consulted on
	// every derivation.
	SuffixFn SuffixProvider

	// TitleCase applies title casing to the derived path segment.
	TitleCase bool
}

// Coordinator drives head updates for one client session.
type Coordinator struct {
	queue     *taskqueue.Queue
	loader    *bridge.Loader
	source    navigation.Source
	tracker   *navigation.Tracker
	logger    logging.Logger
	suffix    SuffixProvider
	titleCase bool

	state atomic.Int32

	runCtx   context.Context
	cancel   context.CancelFunc
	events   <-chan navigation.Event
	loopDone chan struct{}

	// pendingMu gates pending.Add against Dispose's pending.Wait: once
	// draining is set no new work is added to the group.
	pendingMu   sync.Mutex
	draining    bool
	pending     sync.WaitGroup
	disposeOnce sync.Once
}

// New creates a coordinator in the Uninitialized state. The tracker is
// seeded with the source's current location.
func New(
	queue *taskqueue.Queue,
	loader *bridge.Loader,
	source navigation.Source,
	logger logging.Logger,
	opts Options,
) *Coordinator {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	suffix := opts.SuffixFn
	if suffix == nil {
		fixed := opts.Suffix
		suffix = func() string { return fixed }
	}

	return &Coordinator{
		queue:     queue,
		loader:    loader,
		source:    source,
		tracker:   navigation.NewTracker(source.Location()),
		logger:    logger.WithComponent("head"),
		suffix:    suffix,
		titleCase: opts.TitleCase,
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Start subscribes to the navigation source and moves the coordinator to
// Rendering. Must be called exactly once before any other notification.
func (c *Coordinator) Start(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateUninitialized), int32(StateRendering)) {
		if c.State() == StateDisposed {
			return errors.ErrCoordinatorDisposed()
		}
		return errors.ErrCoordinatorAlreadyStarted()
	}

	// Queued bridge work must not die with the caller's request context.
	c.runCtx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.events = c.source.Watch()
	c.loopDone = make(chan struct{})

	go c.watchLoop()

	c.logger.Info(ctx, "coordinator started", "location", c.tracker.Location())

	return nil
}

func (c *Coordinator) watchLoop() {
	defer close(c.loopDone)

	for {
		select {
		case event, ok := <-c.events:
			if !ok {
				return
			}
			c.onNavigate(c.runCtx, event.Location)
		case <-c.runCtx.Done():
			return
		}
	}
}

// onNavigate runs change detection and, when the navigation target genuinely
// changed, queues a set-title bridge call.
func (c *Coordinator) onNavigate(ctx context.Context, location string) {
	if c.State() == StateDisposed {
		return
	}

	if !c.tracker.Observe(location) {
		c.logger.Debug(ctx, "navigation suppressed, target unchanged", "location", location)
		return
	}

	title := c.titleFor(location)
	c.logger.Debug(ctx, "navigation changed target", "location", location, "title", title)
	c.enqueueSetTitle(ctx, title)
}

// OnAfterRender marks the initial render complete. The first call moves the
// coordinator to Ready and queues a set-title call for the current
// location; later render cycles are no-ops.
func (c *Coordinator) OnAfterRender(ctx context.Context) error {
	if c.state.CompareAndSwap(int32(StateRendering), int32(StateReady)) {
		title := c.titleFor(c.tracker.Location())
		c.logger.Info(ctx, "initial render complete", "title", title)
		c.enqueueSetTitle(c.runCtx, title)
		return nil
	}

	switch c.State() {
	case StateUninitialized:
		return errors.ErrCoordinatorNotStarted()
	case StateDisposed:
		return errors.ErrCoordinatorDisposed()
	default:
		return nil
	}
}

// SetHeadContent queues processing of head markup content. Calling it before
// the initial render has completed is a caller ordering violation and fails
// with a contract error without touching the bridge.
func (c *Coordinator) SetHeadContent(ctx context.Context, ref bridge.ContentRef) error {
	switch c.State() {
	case StateUninitialized, StateRendering:
		return errors.ErrHeadContentBeforeRender()
	case StateDisposed:
		return errors.ErrCoordinatorDisposed()
	}

	suffix := c.suffix()
	res := c.queue.Do(c.runCtx, func(ctx context.Context) error {
		handle, err := c.loader.Get(ctx)
		if err != nil {
			return err
		}

		title, err := handle.ProcessHeadContent(ctx, ref, suffix)
		if err != nil {
			return err
		}

		if title != "" {
			// Observed only; the content title is not acted upon further.
			c.logger.Info(ctx, "head content reported title", "title", title, "ref", ref.ID)
		}

		return nil
	})
	c.trackResult("process_head_content", res)

	return nil
}

func (c *Coordinator) titleFor(location string) string {
	path := location
	if components, ok := navigation.Split(location); ok {
		path = components.Path
	}

	return DeriveTitle(path, c.suffix(), c.titleCase)
}

func (c *Coordinator) enqueueSetTitle(ctx context.Context, title string) {
	res := c.queue.Do(ctx, func(ctx context.Context) error {
		handle, err := c.loader.Get(ctx)
		if err != nil {
			return err
		}

		return handle.SetTitle(ctx, title)
	})
	c.trackResult("set_title", res)
}

// trackResult observes a queued operation in the background so failures are
// logged instead of silently lost, and Dispose can await outstanding work.
// Operations that slip in after disposal has begun drain untracked; Dispose
// no longer waits for them, and their bridge calls fail against the
// cancelled run context.
func (c *Coordinator) trackResult(op string, res *taskqueue.Result[struct{}]) {
	c.pendingMu.Lock()
	tracked := !c.draining
	if tracked {
		c.pending.Add(1)
	}
	c.pendingMu.Unlock()

	go func() {
		if tracked {
			defer c.pending.Done()
		}
		if _, err := res.Await(context.Background()); err != nil {
			// Partial failure is isolated per operation: log and continue.
			c.logger.Warn(context.Background(), err, "queued bridge operation failed", "op", op)
		}
	}()
}

// Dispose unsubscribes from navigation notifications, awaits outstanding
// queued work bounded by ctx, and releases the bridge handle if one was
// acquired. Safe to call in any state; subsequent calls are no-ops.
func (c *Coordinator) Dispose(ctx context.Context) error {
	var err error

	c.disposeOnce.Do(func() {
		previous := State(c.state.Swap(int32(StateDisposed)))
		if previous == StateUninitialized || previous == StateDisposed {
			return
		}

		c.source.Unwatch(c.events)

		// Stop accepting new tracked work before waiting on the group.
		c.pendingMu.Lock()
		c.draining = true
		c.pendingMu.Unlock()

		// Give outstanding queued work a bounded chance to finish before
		// tearing anything down.
		drained := make(chan struct{})
		go func() {
			c.pending.Wait()
			close(drained)
		}()

		select {
		case <-drained:
		case <-ctx.Done():
			err = ctx.Err()
		}

		// Unblock any straggling bridge waits, then let the watch loop exit.
		c.cancel()

		select {
		case <-c.loopDone:
		case <-ctx.Done():
		}

		if relErr := c.loader.Release(ctx); relErr != nil && err == nil {
			err = relErr
		}

		c.logger.Info(ctx, "coordinator disposed", "previous_state", previous.String())
	})

	return err
}
