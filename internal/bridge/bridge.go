// Package bridge defines the asynchronous head-mutation bridge and its
// supporting pieces: a memoized loader that acquires the bridge handle at
// most once, a websocket-backed bridge implementation, and head-markup title
// extraction.
//
// The bridge is the external collaborator that performs actual document head
// mutation. headsync treats every bridge call as a black-box asynchronous
// operation that may fail; callers are expected to funnel all calls through
// a single serialized queue so that no two calls overlap.
package bridge

import "context"

// ContentRef is an opaque reference to head markup content supplied by the
// render host.
type ContentRef struct {
	ID     string `json:"id"`
	Markup string `json:"markup"`
}

// Bridge is the handle to the external head-mutation module.
type Bridge interface {
	// SetTitle replaces the document title.
	SetTitle(ctx context.Context, title string) error

	// ProcessHeadContent applies head markup content, appending suffix to
	// any title elements it finds. It returns the title it discovered in
	// the content, or an empty string when none was present.
	ProcessHeadContent(ctx context.Context, ref ContentRef, suffix string) (string, error)

	// Close releases the handle.
	Close() error
}

// AcquireFunc produces a bridge handle. Called at most once per Loader.
type AcquireFunc func(ctx context.Context) (Bridge, error)
