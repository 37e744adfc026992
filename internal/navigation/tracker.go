package navigation

import "sync"

// Tracker owns the stored previous location for a coordinator instance. The
// stored location is mutated only when a genuine change is confirmed, so two
// racing notifications for the same effective target yield exactly one true.
type Tracker struct {
	mu       sync.Mutex
	location string
}

// NewTracker creates a tracker seeded with the initial location.
func NewTracker(initial string) *Tracker {
	return &Tracker{location: initial}
}

// Observe compares next against the stored location. When the target changed
// it commits next as the new stored location and returns true; otherwise the
// stored location is left untouched and it returns false.
func (t *Tracker) Observe(next string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !Changed(t.location, next) {
		return false
	}

	t.location = next

	return true
}

// Location returns the currently stored location.
func (t *Tracker) Location() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.location
}
