package navigation

import (
	"sync"
	"time"
)

// Event carries a navigation change notification.
type Event struct {
	Location  string
	Timestamp time.Time
}

// Source supplies the current location and raises change notifications.
// Implementations deliver events on watcher channels registered with Watch;
// Unwatch releases a registration and closes its channel.
type Source interface {
	Location() string
	Watch() <-chan Event
	Unwatch(ch <-chan Event)
}

// ChannelSource is an in-process Source fed by explicit Navigate calls. The
// server feeds it from browser messages; tests feed it directly.
type ChannelSource struct {
	mu       sync.RWMutex
	location string
	watchers []chan Event
}

// NewChannelSource creates a source holding the given initial location.
func NewChannelSource(initial string) *ChannelSource {
	return &ChannelSource{
		location: initial,
		watchers: make([]chan Event, 0),
	}
}

// Location returns the most recently navigated location.
func (s *ChannelSource) Location() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.location
}

// Navigate records the new location and notifies all watchers.
func (s *ChannelSource) Navigate(location string) {
	s.mu.Lock()
	s.location = location
	watchers := make([]chan Event, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	event := Event{
		Location:  location,
		Timestamp: time.Now(),
	}

	for _, watcher := range watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Watch registers a new watcher channel.
func (s *ChannelSource) Watch() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, 16)
	s.watchers = append(s.watchers, ch)

	return ch
}

// Unwatch removes a watcher registration and closes its channel. Unknown
// channels are ignored.
func (s *ChannelSource) Unwatch(ch <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, watcher := range s.watchers {
		if watcher == ch {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			close(watcher)
			return
		}
	}
}

// Close closes every remaining watcher channel.
func (s *ChannelSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, watcher := range s.watchers {
		close(watcher)
	}
	s.watchers = s.watchers[:0]
}
