package memory

import (
	"context"
	"sync"

	"driverdesk/pkg/domain"
	audit "driverdesk/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.TrackerID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.TrackerID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[domain.TrackerID][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.TrackerID] = append(s.events[event.TrackerID], event)
	return nil
}

// ListByTracker returns a tracker's events in append order.
func (s *InMemoryStore) ListByTracker(_ context.Context, trackerID domain.TrackerID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[trackerID]...), nil
}
