package store

import (
	"context"
	"sort"
	"sync"

	"driverdesk/internal/tracker/models"
	"driverdesk/pkg/domain"
	"driverdesk/pkg/platform/sentinel"
)

// InMemory is a Store for development and tests.
type InMemory struct {
	mu       sync.RWMutex
	trackers map[domain.TrackerID]*models.Tracker
}

func NewInMemory() *InMemory {
	return &InMemory{trackers: make(map[domain.TrackerID]*models.Tracker)}
}

func (s *InMemory) Create(_ context.Context, t *models.Tracker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.trackers[t.ID]; exists {
		return sentinel.ErrConflict
	}
	t.Version = 1
	s.trackers[t.ID] = t.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.TrackerID) (*models.Tracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trackers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *InMemory) ListByCompany(_ context.Context, companyID domain.CompanyID) ([]*models.Tracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Tracker
	for _, t := range s.trackers {
		if t.CompanyID == companyID {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) ListByIDs(_ context.Context, ids []domain.TrackerID) ([]*models.Tracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.TrackerID]struct{}, len(ids))
	var out []*models.Tracker
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if t, ok := s.trackers[id]; ok {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, t *models.Tracker, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.trackers[t.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	t.Version = expectedVersion + 1
	s.trackers[t.ID] = t.Clone()
	return nil
}
