package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"driverdesk/internal/documents/models"
	"driverdesk/pkg/domain"
	"driverdesk/pkg/platform/sentinel"
)

type memoryObject struct {
	doc  models.Document
	body []byte
}

// InMemory is a Store for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewInMemory() *InMemory {
	return &InMemory{objects: make(map[string]memoryObject)}
}

func (s *InMemory) Put(_ context.Context, doc *models.Document, body io.Reader) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read document body: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *doc
	stored.Size = int64(len(raw))
	doc.Size = stored.Size
	s.objects[doc.Key] = memoryObject{doc: stored, body: raw}
	return nil
}

func (s *InMemory) Get(_ context.Context, key string) (*models.Document, io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, nil, sentinel.ErrNotFound
	}
	doc := obj.doc
	return &doc, io.NopCloser(bytes.NewReader(obj.body)), nil
}

func (s *InMemory) List(_ context.Context, trackerID domain.TrackerID) ([]*models.Document, error) {
	prefix := models.TrackerPrefix(trackerID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			doc := obj.doc
			out = append(out, &doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}
