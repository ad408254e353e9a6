package store

import (
	"context"
	"sync"

	"paperview/internal/tag/models"
	id "paperview/pkg/domain"
	"paperview/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	tags map[id.TagID]models.Tag
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tags: make(map[id.TagID]models.Tag)}
}

func (s *InMemoryStore) Save(_ context.Context, tag *models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[tag.ID] = *tag
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, tagID id.TagID) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.tags[tagID]
	if !ok || tag.IsRetired() {
		return nil, sentinel.ErrNotFound
	}
	copy := tag
	return &copy, nil
}

func (s *InMemoryStore) ListByProject(_ context.Context, projectID id.ProjectID) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Tag
	for _, tag := range s.tags {
		if tag.ProjectID == projectID && !tag.IsRetired() {
			copy := tag
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListMandatoryByProject(_ context.Context, projectID id.ProjectID) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Tag
	for _, tag := range s.tags {
		if tag.ProjectID == projectID && tag.IsMandatory && !tag.IsRetired() {
			copy := tag
			out = append(out, &copy)
		}
	}
	return out, nil
}
