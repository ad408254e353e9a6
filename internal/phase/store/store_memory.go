package store

import (
	"context"
	"sync"

	"paperview/internal/phase/models"
	id "paperview/pkg/domain"
	"paperview/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	phases map[id.ProjectID]models.ExtractionPhase
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{phases: make(map[id.ProjectID]models.ExtractionPhase)}
}

func (s *InMemoryStore) Save(_ context.Context, phase *models.ExtractionPhase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.phases[phase.ProjectID]; ok && existing.ID != phase.ID {
		return sentinel.ErrConflict
	}
	s.phases[phase.ProjectID] = *phase
	return nil
}

func (s *InMemoryStore) GetByProject(_ context.Context, projectID id.ProjectID) (*models.ExtractionPhase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	phase, ok := s.phases[projectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copy := phase
	return &copy, nil
}

func (s *InMemoryStore) ListAutoClosable(_ context.Context) ([]*models.ExtractionPhase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ExtractionPhase
	for _, phase := range s.phases {
		if phase.Status == models.PhaseActive && phase.AutoClose && phase.EndDate != nil {
			copy := phase
			out = append(out, &copy)
		}
	}
	return out, nil
}
