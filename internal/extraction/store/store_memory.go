package store

import (
	"context"
	"sync"

	"paperview/internal/extraction/models"
	id "paperview/pkg/domain"
	"paperview/pkg/platform/sentinel"
)

type studyUserKey struct {
	study id.StudyID
	user  id.UserID
}

// InMemoryStore is a map-backed Store for tests and local runs.
type InMemoryStore struct {
	mu          sync.RWMutex
	extractions map[id.ExtractionID]*models.Extraction
	byStudyUser map[studyUserKey]id.ExtractionID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		extractions: make(map[id.ExtractionID]*models.Extraction),
		byStudyUser: make(map[studyUserKey]id.ExtractionID),
	}
}

func (s *InMemoryStore) Save(ctx context.Context, extraction *models.Extraction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := studyUserKey{study: extraction.StudyID, user: extraction.AssignedTo}
	if existing, ok := s.byStudyUser[key]; ok && existing != extraction.ID {
		return sentinel.ErrConflict
	}
	s.extractions[extraction.ID] = clone(extraction)
	s.byStudyUser[key] = extraction.ID
	return nil
}

func (s *InMemoryStore) GetByID(ctx context.Context, extractionID id.ExtractionID) (*models.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	extraction, ok := s.extractions[extractionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(extraction), nil
}

func (s *InMemoryStore) GetByStudyAndUser(ctx context.Context, studyID id.StudyID, userID id.UserID) (*models.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	extractionID, ok := s.byStudyUser[studyUserKey{study: studyID, user: userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.extractions[extractionID]), nil
}

func (s *InMemoryStore) CountByStudy(ctx context.Context, studyID id.StudyID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, extraction := range s.extractions {
		if extraction.StudyID == studyID {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Extraction
	for _, extraction := range s.extractions {
		if extraction.AssignedTo == userID {
			out = append(out, clone(extraction))
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListWithTag(ctx context.Context, tagID id.TagID) ([]*models.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Extraction
	for _, extraction := range s.extractions {
		for _, quote := range extraction.Quotes {
			if quote.HasTag(tagID) {
				out = append(out, clone(extraction))
				break
			}
		}
	}
	return out, nil
}

func clone(extraction *models.Extraction) *models.Extraction {
	copied := *extraction
	copied.Quotes = make([]*models.Quote, len(extraction.Quotes))
	for i, quote := range extraction.Quotes {
		q := *quote
		q.TagIDs = append([]id.TagID(nil), quote.TagIDs...)
		copied.Quotes[i] = &q
	}
	return &copied
}
