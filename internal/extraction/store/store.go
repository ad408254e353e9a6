package store

import (
	"context"

	"paperview/internal/extraction/models"
	id "paperview/pkg/domain"
)

// Store persists extraction aggregates, quotes included. Implementations
// return sentinel.ErrNotFound for unknown ids and sentinel.ErrConflict when
// a second extraction is saved for the same (study, user) pair.
type Store interface {
	Save(ctx context.Context, extraction *models.Extraction) error
	GetByID(ctx context.Context, extractionID id.ExtractionID) (*models.Extraction, error)
	GetByStudyAndUser(ctx context.Context, studyID id.StudyID, userID id.UserID) (*models.Extraction, error)
	CountByStudy(ctx context.Context, studyID id.StudyID) (int, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Extraction, error)
	// ListWithTag returns every extraction holding at least one quote that
	// references the tag. Merges load aggregates through this and repoint
	// quotes via the root.
	ListWithTag(ctx context.Context, tagID id.TagID) ([]*models.Extraction, error)
}
