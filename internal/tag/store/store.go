// Package store persists tags. Retired tags (merged into another) stay on
// disk for traceability but are excluded from every lookup here, which is
// what makes a merged source tag unresolvable by id.
package store

import (
	"context"

	"paperview/internal/tag/models"
	id "paperview/pkg/domain"
)

type Store interface {
	Save(ctx context.Context, tag *models.Tag) error
	// GetByID returns sentinel.ErrNotFound for unknown and retired tags.
	GetByID(ctx context.Context, tagID id.TagID) (*models.Tag, error)
	// ListByProject returns the project's live tags (retired excluded).
	ListByProject(ctx context.Context, projectID id.ProjectID) ([]*models.Tag, error)
	// ListMandatoryByProject returns the project's live mandatory tags.
	ListMandatoryByProject(ctx context.Context, projectID id.ProjectID) ([]*models.Tag, error)
}
