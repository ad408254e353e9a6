// Package store persists extraction phases. The unique project key upholds
// the one-phase-per-project invariant at the storage layer.
package store

import (
	"context"

	"paperview/internal/phase/models"
	id "paperview/pkg/domain"
)

type Store interface {
	// Save inserts or updates a phase. Inserting a second phase for the same
	// project returns sentinel.ErrConflict.
	Save(ctx context.Context, phase *models.ExtractionPhase) error
	// GetByProject returns sentinel.ErrNotFound when the project has no phase.
	GetByProject(ctx context.Context, projectID id.ProjectID) (*models.ExtractionPhase, error)
	// ListAutoClosable returns active phases with auto-close enabled and an
	// end date set; the sweep re-checks each one before closing.
	ListAutoClosable(ctx context.Context) ([]*models.ExtractionPhase, error)
}
