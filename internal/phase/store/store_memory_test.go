package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperview/internal/phase/models"
	id "paperview/pkg/domain"
	"paperview/pkg/platform/sentinel"
)

func TestInMemoryStore_OnePhasePerProject(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	project := id.NewProjectID()

	first, err := models.NewExtractionPhase(id.NewPhaseID(), project, models.Settings{
		Mode: models.ModeSingle, MinQuotesRequired: 1, MaxQuotesPerExtraction: 10,
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, first))

	// Same phase updates in place.
	require.NoError(t, first.Activate(time.Now()))
	require.NoError(t, s.Save(ctx, first))

	// A different phase for the same project violates the unique key.
	second, err := models.NewExtractionPhase(id.NewPhaseID(), project, models.Settings{
		Mode: models.ModeSingle, MinQuotesRequired: 1, MaxQuotesPerExtraction: 10,
	}, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Save(ctx, second), sentinel.ErrConflict)
}

func TestInMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	project := id.NewProjectID()

	phase, err := models.NewExtractionPhase(id.NewPhaseID(), project, models.Settings{
		Mode: models.ModeSingle, MinQuotesRequired: 1, MaxQuotesPerExtraction: 10,
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, phase))

	loaded, err := s.GetByProject(ctx, project)
	require.NoError(t, err)
	loaded.Status = models.PhaseActive

	again, err := s.GetByProject(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseInactive, again.Status)
}

func TestInMemoryStore_NotFound(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.GetByProject(context.Background(), id.NewProjectID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_ListAutoClosable(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Now()
	end := now.Add(time.Hour)

	closable, err := models.NewExtractionPhase(id.NewPhaseID(), id.NewProjectID(), models.Settings{
		Mode: models.ModeSingle, MinQuotesRequired: 1, MaxQuotesPerExtraction: 10,
		AutoClose: true, EndDate: &end,
	}, now)
	require.NoError(t, err)
	require.NoError(t, closable.Activate(now))
	require.NoError(t, s.Save(ctx, closable))

	inactive, err := models.NewExtractionPhase(id.NewPhaseID(), id.NewProjectID(), models.Settings{
		Mode: models.ModeSingle, MinQuotesRequired: 1, MaxQuotesPerExtraction: 10,
		AutoClose: true, EndDate: &end,
	}, now)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, inactive))

	list, err := s.ListAutoClosable(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, closable.ID, list[0].ID)
}
