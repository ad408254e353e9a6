package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperview/internal/tag/models"
	id "paperview/pkg/domain"
	"paperview/pkg/platform/sentinel"
)

func TestInMemoryStore_RetiredTagsDisappear(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Now()
	project := id.NewProjectID()

	tag, err := models.NewInductiveTag(id.NewTagID(), "Hidden cost", project, id.NewUserID(), now)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, tag))

	got, err := s.GetByID(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, tag.ID, got.ID)

	require.NoError(t, tag.Retire(id.NewTagID(), now))
	require.NoError(t, s.Save(ctx, tag))

	_, err = s.GetByID(ctx, tag.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	list, err := s.ListByProject(ctx, project)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInMemoryStore_MandatoryFilter(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Now()
	project := id.NewProjectID()

	mandatory, err := models.NewDeductiveTag(id.NewTagID(), "Population", project, id.NewQuestionID(), id.NewUserID(), now)
	require.NoError(t, err)
	optional, err := models.NewInductiveTag(id.NewTagID(), "Hidden cost", project, id.NewUserID(), now)
	require.NoError(t, err)
	other, err := models.NewDeductiveTag(id.NewTagID(), "Outcome", id.NewProjectID(), id.NewQuestionID(), id.NewUserID(), now)
	require.NoError(t, err)
	for _, tag := range []*models.Tag{mandatory, optional, other} {
		require.NoError(t, s.Save(ctx, tag))
	}

	list, err := s.ListMandatoryByProject(ctx, project)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mandatory.ID, list[0].ID)

	t.Run("saved copies are isolated", func(t *testing.T) {
		got, err := s.GetByID(ctx, optional.ID)
		require.NoError(t, err)
		got.Name = "mutated"

		reloaded, err := s.GetByID(ctx, optional.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hidden cost", reloaded.Name)
	})
}
