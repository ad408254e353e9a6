package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
)

func TestNewDeductiveTag(t *testing.T) {
	now := time.Now()
	tag, err := NewDeductiveTag(id.NewTagID(), "Population", id.NewProjectID(), id.NewQuestionID(), id.NewUserID(), now)
	require.NoError(t, err)

	assert.True(t, tag.IsMandatory)
	assert.Equal(t, TagApproved, tag.Status)
	assert.Equal(t, VisibilityPublic, tag.Visibility)
	assert.Equal(t, TypeDeductive, tag.Type)
	require.NotNil(t, tag.QuestionID)
}

func TestNewInductiveTag(t *testing.T) {
	now := time.Now()
	tag, err := NewInductiveTag(id.NewTagID(), "Hidden cost", id.NewProjectID(), id.NewUserID(), now)
	require.NoError(t, err)

	assert.False(t, tag.IsMandatory)
	assert.Equal(t, TagPending, tag.Status)
	assert.Equal(t, VisibilityPrivate, tag.Visibility)
	assert.Equal(t, TypeInductive, tag.Type)
	assert.Nil(t, tag.QuestionID)
}

func TestNewTag_RejectsBlankName(t *testing.T) {
	_, err := NewInductiveTag(id.NewTagID(), "   ", id.NewProjectID(), id.NewUserID(), time.Now())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestApprove(t *testing.T) {
	now := time.Now()

	t.Run("pending becomes approved and public", func(t *testing.T) {
		tag, _ := NewInductiveTag(id.NewTagID(), "Hidden cost", id.NewProjectID(), id.NewUserID(), now)
		require.NoError(t, tag.Approve(now))
		assert.Equal(t, TagApproved, tag.Status)
		assert.Equal(t, VisibilityPublic, tag.Visibility)
	})

	t.Run("resolved tags reject further moderation", func(t *testing.T) {
		tag, _ := NewInductiveTag(id.NewTagID(), "Hidden cost", id.NewProjectID(), id.NewUserID(), now)
		require.NoError(t, tag.Approve(now))

		err := tag.Approve(now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

		err = tag.Reject(now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestReject_KeepsVisibilityPrivate(t *testing.T) {
	now := time.Now()
	tag, _ := NewInductiveTag(id.NewTagID(), "Hidden cost", id.NewProjectID(), id.NewUserID(), now)
	require.NoError(t, tag.Reject(now))
	assert.Equal(t, TagRejected, tag.Status)
	assert.Equal(t, VisibilityPrivate, tag.Visibility)

	err := tag.Approve(now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestRetire(t *testing.T) {
	now := time.Now()
	tag, _ := NewInductiveTag(id.NewTagID(), "Costs oc.", id.NewProjectID(), id.NewUserID(), now)
	require.NoError(t, tag.Approve(now))

	target := id.NewTagID()
	require.NoError(t, tag.Retire(target, now))
	assert.True(t, tag.IsRetired())
	assert.Equal(t, target, *tag.MergedInto)

	err := tag.Retire(id.NewTagID(), now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestIsVisibleTo(t *testing.T) {
	now := time.Now()
	creator := id.NewUserID()
	other := id.NewUserID()

	pending, _ := NewInductiveTag(id.NewTagID(), "Proposal", id.NewProjectID(), creator, now)
	assert.True(t, pending.IsVisibleTo(creator), "creators see their own pending proposals")
	assert.False(t, pending.IsVisibleTo(other), "others do not")

	require.NoError(t, pending.Reject(now))
	assert.True(t, pending.IsVisibleTo(creator), "creators see their own rejected proposals")
	assert.False(t, pending.IsVisibleTo(other))

	approved, _ := NewInductiveTag(id.NewTagID(), "Shared", id.NewProjectID(), creator, now)
	require.NoError(t, approved.Approve(now))
	assert.True(t, approved.IsVisibleTo(other), "approved public tags are visible to everyone")
}
