package models

import (
	"strings"
	"time"

	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
)

// Tag is a classification label scoped to a project.
//
// Invariants:
//   - Name is non-empty
//   - A tag linked to a research question is deductive, mandatory, and
//     pre-approved
//   - An inductive tag starts pending/private and becomes public only via
//     approval
//   - A retired tag (MergedInto set) is no longer resolvable through normal
//     lookups and never mandatory
type Tag struct {
	ID          id.TagID
	Name        string
	ProjectID   id.ProjectID
	QuestionID  *id.QuestionID
	IsMandatory bool
	CreatedBy   id.UserID
	Status      TagStatus
	Visibility  TagVisibility
	Type        TagType
	MergedInto  *id.TagID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "tag name cannot be empty")
	}
	return nil
}

// NewDeductiveTag creates a question-linked tag: mandatory, pre-approved, and
// public from birth.
func NewDeductiveTag(tagID id.TagID, name string, projectID id.ProjectID, questionID id.QuestionID, creator id.UserID, now time.Time) (*Tag, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	q := questionID
	return &Tag{
		ID:          tagID,
		Name:        name,
		ProjectID:   projectID,
		QuestionID:  &q,
		IsMandatory: true,
		CreatedBy:   creator,
		Status:      TagApproved,
		Visibility:  VisibilityPublic,
		Type:        TypeDeductive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewInductiveTag creates a researcher-proposed tag: optional, pending, and
// private until approved.
func NewInductiveTag(tagID id.TagID, name string, projectID id.ProjectID, creator id.UserID, now time.Time) (*Tag, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Tag{
		ID:          tagID,
		Name:        name,
		ProjectID:   projectID,
		IsMandatory: false,
		CreatedBy:   creator,
		Status:      TagPending,
		Visibility:  VisibilityPrivate,
		Type:        TypeInductive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Approve promotes a pending tag into the team-wide vocabulary.
func (t *Tag) Approve(now time.Time) error {
	if !t.Status.CanTransitionTo(TagApproved) {
		return dErrors.Newf(dErrors.CodeInvalidState, "tag is already %s", string(t.Status))
	}
	t.Status = TagApproved
	t.Visibility = VisibilityPublic
	t.UpdatedAt = now
	return nil
}

// Reject resolves a pending tag as declined. Visibility stays private so the
// proposer can still see their own proposal.
func (t *Tag) Reject(now time.Time) error {
	if !t.Status.CanTransitionTo(TagRejected) {
		return dErrors.Newf(dErrors.CodeInvalidState, "tag is already %s", string(t.Status))
	}
	t.Status = TagRejected
	t.UpdatedAt = now
	return nil
}

// Retire marks this tag as merged into target. Retired tags disappear from
// normal lookups; the marker is kept for traceability.
func (t *Tag) Retire(target id.TagID, now time.Time) error {
	if t.MergedInto != nil {
		return dErrors.New(dErrors.CodeInvalidState, "tag is already merged")
	}
	tgt := target
	t.MergedInto = &tgt
	t.UpdatedAt = now
	return nil
}

// IsRetired reports whether the tag has been merged away.
func (t *Tag) IsRetired() bool {
	return t.MergedInto != nil
}

// IsVisibleTo implements the visibility rule: a tag is visible if it is
// public and approved, or if the user created it (regardless of its approval
// state, so researchers can see their own pending and rejected proposals).
func (t *Tag) IsVisibleTo(userID id.UserID) bool {
	if t.Visibility == VisibilityPublic && t.Status == TagApproved {
		return true
	}
	return t.CreatedBy == userID
}
