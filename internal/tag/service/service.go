// Package service implements the tag lifecycle commands: creation of
// deductive and inductive tags, moderation of pending proposals, and merging
// duplicate tags with quote repointing.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"paperview/internal/collab"
	extractionmodels "paperview/internal/extraction/models"
	"paperview/internal/platform/audit"
	"paperview/internal/platform/metrics"
	"paperview/internal/tag/models"
	"paperview/internal/tag/store"
	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
	"paperview/pkg/platform/sentinel"
	"paperview/pkg/platform/tx"
)

// ExtractionAccess is the slice of the extraction store a merge needs to
// repoint quote references through their aggregate roots.
type ExtractionAccess interface {
	ListWithTag(ctx context.Context, tagID id.TagID) ([]*extractionmodels.Extraction, error)
	Save(ctx context.Context, extraction *extractionmodels.Extraction) error
}

type Service struct {
	tags        store.Store
	extractions ExtractionAccess
	projects    collab.ProjectLookup
	questions   collab.QuestionLookup
	runner      tx.Runner
	recorder    audit.Recorder
	metrics     *metrics.Metrics
	logger      *slog.Logger
	clock       func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(
	tags store.Store,
	extractions ExtractionAccess,
	projects collab.ProjectLookup,
	questions collab.QuestionLookup,
	runner tx.Runner,
	recorder audit.Recorder,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		tags:        tags,
		extractions: extractions,
		projects:    projects,
		questions:   questions,
		runner:      runner,
		recorder:    recorder,
		metrics:     m,
		logger:      logger,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a tag in the project's vocabulary. A question-linked tag
// is deductive (mandatory, pre-approved); without a question it is an
// inductive proposal that starts pending and private.
func (s *Service) Create(ctx context.Context, projectID id.ProjectID, actor id.UserID, name string, questionID *id.QuestionID) (*models.Tag, error) {
	if err := s.requireMember(ctx, projectID, actor); err != nil {
		return nil, err
	}

	now := s.clock()
	var tag *models.Tag
	var err error
	if questionID != nil {
		question, qErr := s.questions.GetQuestion(ctx, *questionID)
		if errors.Is(qErr, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "research question not found")
		}
		if qErr != nil {
			return nil, dErrors.Wrap(qErr, dErrors.CodeInternal, "resolving research question")
		}
		if question.ProjectID != projectID {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "research question belongs to a different project")
		}
		tag, err = models.NewDeductiveTag(id.NewTagID(), name, projectID, *questionID, actor, now)
	} else {
		tag, err = models.NewInductiveTag(id.NewTagID(), name, projectID, actor, now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.tags.Save(ctx, tag); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "saving tag")
	}
	s.metrics.TagsCreated.Inc()
	return tag, nil
}

// Approve promotes a pending tag into the shared vocabulary. Owner-only.
func (s *Service) Approve(ctx context.Context, tagID id.TagID, actor id.UserID) (*models.Tag, error) {
	return s.moderate(ctx, tagID, actor, audit.ActionTagApproved, "approved",
		func(t *models.Tag, now time.Time) error { return t.Approve(now) })
}

// Reject declines a pending tag proposal. Owner-only.
func (s *Service) Reject(ctx context.Context, tagID id.TagID, actor id.UserID) (*models.Tag, error) {
	return s.moderate(ctx, tagID, actor, audit.ActionTagRejected, "rejected",
		func(t *models.Tag, now time.Time) error { return t.Reject(now) })
}

func (s *Service) moderate(
	ctx context.Context,
	tagID id.TagID,
	actor id.UserID,
	action audit.Action,
	label string,
	apply func(*models.Tag, time.Time) error,
) (*models.Tag, error) {
	now := s.clock()
	var result *models.Tag
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		tag, err := s.loadTag(ctx, tagID)
		if err != nil {
			return err
		}
		if err := s.requireOwner(ctx, tag.ProjectID, actor); err != nil {
			return err
		}
		if err := apply(tag, now); err != nil {
			return err
		}
		if err := s.tags.Save(ctx, tag); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving tag")
		}
		result = tag
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TagsModerated.WithLabelValues(label).Inc()
	s.recorder.Record(ctx, audit.Event{
		Action:    action,
		ActorID:   actor,
		ProjectID: result.ProjectID,
		Subject:   result.ID.String(),
		At:        now,
	})
	return result, nil
}

// Merge folds the source tag into the target: every quote referencing the
// source is repointed to the target (a quote already holding both keeps a
// single reference), then the source is retired. Owner-only; both tags must
// be approved, share a project, and the source must not be mandatory.
func (s *Service) Merge(ctx context.Context, sourceID, targetID id.TagID, actor id.UserID) (*models.Tag, error) {
	if sourceID == targetID {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "cannot merge a tag into itself")
	}

	now := s.clock()
	var target *models.Tag
	var projectID id.ProjectID
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		source, err := s.loadTag(ctx, sourceID)
		if err != nil {
			return err
		}
		target, err = s.loadTag(ctx, targetID)
		if err != nil {
			return err
		}
		if source.ProjectID != target.ProjectID {
			return dErrors.New(dErrors.CodeInvalidInput, "tags belong to different projects")
		}
		projectID = source.ProjectID
		if err := s.requireOwner(ctx, projectID, actor); err != nil {
			return err
		}
		if source.Status != models.TagApproved || target.Status != models.TagApproved {
			return dErrors.New(dErrors.CodeInvalidState, "only approved tags can be merged")
		}
		if source.IsMandatory {
			return dErrors.New(dErrors.CodeInvalidState, "mandatory tags cannot be merged away")
		}

		affected, err := s.extractions.ListWithTag(ctx, sourceID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "listing extractions holding the tag")
		}
		repointed := 0
		for _, extraction := range affected {
			changed := false
			for _, quote := range extraction.Quotes {
				if quote.ReplaceTag(sourceID, targetID) {
					changed = true
				}
			}
			if !changed {
				continue
			}
			if err := s.extractions.Save(ctx, extraction); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "saving repointed extraction")
			}
			repointed++
		}
		s.logger.InfoContext(ctx, "merged tag",
			"source_id", sourceID.String(),
			"target_id", targetID.String(),
			"extractions_repointed", repointed,
		)

		if err := source.Retire(targetID, now); err != nil {
			return err
		}
		if err := s.tags.Save(ctx, source); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "retiring merged tag")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TagsMerged.Inc()
	s.recorder.Record(ctx, audit.Event{
		Action:    audit.ActionTagsMerged,
		ActorID:   actor,
		ProjectID: projectID,
		Subject:   sourceID.String() + "->" + targetID.String(),
		At:        now,
	})
	return target, nil
}

// Get returns a single live tag, subject to the visibility rule.
func (s *Service) Get(ctx context.Context, tagID id.TagID, actor id.UserID) (*models.Tag, error) {
	tag, err := s.loadTag(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if !tag.IsVisibleTo(actor) {
		return nil, dErrors.New(dErrors.CodeNotFound, "tag not found")
	}
	return tag, nil
}

// ListAvailableForUser returns the project's tags the user may apply: the
// approved public vocabulary plus the user's own proposals.
func (s *Service) ListAvailableForUser(ctx context.Context, projectID id.ProjectID, userID id.UserID) ([]*models.Tag, error) {
	if err := s.requireMember(ctx, projectID, userID); err != nil {
		return nil, err
	}
	tags, err := s.tags.ListByProject(ctx, projectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing tags")
	}
	visible := tags[:0]
	for _, tag := range tags {
		if tag.IsVisibleTo(userID) {
			visible = append(visible, tag)
		}
	}
	return visible, nil
}

func (s *Service) loadTag(ctx context.Context, tagID id.TagID) (*models.Tag, error) {
	tag, err := s.tags.GetByID(ctx, tagID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "tag not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading tag")
	}
	return tag, nil
}

func (s *Service) requireMember(ctx context.Context, projectID id.ProjectID, actor id.UserID) error {
	member, err := s.projects.IsMember(ctx, projectID, actor)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "checking project membership")
	}
	if !member {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is not a member of the project")
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context, projectID id.ProjectID, actor id.UserID) error {
	owner, err := s.projects.GetOwner(ctx, projectID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "project not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "resolving project owner")
	}
	if owner != actor {
		return dErrors.New(dErrors.CodeUnauthorized, "only the project owner can moderate tags")
	}
	return nil
}
