// Package service implements the extraction commands: opening an extraction
// for a study under the governing phase's rules, capturing tagged quotes,
// and validating completeness before closing.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"paperview/internal/collab"
	"paperview/internal/extraction/models"
	"paperview/internal/extraction/store"
	phasemodels "paperview/internal/phase/models"
	"paperview/internal/platform/metrics"
	tagmodels "paperview/internal/tag/models"
	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
	"paperview/pkg/platform/sentinel"
	"paperview/pkg/platform/tx"
)

// PhaseReader is the slice of the phase store the extraction commands need.
type PhaseReader interface {
	GetByProject(ctx context.Context, projectID id.ProjectID) (*phasemodels.ExtractionPhase, error)
}

// TagReader is the slice of the tag store the extraction commands need.
type TagReader interface {
	GetByID(ctx context.Context, tagID id.TagID) (*tagmodels.Tag, error)
	ListMandatoryByProject(ctx context.Context, projectID id.ProjectID) ([]*tagmodels.Tag, error)
}

type Service struct {
	extractions store.Store
	phases      PhaseReader
	tags        TagReader
	studies     collab.StudyLookup
	projects    collab.ProjectLookup
	runner      tx.Runner
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
	extractions store.Store,
	phases PhaseReader,
	tags TagReader,
	studies collab.StudyLookup,
	projects collab.ProjectLookup,
	runner tx.Runner,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		extractions: extractions,
		phases:      phases,
		tags:        tags,
		studies:     studies,
		projects:    projects,
		runner:      runner,
		metrics:     m,
		logger:      logger,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new extraction for the actor on the study. The governing
// phase must be open, the actor must be a project member, the study's
// extraction slots must not be exhausted, and the actor must not already
// hold an extraction for this study.
func (s *Service) Create(ctx context.Context, studyID id.StudyID, actor id.UserID) (*models.Extraction, error) {
	projectID, err := s.resolveProject(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, projectID, actor); err != nil {
		return nil, err
	}

	now := s.clock()
	var result *models.Extraction
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		phase, err := s.phases.GetByProject(ctx, projectID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvalidState, "no extraction phase configured for project")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "loading extraction phase")
		}
		if !phase.IsOpenForExtraction(now) {
			return dErrors.New(dErrors.CodeInvalidState, "extraction phase is not open for extraction work")
		}

		if _, err := s.extractions.GetByStudyAndUser(ctx, studyID, actor); err == nil {
			return dErrors.New(dErrors.CodeConflict, "researcher already has an extraction for this study")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "checking existing extraction")
		}

		count, err := s.extractions.CountByStudy(ctx, studyID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "counting extractions for study")
		}
		if err := phase.ValidateExtractionCount(count); err != nil {
			return err
		}

		extraction, err := models.NewExtraction(
			id.NewExtractionID(), studyID, actor, count+1, phase.MaxQuotesPerExtraction, now)
		if err != nil {
			return err
		}
		if err := s.extractions.Save(ctx, extraction); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "researcher already has an extraction for this study")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving extraction")
		}
		result = extraction
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ExtractionsCreated.Inc()
	return result, nil
}

// StartWorking moves the actor's pending extraction into progress.
// Assignee-only.
func (s *Service) StartWorking(ctx context.Context, extractionID id.ExtractionID, actor id.UserID) (*models.Extraction, error) {
	now := s.clock()
	var result *models.Extraction
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		extraction, err := s.loadOwned(ctx, extractionID, actor)
		if err != nil {
			return err
		}
		if err := extraction.StartWorking(now); err != nil {
			return err
		}
		if err := s.extractions.Save(ctx, extraction); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving extraction")
		}
		result = extraction
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QuoteInput carries the caller's payload for a new quote.
type QuoteInput struct {
	Text     string
	Location models.QuoteLocation
	TagIDs   []id.TagID
}

// AddQuote captures a tagged quote on the actor's in-progress extraction.
// Every referenced tag must belong to the study's project and be visible to
// the actor.
func (s *Service) AddQuote(ctx context.Context, extractionID id.ExtractionID, actor id.UserID, input QuoteInput) (*models.Quote, error) {
	now := s.clock()
	var result *models.Quote
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		extraction, err := s.loadOwned(ctx, extractionID, actor)
		if err != nil {
			return err
		}
		projectID, err := s.resolveProject(ctx, extraction.StudyID)
		if err != nil {
			return err
		}

		quote, err := models.NewQuote(id.NewQuoteID(), extraction.ID, input.Text, input.Location, actor, now)
		if err != nil {
			return err
		}
		for _, tagID := range input.TagIDs {
			tag, err := s.tags.GetByID(ctx, tagID)
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "tag not found")
			}
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "loading tag")
			}
			if tag.ProjectID != projectID {
				return dErrors.New(dErrors.CodeInvalidInput, "tag belongs to a different project")
			}
			// Private tags of other researchers read as absent.
			if !tag.IsVisibleTo(actor) {
				return dErrors.New(dErrors.CodeNotFound, "tag not found")
			}
			quote.AddTag(tag.ID)
		}

		if err := extraction.AddQuote(quote, now); err != nil {
			return err
		}
		if err := s.extractions.Save(ctx, extraction); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving extraction")
		}
		result = quote
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.QuotesCreated.Inc()
	return result, nil
}

// Complete closes the actor's extraction once every mandatory tag of the
// project is used by at least one quote. Assignee-only.
func (s *Service) Complete(ctx context.Context, extractionID id.ExtractionID, actor id.UserID) (*models.Extraction, error) {
	now := s.clock()
	var result *models.Extraction
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		extraction, err := s.loadOwned(ctx, extractionID, actor)
		if err != nil {
			return err
		}
		missing, err := s.missingMandatoryTags(ctx, extraction)
		if err != nil {
			return err
		}
		if err := extraction.Complete(missing, now); err != nil {
			return err
		}
		if err := s.extractions.Save(ctx, extraction); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving extraction")
		}
		result = extraction
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ExtractionsCompleted.Inc()
	s.logger.InfoContext(ctx, "extraction completed",
		"extraction_id", result.ID.String(),
		"study_id", result.StudyID.String(),
		"quotes", len(result.Quotes),
	)
	return result, nil
}

// Get returns an extraction to the assignee or any fellow project member.
func (s *Service) Get(ctx context.Context, extractionID id.ExtractionID, actor id.UserID) (*models.Extraction, error) {
	extraction, err := s.load(ctx, extractionID)
	if err != nil {
		return nil, err
	}
	if extraction.AssignedTo != actor {
		projectID, err := s.resolveProject(ctx, extraction.StudyID)
		if err != nil {
			return nil, err
		}
		if err := s.requireMember(ctx, projectID, actor); err != nil {
			return nil, err
		}
	}
	return extraction, nil
}

// ListByUser returns the researcher's extractions across all studies.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Extraction, error) {
	extractions, err := s.extractions.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing extractions")
	}
	return extractions, nil
}

// Progress reports how close an extraction is to completion.
type Progress struct {
	QuoteCount  int      `json:"quote_count"`
	MissingTags []string `json:"missing_tags"`
	IsReady     bool     `json:"is_ready"`
}

// GetProgress reports the extraction's missing mandatory tags and whether it
// could complete right now.
func (s *Service) GetProgress(ctx context.Context, extractionID id.ExtractionID, actor id.UserID) (*Progress, error) {
	extraction, err := s.Get(ctx, extractionID, actor)
	if err != nil {
		return nil, err
	}
	missing, err := s.missingMandatoryTags(ctx, extraction)
	if err != nil {
		return nil, err
	}
	return &Progress{
		QuoteCount:  len(extraction.Quotes),
		MissingTags: missing,
		IsReady:     extraction.IsActive() && len(extraction.Quotes) > 0 && len(missing) == 0,
	}, nil
}

func (s *Service) missingMandatoryTags(ctx context.Context, extraction *models.Extraction) ([]string, error) {
	projectID, err := s.resolveProject(ctx, extraction.StudyID)
	if err != nil {
		return nil, err
	}
	mandatory, err := s.tags.ListMandatoryByProject(ctx, projectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing mandatory tags")
	}

	used := extraction.UsedTagIDs()
	var missing []string
	for _, tag := range mandatory {
		if _, ok := used[tag.ID]; !ok {
			missing = append(missing, tag.Name)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

func (s *Service) load(ctx context.Context, extractionID id.ExtractionID) (*models.Extraction, error) {
	extraction, err := s.extractions.GetByID(ctx, extractionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "extraction not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading extraction")
	}
	return extraction, nil
}

func (s *Service) loadOwned(ctx context.Context, extractionID id.ExtractionID, actor id.UserID) (*models.Extraction, error) {
	extraction, err := s.load(ctx, extractionID)
	if err != nil {
		return nil, err
	}
	if extraction.AssignedTo != actor {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the assigned researcher can modify an extraction")
	}
	return extraction, nil
}

func (s *Service) resolveProject(ctx context.Context, studyID id.StudyID) (id.ProjectID, error) {
	projectID, err := s.studies.GetProjectID(ctx, studyID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return id.ProjectID{}, dErrors.New(dErrors.CodeNotFound, "study not found")
	}
	if err != nil {
		return id.ProjectID{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolving study project")
	}
	return projectID, nil
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
