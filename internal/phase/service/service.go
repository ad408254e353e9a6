// Package service implements the extraction-phase commands. Each command
// loads the aggregate, applies the transition in memory, and persists inside
// one transaction boundary.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"paperview/internal/collab"
	"paperview/internal/phase/models"
	"paperview/internal/phase/store"
	"paperview/internal/platform/audit"
	"paperview/internal/platform/metrics"
	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
	"paperview/pkg/platform/sentinel"
	"paperview/pkg/platform/tx"
)

type Service struct {
	phases   store.Store
	projects collab.ProjectLookup
	runner   tx.Runner
	recorder audit.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	clock    func() time.Time
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
	phases store.Store,
	projects collab.ProjectLookup,
	runner tx.Runner,
	recorder audit.Recorder,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		phases:   phases,
		projects: projects,
		runner:   runner,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure creates the project's phase or updates its settings while it is
// still inactive. Owner-only.
func (s *Service) Configure(ctx context.Context, projectID id.ProjectID, actor id.UserID, settings models.Settings) (*models.ExtractionPhase, error) {
	if err := s.requireOwner(ctx, projectID, actor); err != nil {
		return nil, err
	}

	now := s.clock()
	var result *models.ExtractionPhase
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		phase, err := s.phases.GetByProject(ctx, projectID)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			phase, err = models.NewExtractionPhase(id.NewPhaseID(), projectID, settings, now)
			if err != nil {
				return err
			}
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeInternal, "loading extraction phase")
		default:
			if err := phase.Reconfigure(settings, now); err != nil {
				return err
			}
		}
		if err := s.phases.Save(ctx, phase); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving extraction phase")
		}
		result = phase
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:    audit.ActionPhaseConfigured,
		ActorID:   actor,
		ProjectID: projectID,
		Subject:   result.ID.String(),
		At:        now,
	})
	return result, nil
}

// Activate opens the phase for extraction work. Owner-only.
func (s *Service) Activate(ctx context.Context, projectID id.ProjectID, actor id.UserID) (*models.ExtractionPhase, error) {
	return s.transition(ctx, projectID, actor, audit.ActionPhaseActivated, func(p *models.ExtractionPhase, now time.Time) error {
		return p.Activate(now)
	})
}

// Pause suspends an active phase. Owner-only.
func (s *Service) Pause(ctx context.Context, projectID id.ProjectID, actor id.UserID) (*models.ExtractionPhase, error) {
	return s.transition(ctx, projectID, actor, audit.ActionPhasePaused, func(p *models.ExtractionPhase, now time.Time) error {
		return p.Pause(now)
	})
}

// Resume reopens a paused phase. Owner-only.
func (s *Service) Resume(ctx context.Context, projectID id.ProjectID, actor id.UserID) (*models.ExtractionPhase, error) {
	return s.transition(ctx, projectID, actor, audit.ActionPhaseResumed, func(p *models.ExtractionPhase, now time.Time) error {
		return p.Resume(now)
	})
}

// Complete closes the phase manually. Owner-only.
func (s *Service) Complete(ctx context.Context, projectID id.ProjectID, actor id.UserID) (*models.ExtractionPhase, error) {
	return s.transition(ctx, projectID, actor, audit.ActionPhaseCompleted, func(p *models.ExtractionPhase, now time.Time) error {
		return p.Complete(now)
	})
}

// Get returns the project's phase.
func (s *Service) Get(ctx context.Context, projectID id.ProjectID) (*models.ExtractionPhase, error) {
	phase, err := s.phases.GetByProject(ctx, projectID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no extraction phase configured for project")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading extraction phase")
	}
	return phase, nil
}

// CloseExpired sweeps active auto-close phases past their end date. Invoked
// by the scheduler; each phase is re-read and closed inside its own
// transaction so the sweep can race user-driven mutations safely.
func (s *Service) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.phases.ListAutoClosable(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "listing auto-closable phases")
	}

	closed := 0
	for _, candidate := range candidates {
		projectID := candidate.ProjectID
		err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
			phase, err := s.phases.GetByProject(ctx, projectID)
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if !phase.AutoCloseIfNeeded(now) {
				return nil
			}
			if err := s.phases.Save(ctx, phase); err != nil {
				return err
			}
			closed++
			s.metrics.PhasesAutoClosed.Inc()
			s.recorder.Record(ctx, audit.Event{
				Action:    audit.ActionPhaseAutoClosed,
				ProjectID: projectID,
				Subject:   phase.ID.String(),
				At:        now,
			})
			return nil
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "auto-close sweep failed for phase",
				"project_id", projectID.String(),
				"error", err,
			)
		}
	}
	return closed, nil
}

func (s *Service) transition(
	ctx context.Context,
	projectID id.ProjectID,
	actor id.UserID,
	action audit.Action,
	apply func(*models.ExtractionPhase, time.Time) error,
) (*models.ExtractionPhase, error) {
	if err := s.requireOwner(ctx, projectID, actor); err != nil {
		return nil, err
	}

	now := s.clock()
	var result *models.ExtractionPhase
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		phase, err := s.phases.GetByProject(ctx, projectID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no extraction phase configured for project")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "loading extraction phase")
		}
		if err := apply(phase, now); err != nil {
			return err
		}
		if err := s.phases.Save(ctx, phase); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving extraction phase")
		}
		result = phase
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:    action,
		ActorID:   actor,
		ProjectID: projectID,
		Subject:   result.ID.String(),
		At:        now,
	})
	return result, nil
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
		return dErrors.New(dErrors.CodeUnauthorized, "only the project owner can manage the extraction phase")
	}
	return nil
}
