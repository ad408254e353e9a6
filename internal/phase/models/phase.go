package models

import (
	"time"

	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
)

// ExtractionPhase configures and controls a project's extraction window.
//
// Invariants:
//   - At most one phase per project (enforced by the store's unique key)
//   - EndDate, if set, is after StartDate
//   - 1 ≤ MinQuotesRequired ≤ MaxQuotesPerExtraction
//   - Configuration is mutable only while inactive
type ExtractionPhase struct {
	ID                     id.PhaseID
	ProjectID              id.ProjectID
	Mode                   ExtractionMode
	Status                 PhaseStatus
	StartDate              *time.Time
	EndDate                *time.Time
	AutoClose              bool
	AllowLateSubmissions   bool
	MinQuotesRequired      int
	MaxQuotesPerExtraction int
	RequiresApproval       bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Settings carries the configurable part of a phase; shared between creation
// and reconfiguration so the validation cannot diverge.
type Settings struct {
	Mode                   ExtractionMode
	StartDate              *time.Time
	EndDate                *time.Time
	AutoClose              bool
	AllowLateSubmissions   bool
	MinQuotesRequired      int
	MaxQuotesPerExtraction int
	RequiresApproval       bool
}

func (s Settings) validate() error {
	if !s.Mode.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid extraction mode %q", string(s.Mode))
	}
	if s.StartDate != nil && s.EndDate != nil && !s.EndDate.After(*s.StartDate) {
		return dErrors.New(dErrors.CodeInvariantViolation, "end date must be after start date")
	}
	if s.MinQuotesRequired < 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "minimum quotes required must be at least 1")
	}
	if s.MinQuotesRequired > s.MaxQuotesPerExtraction {
		return dErrors.New(dErrors.CodeInvariantViolation, "minimum quotes required cannot exceed the per-extraction maximum")
	}
	return nil
}

// NewExtractionPhase creates a phase in the inactive state.
func NewExtractionPhase(phaseID id.PhaseID, projectID id.ProjectID, settings Settings, now time.Time) (*ExtractionPhase, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	return &ExtractionPhase{
		ID:                     phaseID,
		ProjectID:              projectID,
		Mode:                   settings.Mode,
		Status:                 PhaseInactive,
		StartDate:              settings.StartDate,
		EndDate:                settings.EndDate,
		AutoClose:              settings.AutoClose,
		AllowLateSubmissions:   settings.AllowLateSubmissions,
		MinQuotesRequired:      settings.MinQuotesRequired,
		MaxQuotesPerExtraction: settings.MaxQuotesPerExtraction,
		RequiresApproval:       settings.RequiresApproval,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// Reconfigure replaces the settings. Configuration is locked once activated.
func (p *ExtractionPhase) Reconfigure(settings Settings, now time.Time) error {
	if !p.CanBeModified() {
		return dErrors.New(dErrors.CodeInvalidState,
			"phase configuration is locked once activated")
	}
	if err := settings.validate(); err != nil {
		return err
	}
	p.Mode = settings.Mode
	p.StartDate = settings.StartDate
	p.EndDate = settings.EndDate
	p.AutoClose = settings.AutoClose
	p.AllowLateSubmissions = settings.AllowLateSubmissions
	p.MinQuotesRequired = settings.MinQuotesRequired
	p.MaxQuotesPerExtraction = settings.MaxQuotesPerExtraction
	p.RequiresApproval = settings.RequiresApproval
	p.UpdatedAt = now
	return nil
}

// Activate opens the phase for extraction work. The start date is stamped on
// first activation if the configuration left it unset.
func (p *ExtractionPhase) Activate(now time.Time) error {
	if p.Status == PhaseActive {
		return dErrors.New(dErrors.CodeInvalidState, "phase is already active")
	}
	if !p.Status.CanTransitionTo(PhaseActive) {
		return dErrors.New(dErrors.CodeInvalidState, "phase is already closed")
	}
	if p.StartDate == nil {
		start := now
		p.StartDate = &start
	}
	p.Status = PhaseActive
	p.UpdatedAt = now
	return nil
}

// Pause suspends an active phase.
func (p *ExtractionPhase) Pause(now time.Time) error {
	if p.Status != PhaseActive {
		return dErrors.New(dErrors.CodeInvalidState, "only active phases can be paused")
	}
	p.Status = PhasePaused
	p.UpdatedAt = now
	return nil
}

// Resume reopens a paused phase.
func (p *ExtractionPhase) Resume(now time.Time) error {
	if p.Status != PhasePaused {
		return dErrors.New(dErrors.CodeInvalidState, "only paused phases can be resumed")
	}
	p.Status = PhaseActive
	p.UpdatedAt = now
	return nil
}

// Complete closes the phase manually. The end date is stamped if unset.
func (p *ExtractionPhase) Complete(now time.Time) error {
	if p.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidState, "phase is already closed")
	}
	p.Status = PhaseCompleted
	if p.EndDate == nil {
		end := now
		p.EndDate = &end
	}
	p.UpdatedAt = now
	return nil
}

// AutoCloseIfNeeded closes the phase when it is active, auto-close is on, and
// the end date has passed. Returns whether a close was applied; the caller
// persists the result.
func (p *ExtractionPhase) AutoCloseIfNeeded(now time.Time) bool {
	if !p.AutoClose || p.EndDate == nil {
		return false
	}
	if p.Status != PhaseActive {
		return false
	}
	if now.Before(*p.EndDate) {
		return false
	}
	p.Status = PhaseAutoClosed
	p.UpdatedAt = now
	return true
}

// IsOpenForExtraction reports whether extractions may be created or worked on
// right now.
func (p *ExtractionPhase) IsOpenForExtraction(now time.Time) bool {
	if p.Status != PhaseActive {
		return false
	}
	if p.EndDate != nil && !p.AllowLateSubmissions && now.After(*p.EndDate) {
		return false
	}
	return true
}

// CanBeModified reports whether the configuration may still change.
func (p *ExtractionPhase) CanBeModified() bool {
	return p.Status == PhaseInactive
}

// ValidateExtractionCount rejects creating another extraction for a study
// once the mode's expected count is reached.
func (p *ExtractionPhase) ValidateExtractionCount(currentCount int) error {
	expected := p.Mode.ExpectedExtractionsPerStudy()
	if currentCount >= expected {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"study already has %d of %d extractions allowed in %s mode", currentCount, expected, string(p.Mode))
	}
	return nil
}
