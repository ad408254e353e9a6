package models

import (
	"strings"
	"time"

	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
)

// Extraction is the aggregate root for one researcher's pass over one study.
// It exclusively owns its quotes.
//
// Invariants:
//   - Order is 1..N within the study, bounded by the phase mode
//   - One extraction per (study, user), enforced by the creating command
//   - The quote count never exceeds MaxQuotes
//   - Completing requires at least one quote and no missing mandatory tags
type Extraction struct {
	ID          id.ExtractionID
	StudyID     id.StudyID
	AssignedTo  id.UserID
	Status      ExtractionStatus
	Order       int
	MaxQuotes   int
	Quotes      []*Quote
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewExtraction creates a pending extraction. MaxQuotes is copied from the
// governing phase's configuration at creation time.
func NewExtraction(extractionID id.ExtractionID, studyID id.StudyID, assignee id.UserID, order, maxQuotes int, now time.Time) (*Extraction, error) {
	if order < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "extraction order must be at least 1")
	}
	if maxQuotes < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "max quotes must be at least 1")
	}
	return &Extraction{
		ID:         extractionID,
		StudyID:    studyID,
		AssignedTo: assignee,
		Status:     ExtractionPending,
		Order:      order,
		MaxQuotes:  maxQuotes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// StartWorking moves a pending extraction into progress.
func (e *Extraction) StartWorking(now time.Time) error {
	if !e.Status.CanTransitionTo(ExtractionInProgress) {
		return dErrors.New(dErrors.CodeInvalidState, "only pending extractions can be started")
	}
	e.Status = ExtractionInProgress
	start := now
	e.StartedAt = &start
	e.UpdatedAt = now
	return nil
}

// AddQuote appends a quote to the aggregate. Legal only while in progress
// and below the configured quote cap.
func (e *Extraction) AddQuote(quote *Quote, now time.Time) error {
	if e.Status != ExtractionInProgress {
		return dErrors.New(dErrors.CodeInvalidState, "quotes can only be added to extractions in progress")
	}
	if len(e.Quotes) >= e.MaxQuotes {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "extraction cannot hold more than %d quotes", e.MaxQuotes)
	}
	e.Quotes = append(e.Quotes, quote)
	e.UpdatedAt = now
	return nil
}

// Complete closes the extraction. missingMandatoryTags comes from the
// completeness validator; a non-empty list blocks completion and is surfaced
// to the caller via the error's details.
func (e *Extraction) Complete(missingMandatoryTags []string, now time.Time) error {
	if !e.Status.CanTransitionTo(ExtractionDone) {
		return dErrors.New(dErrors.CodeInvalidState, "only extractions in progress can be completed")
	}
	if len(e.Quotes) == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot complete an extraction with no quotes")
	}
	if len(missingMandatoryTags) > 0 {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"missing mandatory tags: %s", strings.Join(missingMandatoryTags, ", ")).
			WithDetails(missingMandatoryTags...)
	}
	e.Status = ExtractionDone
	done := now
	e.CompletedAt = &done
	e.UpdatedAt = now
	return nil
}

// IsActive reports whether the extraction is being worked on.
func (e *Extraction) IsActive() bool {
	return e.Status == ExtractionInProgress
}

// UsedTagIDs returns the set of tag ids referenced across all quotes.
func (e *Extraction) UsedTagIDs() map[id.TagID]struct{} {
	used := make(map[id.TagID]struct{})
	for _, quote := range e.Quotes {
		for _, tagID := range quote.TagIDs {
			used[tagID] = struct{}{}
		}
	}
	return used
}
