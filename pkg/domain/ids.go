// Package domain holds the identifier types shared across modules.
//
// IDs are UUID-backed named types so a StudyID can never be passed where a
// TagID is expected. Construct them via the ParseXxxID helpers at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "paperview/pkg/domain-errors"
)

type (
	ProjectID    uuid.UUID
	StudyID      uuid.UUID
	UserID       uuid.UUID
	QuestionID   uuid.UUID
	PhaseID      uuid.UUID
	ExtractionID uuid.UUID
	QuoteID      uuid.UUID
	TagID        uuid.UUID
)

func (id ProjectID) String() string    { return uuid.UUID(id).String() }
func (id StudyID) String() string      { return uuid.UUID(id).String() }
func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id QuestionID) String() string   { return uuid.UUID(id).String() }
func (id PhaseID) String() string      { return uuid.UUID(id).String() }
func (id ExtractionID) String() string { return uuid.UUID(id).String() }
func (id QuoteID) String() string      { return uuid.UUID(id).String() }
func (id TagID) String() string        { return uuid.UUID(id).String() }

func (id ProjectID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id StudyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id QuestionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PhaseID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ExtractionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id QuoteID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TagID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

func NewProjectID() ProjectID       { return ProjectID(uuid.New()) }
func NewStudyID() StudyID           { return StudyID(uuid.New()) }
func NewUserID() UserID             { return UserID(uuid.New()) }
func NewQuestionID() QuestionID     { return QuestionID(uuid.New()) }
func NewPhaseID() PhaseID           { return PhaseID(uuid.New()) }
func NewExtractionID() ExtractionID { return ExtractionID(uuid.New()) }
func NewQuoteID() QuoteID           { return QuoteID(uuid.New()) }
func NewTagID() TagID               { return TagID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}

func ParseProjectID(s string) (ProjectID, error) {
	u, err := parseUUID(s, "project")
	return ProjectID(u), err
}

func ParseStudyID(s string) (StudyID, error) {
	u, err := parseUUID(s, "study")
	return StudyID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

func ParseQuestionID(s string) (QuestionID, error) {
	u, err := parseUUID(s, "question")
	return QuestionID(u), err
}

func ParsePhaseID(s string) (PhaseID, error) {
	u, err := parseUUID(s, "phase")
	return PhaseID(u), err
}

func ParseExtractionID(s string) (ExtractionID, error) {
	u, err := parseUUID(s, "extraction")
	return ExtractionID(u), err
}

func ParseQuoteID(s string) (QuoteID, error) {
	u, err := parseUUID(s, "quote")
	return QuoteID(u), err
}

func ParseTagID(s string) (TagID, error) {
	u, err := parseUUID(s, "tag")
	return TagID(u), err
}
