package models

import (
	dErrors "paperview/pkg/domain-errors"
)

// ExtractionMode sets how many independent extractions each study receives
// during the phase.
type ExtractionMode string

const (
	ModeSingle ExtractionMode = "single"
	ModeDouble ExtractionMode = "double"
	ModeTriple ExtractionMode = "triple"
)

var expectedExtractions = map[ExtractionMode]int{
	ModeSingle: 1,
	ModeDouble: 2,
	ModeTriple: 3,
}

// ParseExtractionMode constructs an ExtractionMode from external input.
func ParseExtractionMode(s string) (ExtractionMode, error) {
	m := ExtractionMode(s)
	if !m.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid extraction mode %q", s)
	}
	return m, nil
}

func (m ExtractionMode) IsValid() bool {
	_, ok := expectedExtractions[m]
	return ok
}

// ExpectedExtractionsPerStudy returns the number of extractions the mode
// requires per study (single=1, double=2, triple=3).
func (m ExtractionMode) ExpectedExtractionsPerStudy() int {
	if n, ok := expectedExtractions[m]; ok {
		return n
	}
	return 1
}

// RequiresMultipleExtractors reports whether the mode needs more than one
// researcher per study.
func (m ExtractionMode) RequiresMultipleExtractors() bool {
	return m.ExpectedExtractionsPerStudy() > 1
}
