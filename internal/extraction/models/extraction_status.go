package models

// ExtractionStatus is the lifecycle state of an extraction.
//
// Status transitions: pending → in_progress → done; done is terminal and
// in_progress is unreachable once done.
type ExtractionStatus string

const (
	ExtractionPending    ExtractionStatus = "pending"
	ExtractionInProgress ExtractionStatus = "in_progress"
	ExtractionDone       ExtractionStatus = "done"
)

var extractionTransitions = map[ExtractionStatus][]ExtractionStatus{
	ExtractionPending:    {ExtractionInProgress},
	ExtractionInProgress: {ExtractionDone},
	ExtractionDone:       {},
}

func (s ExtractionStatus) IsValid() bool {
	_, ok := extractionTransitions[s]
	return ok
}

func (s ExtractionStatus) CanTransitionTo(next ExtractionStatus) bool {
	for _, allowed := range extractionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
