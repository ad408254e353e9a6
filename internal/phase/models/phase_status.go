package models

// PhaseStatus is the lifecycle state of an extraction phase.
//
// Status transitions:
//
//	inactive → active (activation) | completed (manual close before start)
//	active   → paused | completed | auto_closed
//	paused   → active (resume) | completed
//	completed, auto_closed → terminal
type PhaseStatus string

const (
	PhaseInactive   PhaseStatus = "inactive"
	PhaseActive     PhaseStatus = "active"
	PhasePaused     PhaseStatus = "paused"
	PhaseCompleted  PhaseStatus = "completed"
	PhaseAutoClosed PhaseStatus = "auto_closed"
)

var phaseTransitions = map[PhaseStatus][]PhaseStatus{
	PhaseInactive:   {PhaseActive, PhaseCompleted},
	PhaseActive:     {PhasePaused, PhaseCompleted, PhaseAutoClosed},
	PhasePaused:     {PhaseActive, PhaseCompleted},
	PhaseCompleted:  {},
	PhaseAutoClosed: {},
}

func (s PhaseStatus) IsValid() bool {
	_, ok := phaseTransitions[s]
	return ok
}

// IsTerminal reports whether the phase can never change status again.
func (s PhaseStatus) IsTerminal() bool {
	return s == PhaseCompleted || s == PhaseAutoClosed
}

// CanTransitionTo consults the transition table; illegal transitions are
// rejected in one place instead of being re-derived per handler.
func (s PhaseStatus) CanTransitionTo(next PhaseStatus) bool {
	for _, allowed := range phaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
