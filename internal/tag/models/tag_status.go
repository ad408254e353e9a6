package models

// TagStatus is the moderation state of a tag.
//
// Status transitions: pending → approved | rejected; both outcomes are
// terminal. Moderating an already-resolved tag fails rather than silently
// no-oping.
type TagStatus string

const (
	TagPending  TagStatus = "pending"
	TagApproved TagStatus = "approved"
	TagRejected TagStatus = "rejected"
)

var tagStatusTransitions = map[TagStatus][]TagStatus{
	TagPending:  {TagApproved, TagRejected},
	TagApproved: {},
	TagRejected: {},
}

func (s TagStatus) IsValid() bool {
	_, ok := tagStatusTransitions[s]
	return ok
}

func (s TagStatus) CanTransitionTo(next TagStatus) bool {
	for _, allowed := range tagStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
