package models

// TagType distinguishes predefined vocabulary from researcher-proposed labels.
type TagType string

const (
	// TypeDeductive tags are predefined, tied to a research question, and
	// part of the team-wide vocabulary from birth.
	TypeDeductive TagType = "deductive"
	// TypeInductive tags emerge during extraction and need approval before
	// becoming team-wide.
	TypeInductive TagType = "inductive"
)

func (t TagType) IsValid() bool {
	return t == TypeDeductive || t == TypeInductive
}
