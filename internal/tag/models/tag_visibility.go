package models

// TagVisibility controls who can see a tag: private tags are visible only to
// their creator, public tags to the whole project.
type TagVisibility string

const (
	VisibilityPrivate TagVisibility = "private"
	VisibilityPublic  TagVisibility = "public"
)

func (v TagVisibility) IsValid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}
