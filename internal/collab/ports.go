// Package collab defines the read-only ports onto the neighboring bounded
// contexts (Projects, Acquisition/Studies, Design/ResearchQuestions). The
// governance engine only ever needs existence, ownership, membership, and
// project-context resolution; each port exposes exactly that.
//
// Calls are point-in-time reads with no caching; callers re-validate before
// mutating.
package collab

import (
	"context"

	id "paperview/pkg/domain"
)

// ProjectLookup answers questions about projects and their members.
type ProjectLookup interface {
	Exists(ctx context.Context, projectID id.ProjectID) (bool, error)
	IsMember(ctx context.Context, projectID id.ProjectID, userID id.UserID) (bool, error)
	GetOwner(ctx context.Context, projectID id.ProjectID) (id.UserID, error)
}

// StudyLookup resolves studies to their owning project.
type StudyLookup interface {
	Exists(ctx context.Context, studyID id.StudyID) (bool, error)
	GetProjectID(ctx context.Context, studyID id.StudyID) (id.ProjectID, error)
}

// Question is the slice of a research question the engine cares about.
type Question struct {
	ID        id.QuestionID
	ProjectID id.ProjectID
}

// QuestionLookup answers questions about research questions.
type QuestionLookup interface {
	QuestionExists(ctx context.Context, questionID id.QuestionID) (bool, error)
	GetQuestion(ctx context.Context, questionID id.QuestionID) (Question, error)
}
