package collab

import (
	"context"
	"sync"

	id "paperview/pkg/domain"
	"paperview/pkg/platform/sentinel"
)

// MemoryDirectory is an in-memory stand-in for the Projects, Acquisition and
// Design services, used in tests and in the memory storage backend. Each port
// is exposed as a narrow view so consumers depend only on the capability they
// need.
type MemoryDirectory struct {
	mu        sync.RWMutex
	projects  map[id.ProjectID]projectRecord
	studies   map[id.StudyID]id.ProjectID
	questions map[id.QuestionID]id.ProjectID
}

type projectRecord struct {
	owner   id.UserID
	members map[id.UserID]struct{}
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		projects:  make(map[id.ProjectID]projectRecord),
		studies:   make(map[id.StudyID]id.ProjectID),
		questions: make(map[id.QuestionID]id.ProjectID),
	}
}

// AddProject registers a project with its owner. The owner is always a member.
func (d *MemoryDirectory) AddProject(projectID id.ProjectID, owner id.UserID, members ...id.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := projectRecord{owner: owner, members: map[id.UserID]struct{}{owner: {}}}
	for _, m := range members {
		rec.members[m] = struct{}{}
	}
	d.projects[projectID] = rec
}

// AddStudy registers a study under a project.
func (d *MemoryDirectory) AddStudy(studyID id.StudyID, projectID id.ProjectID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.studies[studyID] = projectID
}

// AddQuestion registers a research question under a project.
func (d *MemoryDirectory) AddQuestion(questionID id.QuestionID, projectID id.ProjectID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.questions[questionID] = projectID
}

// Projects returns the ProjectLookup view of the directory.
func (d *MemoryDirectory) Projects() ProjectLookup { return projectsView{d} }

// Studies returns the StudyLookup view of the directory.
func (d *MemoryDirectory) Studies() StudyLookup { return studiesView{d} }

// Questions returns the QuestionLookup view of the directory.
func (d *MemoryDirectory) Questions() QuestionLookup { return questionsView{d} }

type projectsView struct{ d *MemoryDirectory }

func (v projectsView) Exists(_ context.Context, projectID id.ProjectID) (bool, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()
	_, ok := v.d.projects[projectID]
	return ok, nil
}

func (v projectsView) IsMember(_ context.Context, projectID id.ProjectID, userID id.UserID) (bool, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()
	rec, ok := v.d.projects[projectID]
	if !ok {
		return false, nil
	}
	_, member := rec.members[userID]
	return member, nil
}

func (v projectsView) GetOwner(_ context.Context, projectID id.ProjectID) (id.UserID, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()
	rec, ok := v.d.projects[projectID]
	if !ok {
		return id.UserID{}, sentinel.ErrNotFound
	}
	return rec.owner, nil
}

type studiesView struct{ d *MemoryDirectory }

func (v studiesView) Exists(_ context.Context, studyID id.StudyID) (bool, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()
	_, ok := v.d.studies[studyID]
	return ok, nil
}

func (v studiesView) GetProjectID(_ context.Context, studyID id.StudyID) (id.ProjectID, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()
	projectID, ok := v.d.studies[studyID]
	if !ok {
		return id.ProjectID{}, sentinel.ErrNotFound
	}
	return projectID, nil
}

type questionsView struct{ d *MemoryDirectory }

func (v questionsView) QuestionExists(_ context.Context, questionID id.QuestionID) (bool, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()
	_, ok := v.d.questions[questionID]
	return ok, nil
}

func (v questionsView) GetQuestion(_ context.Context, questionID id.QuestionID) (Question, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()
	projectID, ok := v.d.questions[questionID]
	if !ok {
		return Question{}, sentinel.ErrNotFound
	}
	return Question{ID: questionID, ProjectID: projectID}, nil
}
