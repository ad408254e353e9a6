package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	id "paperview/pkg/domain"
)

type createTagRequest struct {
	ProjectID  string  `json:"project_id"`
	Name       string  `json:"name"`
	QuestionID *string `json:"question_id"`
}

func (h *Handler) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req createTagRequest
	if !h.decode(w, r, &req) {
		return
	}
	projectID, err := id.ParseProjectID(req.ProjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var questionID *id.QuestionID
	if req.QuestionID != nil {
		parsed, err := id.ParseQuestionID(*req.QuestionID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		questionID = &parsed
	}

	tag, err := h.tags.Create(r.Context(), projectID, actor, req.Name, questionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTagResponse(tag))
}

func (h *Handler) tagID(w http.ResponseWriter, r *http.Request) (id.TagID, bool) {
	tagID, err := id.ParseTagID(chi.URLParam(r, "tagID"))
	if err != nil {
		h.writeError(w, r, err)
		return id.TagID{}, false
	}
	return tagID, true
}

func (h *Handler) handleApproveTag(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	tagID, ok := h.tagID(w, r)
	if !ok {
		return
	}
	tag, err := h.tags.Approve(r.Context(), tagID, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTagResponse(tag))
}

func (h *Handler) handleRejectTag(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	tagID, ok := h.tagID(w, r)
	if !ok {
		return
	}
	tag, err := h.tags.Reject(r.Context(), tagID, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTagResponse(tag))
}

type mergeTagsRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

func (h *Handler) handleMergeTags(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req mergeTagsRequest
	if !h.decode(w, r, &req) {
		return
	}
	sourceID, err := id.ParseTagID(req.SourceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	targetID, err := id.ParseTagID(req.TargetID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	target, err := h.tags.Merge(r.Context(), sourceID, targetID, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTagResponse(target))
}

func (h *Handler) handleListProjectTags(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	tags, err := h.tags.ListAvailableForUser(r.Context(), projectID, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]tagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, toTagResponse(tag))
	}
	h.writeJSON(w, http.StatusOK, out)
}
