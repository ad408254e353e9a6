package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	extractionmodels "paperview/internal/extraction/models"
	extractionservice "paperview/internal/extraction/service"
	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
)

func (h *Handler) extractionID(w http.ResponseWriter, r *http.Request) (id.ExtractionID, bool) {
	extractionID, err := id.ParseExtractionID(chi.URLParam(r, "extractionID"))
	if err != nil {
		h.writeError(w, r, err)
		return id.ExtractionID{}, false
	}
	return extractionID, true
}

type createExtractionRequest struct {
	StudyID string `json:"study_id"`
}

func (h *Handler) handleCreateExtraction(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req createExtractionRequest
	if !h.decode(w, r, &req) {
		return
	}
	studyID, err := id.ParseStudyID(req.StudyID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	extraction, err := h.extractions.Create(r.Context(), studyID, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toExtractionResponse(extraction))
}

func (h *Handler) handleStartExtraction(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	extractionID, ok := h.extractionID(w, r)
	if !ok {
		return
	}
	extraction, err := h.extractions.StartWorking(r.Context(), extractionID, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toExtractionResponse(extraction))
}

type createQuoteRequest struct {
	Text     string                          `json:"text"`
	Location *extractionmodels.QuoteLocation `json:"location"`
	TagIDs   []string                        `json:"tag_ids"`
}

func (h *Handler) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	extractionID, ok := h.extractionID(w, r)
	if !ok {
		return
	}
	var req createQuoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	input := extractionservice.QuoteInput{
		Text:     req.Text,
		Location: extractionmodels.NoLocation(),
	}
	if req.Location != nil {
		input.Location = *req.Location
	}
	for _, raw := range req.TagIDs {
		tagID, err := id.ParseTagID(raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		input.TagIDs = append(input.TagIDs, tagID)
	}

	quote, err := h.extractions.AddQuote(r.Context(), extractionID, actor, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toQuoteResponse(quote))
}

func (h *Handler) handleCompleteExtraction(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	extractionID, ok := h.extractionID(w, r)
	if !ok {
		return
	}
	extraction, err := h.extractions.Complete(r.Context(), extractionID, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toExtractionResponse(extraction))
}

func (h *Handler) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	extractionID, ok := h.extractionID(w, r)
	if !ok {
		return
	}
	extraction, err := h.extractions.Get(r.Context(), extractionID, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toExtractionResponse(extraction))
}

func (h *Handler) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	// Researchers list their own work; user_id lets an owner inspect others.
	userID := actor
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := id.ParseUserID(raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		userID = parsed
	}
	if userID != actor {
		h.writeError(w, r, dErrors.New(dErrors.CodeUnauthorized, "researchers can only list their own extractions"))
		return
	}

	extractions, err := h.extractions.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]extractionResponse, 0, len(extractions))
	for _, e := range extractions {
		out = append(out, toExtractionResponse(e))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleExtractionProgress(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	extractionID, ok := h.extractionID(w, r)
	if !ok {
		return
	}
	progress, err := h.extractions.GetProgress(r.Context(), extractionID, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, progress)
}
