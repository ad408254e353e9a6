package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	phasemodels "paperview/internal/phase/models"
	id "paperview/pkg/domain"
)

type phaseSettingsRequest struct {
	Mode                   string     `json:"mode"`
	StartDate              *time.Time `json:"start_date"`
	EndDate                *time.Time `json:"end_date"`
	AutoClose              bool       `json:"auto_close"`
	AllowLateSubmissions   bool       `json:"allow_late_submissions"`
	MinQuotesRequired      int        `json:"min_quotes_required"`
	MaxQuotesPerExtraction int        `json:"max_quotes_per_extraction"`
	RequiresApproval       bool       `json:"requires_approval"`
}

func (h *Handler) projectID(w http.ResponseWriter, r *http.Request) (id.ProjectID, bool) {
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeError(w, r, err)
		return id.ProjectID{}, false
	}
	return projectID, true
}

func (h *Handler) handleConfigurePhase(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	var req phaseSettingsRequest
	if !h.decode(w, r, &req) {
		return
	}
	mode, err := phasemodels.ParseExtractionMode(req.Mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	phase, err := h.phases.Configure(r.Context(), projectID, actor, phasemodels.Settings{
		Mode:                   mode,
		StartDate:              req.StartDate,
		EndDate:                req.EndDate,
		AutoClose:              req.AutoClose,
		AllowLateSubmissions:   req.AllowLateSubmissions,
		MinQuotesRequired:      req.MinQuotesRequired,
		MaxQuotesPerExtraction: req.MaxQuotesPerExtraction,
		RequiresApproval:       req.RequiresApproval,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPhaseResponse(phase))
}

func (h *Handler) handlePhaseTransition(apply func(r *http.Request, projectID id.ProjectID, actor id.UserID) (*phasemodels.ExtractionPhase, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.requireActor(w, r)
		if !ok {
			return
		}
		projectID, ok := h.projectID(w, r)
		if !ok {
			return
		}
		phase, err := apply(r, projectID, actor)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, toPhaseResponse(phase))
	}
}

func (h *Handler) handleGetPhase(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	phase, err := h.phases.Get(r.Context(), projectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPhaseResponse(phase))
}
