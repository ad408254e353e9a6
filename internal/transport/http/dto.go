package httptransport

import (
	"time"

	extractionmodels "paperview/internal/extraction/models"
	phasemodels "paperview/internal/phase/models"
	tagmodels "paperview/internal/tag/models"
)

type phaseResponse struct {
	ID                     string     `json:"id"`
	ProjectID              string     `json:"project_id"`
	Mode                   string     `json:"mode"`
	Status                 string     `json:"status"`
	StartDate              *time.Time `json:"start_date,omitempty"`
	EndDate                *time.Time `json:"end_date,omitempty"`
	AutoClose              bool       `json:"auto_close"`
	AllowLateSubmissions   bool       `json:"allow_late_submissions"`
	MinQuotesRequired      int        `json:"min_quotes_required"`
	MaxQuotesPerExtraction int        `json:"max_quotes_per_extraction"`
	RequiresApproval       bool       `json:"requires_approval"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func toPhaseResponse(p *phasemodels.ExtractionPhase) phaseResponse {
	return phaseResponse{
		ID:                     p.ID.String(),
		ProjectID:              p.ProjectID.String(),
		Mode:                   string(p.Mode),
		Status:                 string(p.Status),
		StartDate:              p.StartDate,
		EndDate:                p.EndDate,
		AutoClose:              p.AutoClose,
		AllowLateSubmissions:   p.AllowLateSubmissions,
		MinQuotesRequired:      p.MinQuotesRequired,
		MaxQuotesPerExtraction: p.MaxQuotesPerExtraction,
		RequiresApproval:       p.RequiresApproval,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

type quoteResponse struct {
	ID           string                         `json:"id"`
	ExtractionID string                         `json:"extraction_id"`
	Text         string                         `json:"text"`
	Location     extractionmodels.QuoteLocation `json:"location"`
	ResearcherID string                         `json:"researcher_id"`
	TagIDs       []string                       `json:"tag_ids"`
	CreatedAt    time.Time                      `json:"created_at"`
}

func toQuoteResponse(q *extractionmodels.Quote) quoteResponse {
	tagIDs := make([]string, 0, len(q.TagIDs))
	for _, tagID := range q.TagIDs {
		tagIDs = append(tagIDs, tagID.String())
	}
	return quoteResponse{
		ID:           q.ID.String(),
		ExtractionID: q.ExtractionID.String(),
		Text:         q.Text,
		Location:     q.Location,
		ResearcherID: q.ResearcherID.String(),
		TagIDs:       tagIDs,
		CreatedAt:    q.CreatedAt,
	}
}

type extractionResponse struct {
	ID          string          `json:"id"`
	StudyID     string          `json:"study_id"`
	AssignedTo  string          `json:"assigned_to"`
	Status      string          `json:"status"`
	Order       int             `json:"order"`
	MaxQuotes   int             `json:"max_quotes"`
	Quotes      []quoteResponse `json:"quotes"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toExtractionResponse(e *extractionmodels.Extraction) extractionResponse {
	quotes := make([]quoteResponse, 0, len(e.Quotes))
	for _, q := range e.Quotes {
		quotes = append(quotes, toQuoteResponse(q))
	}
	return extractionResponse{
		ID:          e.ID.String(),
		StudyID:     e.StudyID.String(),
		AssignedTo:  e.AssignedTo.String(),
		Status:      string(e.Status),
		Order:       e.Order,
		MaxQuotes:   e.MaxQuotes,
		Quotes:      quotes,
		StartedAt:   e.StartedAt,
		CompletedAt: e.CompletedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

type tagResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ProjectID   string    `json:"project_id"`
	QuestionID  *string   `json:"question_id,omitempty"`
	IsMandatory bool      `json:"is_mandatory"`
	CreatedBy   string    `json:"created_by"`
	Status      string    `json:"status"`
	Visibility  string    `json:"visibility"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTagResponse(t *tagmodels.Tag) tagResponse {
	resp := tagResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		ProjectID:   t.ProjectID.String(),
		IsMandatory: t.IsMandatory,
		CreatedBy:   t.CreatedBy.String(),
		Status:      string(t.Status),
		Visibility:  string(t.Visibility),
		Type:        string(t.Type),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.QuestionID != nil {
		q := t.QuestionID.String()
		resp.QuestionID = &q
	}
	return resp
}
