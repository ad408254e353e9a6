package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"paperview/internal/platform/middleware"
	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
)

type errorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response", "error", err)
	}
}

// writeError renders a coded error. Internal failures are logged with the
// request id and surfaced with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	message := "internal error"
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	} else {
		var de *dErrors.DomainError
		if errors.As(err, &de) {
			message = de.Message
		} else {
			message = err.Error()
		}
	}
	h.writeJSON(w, dErrors.ToHTTPStatus(code), errorBody{
		Error:   string(code),
		Message: message,
		Details: dErrors.DetailsOf(err),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, r, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed request body"))
		return false
	}
	return true
}

// requireActor rejects requests without an actor header. Authentication is
// upstream; the header carries an already-verified identity.
func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	actor := middleware.GetActorID(r.Context())
	if actor.IsNil() {
		h.writeError(w, r, dErrors.New(dErrors.CodeUnauthorized, "missing X-User-ID header"))
		return actor, false
	}
	return actor, true
}
