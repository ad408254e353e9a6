// Package audit keeps a trail of governance actions (phase transitions, tag
// moderation, merges). Recording is best-effort: a failed append never blocks
// the command that triggered it.
package audit

import (
	"context"
	"log/slog"
	"time"

	id "paperview/pkg/domain"
)

// Action identifies what happened.
type Action string

const (
	ActionPhaseConfigured Action = "phase_configured"
	ActionPhaseActivated  Action = "phase_activated"
	ActionPhasePaused     Action = "phase_paused"
	ActionPhaseResumed    Action = "phase_resumed"
	ActionPhaseCompleted  Action = "phase_completed"
	ActionPhaseAutoClosed Action = "phase_auto_closed"
	ActionTagApproved     Action = "tag_approved"
	ActionTagRejected     Action = "tag_rejected"
	ActionTagsMerged      Action = "tags_merged"
)

// Event is one audit trail entry.
type Event struct {
	Action    Action
	ActorID   id.UserID
	ProjectID id.ProjectID
	Subject   string
	At        time.Time
}

// Recorder appends events to the trail.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LogRecorder writes the trail to the structured log.
type LogRecorder struct {
	logger *slog.Logger
}

func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, event Event) {
	r.logger.InfoContext(ctx, "audit",
		"action", string(event.Action),
		"actor_id", event.ActorID.String(),
		"project_id", event.ProjectID.String(),
		"subject", event.Subject,
		"at", event.At,
	)
}
