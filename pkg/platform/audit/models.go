package audit

import (
	"context"
	"time"

	"driverdesk/pkg/domain"
)

// Action names what happened to a tracker.
type Action string

const (
	ActionTrackerCreated   Action = "tracker_created"
	ActionSectionCommitted Action = "section_committed"
	ActionCompanyChanged   Action = "company_changed"
	ActionStepAdvanced     Action = "step_advanced"
	ActionNotesUpdated     Action = "notes_updated"
	ActionDocumentUploaded Action = "document_uploaded"
)

// Event is emitted by services after a successful write. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action    Action           `json:"action"`
	TrackerID domain.TrackerID `json:"tracker_id"`
	CompanyID domain.CompanyID `json:"company_id"`
	Section   string           `json:"section,omitempty"`
	// ActorID is the administrator who made the change, when known.
	ActorID   string            `json:"actor_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
