package handler

import (
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/internal/tracker/models"
)

// SectionResponse is returned by the section read and write endpoints.
type SectionResponse struct {
	Section gate.Section   `json:"section"`
	Data    staging.Fields `json:"data"`
	// Version is the tracker version after a write; omitted on reads.
	Version int64 `json:"version,omitempty"`
}

// TrackerListResponse wraps list results.
type TrackerListResponse struct {
	Trackers []*models.Tracker `json:"trackers"`
}
