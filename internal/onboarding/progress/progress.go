// Package progress summarizes a tracker's position for display: macro step,
// percentages, per-section gate states and notices.
package progress

import (
	"time"

	"driverdesk/internal/onboarding/flow"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/notice"
	"driverdesk/internal/tracker/models"
)

// Progress is everything the dashboard derives from a tracker's position.
type Progress struct {
	MacroStep          int                         `json:"macro_step"`
	OverallPercent     int                         `json:"overall_percent"`
	ApplicationPercent int                         `json:"application_percent"`
	Gates              map[gate.Section]gate.State `json:"gates"`
	Notices            []notice.Notice             `json:"notices"`
}

// Derive computes progress for t as of now. A completed tracker reports 100
// on both percentages.
func Derive(t *models.Tracker, notices notice.Deriver, now time.Time) Progress {
	g := t.Gates()
	states := make(map[gate.Section]gate.State, len(gate.Sections()))
	for _, section := range gate.Sections() {
		states[section] = g.State(section)
	}

	p := Progress{
		MacroStep:          flow.MacroStep(t.Status.CurrentStep),
		OverallPercent:     flow.OverallPercent(t.Flow(), t.Status.CurrentStep),
		ApplicationPercent: flow.ApplicationSubPercent(t.Status.CurrentStep),
		Gates:              states,
		Notices:            notices.Derive(t, now),
	}
	if t.Status.Completed {
		p.OverallPercent = 100
		p.ApplicationPercent = 100
	}
	if p.Notices == nil {
		p.Notices = []notice.Notice{}
	}
	return p
}
