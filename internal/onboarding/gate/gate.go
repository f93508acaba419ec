// Package gate decides which dashboard sections an administrator may edit.
//
// A section is open once the driver has reached or passed the step tied to
// it, or once the whole tracker is completed. Progress is monotonic, so an
// open section never closes again. Unknown or missing steps close every gate.
package gate

import "driverdesk/internal/onboarding/flow"

// State is the display state of a section.
type State string

const (
	StateLocked   State = "locked"
	StateEditable State = "editable"
	StatePassed   State = "passed"
)

// Gates holds the per-section decision for one tracker snapshot.
type Gates struct {
	open   map[Section]bool
	passed map[Section]bool
}

// Compute derives gates from the tracker's position. It never panics.
func Compute(current flow.StepPath, needsFlatbedTraining, completed bool) Gates {
	f := flow.Resolve(needsFlatbedTraining)
	currentRank := f.Rank(current)

	g := Gates{
		open:   make(map[Section]bool, len(sectionSteps)),
		passed: make(map[Section]bool, len(sectionSteps)),
	}
	for _, ss := range sectionSteps {
		if completed {
			g.open[ss.section] = true
			g.passed[ss.section] = true
			continue
		}
		sectionRank := f.Rank(ss.step)
		if currentRank < 0 || sectionRank < 0 {
			g.open[ss.section] = false
			continue
		}
		g.open[ss.section] = currentRank >= sectionRank
		g.passed[ss.section] = currentRank > sectionRank
	}
	return g
}

// Open reports whether section may be edited. Unknown sections are closed.
func (g Gates) Open(section Section) bool {
	return g.open[section]
}

// Passed reports whether the driver has moved beyond section's step.
func (g Gates) Passed(section Section) bool {
	return g.passed[section]
}

// State summarizes Open and Passed for display.
func (g Gates) State(section Section) State {
	switch {
	case !g.Open(section):
		return StateLocked
	case g.Passed(section):
		return StatePassed
	default:
		return StateEditable
	}
}

// Map returns the gates keyed by section name.
func (g Gates) Map() map[Section]bool {
	out := make(map[Section]bool, len(g.open))
	for k, v := range g.open {
		out[k] = v
	}
	return out
}

// EditMode is the dashboard's global edit switch. It is passed to every gated
// component explicitly.
type EditMode struct {
	Enabled bool
}

// Editable combines the edit switch with a section's gate.
func Editable(g Gates, mode EditMode, section Section) bool {
	return mode.Enabled && g.Open(section)
}
