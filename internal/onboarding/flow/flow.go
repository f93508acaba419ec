package flow

import "math"

// Flow is the ordered coarse step sequence for one tracker. The application
// form occupies a single position, entered at StepApplicationPage1.
type Flow struct {
	steps []StepPath
}

var baseSteps = []StepPath{
	StepPrequalifications,
	StepApplicationPage1,
	StepPoliciesConsents,
	StepDriveTest,
	StepCarriersEdgeTraining,
	StepDrugTest,
}

// Resolve returns the flow for a tracker. Flatbed training is appended only
// when the tracker needs it.
func Resolve(needsFlatbedTraining bool) Flow {
	steps := make([]StepPath, 0, len(baseSteps)+1)
	steps = append(steps, baseSteps...)
	if needsFlatbedTraining {
		steps = append(steps, StepFlatbedTraining)
	}
	return Flow{steps: steps}
}

// Steps returns a copy of the coarse sequence.
func (f Flow) Steps() []StepPath {
	return append([]StepPath(nil), f.steps...)
}

// Len is the number of coarse steps.
func (f Flow) Len() int { return len(f.steps) }

// Index returns the coarse position of step, or -1 if it is not in the flow.
// Every application page shares the application entry's position.
func (f Flow) Index(step StepPath) int {
	if IsApplicationPage(step) {
		step = StepApplicationPage1
	}
	for i, s := range f.steps {
		if s == step {
			return i
		}
	}
	return -1
}

// Contains reports whether step belongs to this flow.
func (f Flow) Contains(step StepPath) bool {
	return f.Index(step) >= 0
}

// FineSteps expands the application entry into its five pages.
func (f Flow) FineSteps() []StepPath {
	out := make([]StepPath, 0, len(f.steps)+len(applicationPages)-1)
	for _, s := range f.steps {
		if s == StepApplicationPage1 {
			out = append(out, applicationPages...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Rank returns the fine ordinal of step, or -1 if it is not in the flow.
// Rank orders application pages individually, Index does not.
func (f Flow) Rank(step StepPath) int {
	for i, s := range f.FineSteps() {
		if s == step {
			return i
		}
	}
	return -1
}

// First is the step a new tracker starts at.
func (f Flow) First() StepPath {
	if len(f.steps) == 0 {
		return ""
	}
	return f.steps[0]
}

// Last is the final fine step.
func (f Flow) Last() StepPath {
	if len(f.steps) == 0 {
		return ""
	}
	return f.steps[len(f.steps)-1]
}

// Next returns the fine step after step. ok is false when step is the last
// step or not part of the flow.
func (f Flow) Next(step StepPath) (StepPath, bool) {
	fine := f.FineSteps()
	for i, s := range fine {
		if s == step && i+1 < len(fine) {
			return fine[i+1], true
		}
	}
	return "", false
}

// OverallPercent is round(100 * index / (len - 1)), clamped to [0, 100].
// Steps outside the flow report 0.
func OverallPercent(f Flow, current StepPath) int {
	idx := f.Index(current)
	if idx < 0 || f.Len() < 2 {
		return 0
	}
	pct := int(math.Round(100 * float64(idx) / float64(f.Len()-1)))
	return min(max(pct, 0), 100)
}
