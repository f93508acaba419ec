// Package flow defines the onboarding step sequence and the progress numbers
// derived from it. Everything here is pure; unknown steps degrade to zero
// values instead of failing.
package flow

import "strings"

// StepPath names a fine-grained onboarding stage.
type StepPath string

const (
	StepPrequalifications    StepPath = "PREQUALIFICATIONS"
	StepApplicationPage1     StepPath = "APPLICATION_PAGE_1"
	StepApplicationPage2     StepPath = "APPLICATION_PAGE_2"
	StepApplicationPage3     StepPath = "APPLICATION_PAGE_3"
	StepApplicationPage4     StepPath = "APPLICATION_PAGE_4"
	StepApplicationPage5     StepPath = "APPLICATION_PAGE_5"
	StepPoliciesConsents     StepPath = "POLICIES_CONSENTS"
	StepDriveTest            StepPath = "DRIVE_TEST"
	StepCarriersEdgeTraining StepPath = "CARRIERS_EDGE_TRAINING"
	StepDrugTest             StepPath = "DRUG_TEST"
	StepFlatbedTraining      StepPath = "FLATBED_TRAINING"
)

// applicationPages is the application-form macro step, in order.
var applicationPages = []StepPath{
	StepApplicationPage1,
	StepApplicationPage2,
	StepApplicationPage3,
	StepApplicationPage4,
	StepApplicationPage5,
}

var macroSteps = map[StepPath]int{
	StepPrequalifications:    1,
	StepApplicationPage1:     2,
	StepApplicationPage2:     2,
	StepApplicationPage3:     2,
	StepApplicationPage4:     2,
	StepApplicationPage5:     2,
	StepPoliciesConsents:     3,
	StepDriveTest:            4,
	StepCarriersEdgeTraining: 5,
	StepDrugTest:             6,
	StepFlatbedTraining:      7,
}

// MaxMacroStep is the highest macro step number.
const MaxMacroStep = 7

// MacroStep maps a step to its macro step number. Zero means no step yet or
// an unknown step.
func MacroStep(step StepPath) int {
	return macroSteps[step]
}

// IsApplicationPage reports whether step is one of the application-form pages.
func IsApplicationPage(step StepPath) bool {
	return applicationPage(step) > 0
}

// applicationPage returns the 1-based page number, or 0.
func applicationPage(step StepPath) int {
	for i, p := range applicationPages {
		if p == step {
			return i + 1
		}
	}
	return 0
}

// ApplicationSubPercent reports progress inside the application-form macro
// step: 0 before it, 20 per completed page while inside it, 100 once past it.
func ApplicationSubPercent(step StepPath) int {
	if page := applicationPage(step); page > 0 {
		return (page - 1) * 20
	}
	macro := MacroStep(step)
	if macro > MacroStep(StepApplicationPage1) {
		return 100
	}
	return 0
}

// Valid reports whether step is a known StepPath.
func (s StepPath) Valid() bool {
	_, ok := macroSteps[s]
	return ok
}

func (s StepPath) String() string { return string(s) }

// ParseStep normalizes user input ("drive_test", " DRIVE-TEST ") to a
// StepPath. ok is false for unknown values.
func ParseStep(raw string) (StepPath, bool) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.ReplaceAll(norm, "-", "_")
	step := StepPath(norm)
	return step, step.Valid()
}
