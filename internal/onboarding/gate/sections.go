package gate

import "driverdesk/internal/onboarding/flow"

// Section names a dashboard section of a tracker's forms.
type Section string

const (
	SectionPrequalifications    Section = "prequalifications"
	SectionPersonalInformation  Section = "personal-information"
	SectionLicenses             Section = "licenses"
	SectionEmploymentHistory    Section = "employment-history"
	SectionAccidentsConvictions Section = "accidents-convictions"
	SectionAdditionalInfo       Section = "additional-info"
	SectionPoliciesConsents     Section = "policies-consents"
	SectionDriveTest            Section = "drive-test"
	SectionCarriersEdgeTraining Section = "carriers-edge-training"
	SectionDrugTest             Section = "drug-test"
	SectionFlatbedTraining      Section = "flatbed-training"
)

// sectionSteps ties each section to the step that unlocks it. Order is the
// dashboard display order.
var sectionSteps = []struct {
	section Section
	step    flow.StepPath
}{
	{SectionPrequalifications, flow.StepPrequalifications},
	{SectionPersonalInformation, flow.StepApplicationPage1},
	{SectionLicenses, flow.StepApplicationPage2},
	{SectionEmploymentHistory, flow.StepApplicationPage3},
	{SectionAccidentsConvictions, flow.StepApplicationPage4},
	{SectionAdditionalInfo, flow.StepApplicationPage5},
	{SectionPoliciesConsents, flow.StepPoliciesConsents},
	{SectionDriveTest, flow.StepDriveTest},
	{SectionCarriersEdgeTraining, flow.StepCarriersEdgeTraining},
	{SectionDrugTest, flow.StepDrugTest},
	{SectionFlatbedTraining, flow.StepFlatbedTraining},
}

// Sections lists every gated section in display order.
func Sections() []Section {
	out := make([]Section, len(sectionSteps))
	for i, ss := range sectionSteps {
		out[i] = ss.section
	}
	return out
}

// StepFor returns the step that unlocks section.
func StepFor(section Section) (flow.StepPath, bool) {
	for _, ss := range sectionSteps {
		if ss.section == section {
			return ss.step, true
		}
	}
	return "", false
}

// Valid reports whether section is a known dashboard section.
func (s Section) Valid() bool {
	_, ok := StepFor(s)
	return ok
}

func (s Section) String() string { return string(s) }
