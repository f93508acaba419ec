package gate

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"driverdesk/internal/onboarding/flow"
)

type GateSuite struct {
	suite.Suite
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) TestCompletedOpensEverything() {
	steps := append(flow.Resolve(true).FineSteps(), "", "BOGUS")
	for _, flatbed := range []bool{false, true} {
		for _, current := range steps {
			g := Compute(current, flatbed, true)
			for _, section := range Sections() {
				s.True(g.Open(section), "section %s at %s", section, current)
			}
		}
	}
}

func (s *GateSuite) TestSectionsBeforeTheirStepAreClosed() {
	for _, flatbed := range []bool{false, true} {
		f := flow.Resolve(flatbed)
		for _, current := range f.FineSteps() {
			g := Compute(current, flatbed, false)
			for _, section := range Sections() {
				step, _ := StepFor(section)
				if !f.Contains(step) {
					continue
				}
				if f.Rank(current) < f.Rank(step) {
					s.False(g.Open(section), "section %s at %s", section, current)
				} else {
					s.True(g.Open(section), "section %s at %s", section, current)
				}
			}
		}
	}
}

func (s *GateSuite) TestRatchetKeepsPassedSectionsOpen() {
	g := Compute(flow.StepDrugTest, false, false)
	s.True(g.Open(SectionPrequalifications))
	s.True(g.Open(SectionDriveTest))
	s.Equal(StatePassed, g.State(SectionDriveTest))
	s.Equal(StateEditable, g.State(SectionDrugTest))
}

func (s *GateSuite) TestDriveTestScenario() {
	g := Compute(flow.StepDriveTest, false, false)
	s.True(g.Open(SectionDriveTest))
	s.False(g.Open(SectionCarriersEdgeTraining))
	s.False(g.Open(SectionDrugTest))
	s.Equal(StateLocked, g.State(SectionDrugTest))
}

func (s *GateSuite) TestUnknownStepClosesAll() {
	for _, current := range []flow.StepPath{"", "NOT_A_STEP"} {
		g := Compute(current, true, false)
		for _, section := range Sections() {
			s.False(g.Open(section))
		}
	}
}

func (s *GateSuite) TestFlatbedSectionWithoutFlatbedFlow() {
	g := Compute(flow.StepDrugTest, false, false)
	s.False(g.Open(SectionFlatbedTraining))

	g = Compute(flow.StepFlatbedTraining, true, false)
	s.True(g.Open(SectionFlatbedTraining))
}

func (s *GateSuite) TestApplicationPagesUnlockOneByOne() {
	g := Compute(flow.StepApplicationPage3, false, false)
	s.True(g.Open(SectionPersonalInformation))
	s.True(g.Open(SectionEmploymentHistory))
	s.False(g.Open(SectionAccidentsConvictions))
}

func (s *GateSuite) TestEditable() {
	g := Compute(flow.StepDriveTest, false, false)
	s.True(Editable(g, EditMode{Enabled: true}, SectionDriveTest))
	s.False(Editable(g, EditMode{Enabled: false}, SectionDriveTest))
	s.False(Editable(g, EditMode{Enabled: true}, SectionDrugTest))
	s.False(Editable(g, EditMode{Enabled: true}, Section("unknown")))
}
