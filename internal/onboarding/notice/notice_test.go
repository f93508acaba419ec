package notice

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"driverdesk/internal/onboarding/flow"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/internal/tracker/models"
	"driverdesk/pkg/domain"
)

type NoticeSuite struct {
	suite.Suite
	now     time.Time
	deriver Deriver
}

func TestNoticeSuite(t *testing.T) {
	suite.Run(t, new(NoticeSuite))
}

func (s *NoticeSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.deriver = New(0)
}

func (s *NoticeSuite) newTracker(step flow.StepPath) *models.Tracker {
	t, err := models.NewTracker(domain.NewTrackerID(), domain.CompanyID(uuid.New()), false, s.now)
	s.Require().NoError(err)
	t.Status.CurrentStep = step
	return t
}

func codes(notices []Notice) []Code {
	out := make([]Code, len(notices))
	for i, n := range notices {
		out[i] = n.Code
	}
	return out
}

func (s *NoticeSuite) TestLicenseExpiry() {
	s.Run("expiring within the window", func() {
		t := s.newTracker(flow.StepApplicationPage3)
		t.Forms[gate.SectionLicenses] = staging.Fields{"licenseExpiry": "2026-04-10"}
		notices := s.deriver.Derive(t, s.now)
		s.Require().Len(notices, 1)
		s.Equal(CodeLicenseExpiringSoon, notices[0].Code)
		s.Equal(gate.SectionLicenses, notices[0].Section)
	})

	s.Run("outside the window", func() {
		t := s.newTracker(flow.StepApplicationPage3)
		t.Forms[gate.SectionLicenses] = staging.Fields{"licenseExpiry": "2026-12-31"}
		s.Empty(s.deriver.Derive(t, s.now))
	})

	s.Run("already expired", func() {
		t := s.newTracker(flow.StepApplicationPage3)
		t.Forms[gate.SectionLicenses] = staging.Fields{"licenseExpiry": "2026-02-01T00:00:00Z"}
		s.Equal([]Code{CodeLicenseExpired}, codes(s.deriver.Derive(t, s.now)))
	})

	s.Run("unparseable date is ignored", func() {
		t := s.newTracker(flow.StepApplicationPage3)
		t.Forms[gate.SectionLicenses] = staging.Fields{"licenseExpiry": "soon"}
		s.Empty(s.deriver.Derive(t, s.now))
	})
}

func (s *NoticeSuite) TestAwaitingDriver() {
	t := s.newTracker(flow.StepDriveTest)
	t.Forms[gate.SectionAdditionalInfo] = staging.Fields{"truckDetails": "2019 Volvo VNL"}
	s.Equal([]Code{CodeAwaitingDriver}, codes(s.deriver.Derive(t, s.now)))

	t.Forms[gate.SectionDriveTest] = staging.Fields{"completed": true}
	s.Empty(s.deriver.Derive(t, s.now))

	t.Status.Completed = true
	t.Forms[gate.SectionDriveTest] = nil
	s.Empty(s.deriver.Derive(t, s.now))
}

func (s *NoticeSuite) TestMissingTruckDetails() {
	s.Run("not flagged before the application is finished", func() {
		s.Empty(s.deriver.Derive(s.newTracker(flow.StepApplicationPage5), s.now))
	})

	s.Run("flagged once past the application", func() {
		t := s.newTracker(flow.StepPoliciesConsents)
		s.Equal([]Code{CodeMissingTruckDetails}, codes(s.deriver.Derive(t, s.now)))
	})

	s.Run("empty object counts as missing", func() {
		t := s.newTracker(flow.StepPoliciesConsents)
		t.Forms[gate.SectionAdditionalInfo] = staging.Fields{"truckDetails": map[string]any{"make": ""}}
		s.Equal([]Code{CodeMissingTruckDetails}, codes(s.deriver.Derive(t, s.now)))
	})
}

func (s *NoticeSuite) TestPriorityOrder() {
	t := s.newTracker(flow.StepDrugTest)
	t.Forms[gate.SectionLicenses] = staging.Fields{"licenseExpiry": "2026-03-15"}
	s.Equal(
		[]Code{CodeLicenseExpiringSoon, CodeAwaitingDriver, CodeMissingTruckDetails},
		codes(s.deriver.Derive(t, s.now)),
	)
}

func (s *NoticeSuite) TestNilTracker() {
	s.Nil(s.deriver.Derive(nil, s.now))
}
