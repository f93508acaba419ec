// Package notice derives advisory messages from a tracker snapshot. Each rule
// yields at most one notice; rules run in a fixed priority order.
package notice

import (
	"fmt"
	"strings"
	"time"

	"driverdesk/internal/onboarding/flow"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/rowset"
	"driverdesk/internal/tracker/models"
)

// Severity ranks how urgent a notice is.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Code identifies the rule that produced a notice.
type Code string

const (
	CodeLicenseExpired      Code = "license_expired"
	CodeLicenseExpiringSoon Code = "license_expiring_soon"
	CodeAwaitingDriver      Code = "awaiting_driver"
	CodeMissingTruckDetails Code = "missing_truck_details"
)

// Notice is one advisory message for the dashboard.
type Notice struct {
	Code     Code         `json:"code"`
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
	Section  gate.Section `json:"section"`
}

// DefaultLicenseWarning is how far ahead license expiry is flagged.
const DefaultLicenseWarning = 60 * 24 * time.Hour

// Deriver evaluates the notice rules.
type Deriver struct {
	LicenseWarning time.Duration
}

// New returns a Deriver with the given license warning window; zero or
// negative uses DefaultLicenseWarning.
func New(licenseWarning time.Duration) Deriver {
	if licenseWarning <= 0 {
		licenseWarning = DefaultLicenseWarning
	}
	return Deriver{LicenseWarning: licenseWarning}
}

type rule func(d Deriver, t *models.Tracker, now time.Time) (Notice, bool)

var rules = []rule{
	licenseExpiry,
	awaitingDriver,
	missingTruckDetails,
}

// Derive returns the notices for t in priority order. A nil tracker has none.
func (d Deriver) Derive(t *models.Tracker, now time.Time) []Notice {
	if t == nil {
		return nil
	}
	notices := make([]Notice, 0, len(rules))
	for _, r := range rules {
		if n, ok := r(d, t, now); ok {
			notices = append(notices, n)
		}
	}
	return notices
}

var expiryLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range expiryLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func licenseExpiry(d Deriver, t *models.Tracker, now time.Time) (Notice, bool) {
	expiry, ok := parseDate(t.Forms[gate.SectionLicenses]["licenseExpiry"])
	if !ok {
		return Notice{}, false
	}
	if !expiry.After(now) {
		return Notice{
			Code:     CodeLicenseExpired,
			Severity: SeverityDanger,
			Message:  fmt.Sprintf("Driver license expired on %s", expiry.Format("2006-01-02")),
			Section:  gate.SectionLicenses,
		}, true
	}
	if expiry.Sub(now) <= d.LicenseWarning {
		days := int(expiry.Sub(now).Hours() / 24)
		return Notice{
			Code:     CodeLicenseExpiringSoon,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Driver license expires in %d days", days),
			Section:  gate.SectionLicenses,
		}, true
	}
	return Notice{}, false
}

// driverActions are the steps that wait on the driver rather than an admin.
var driverActions = map[flow.StepPath]struct {
	section gate.Section
	message string
}{
	flow.StepDriveTest:            {gate.SectionDriveTest, "Drive test has not been completed"},
	flow.StepCarriersEdgeTraining: {gate.SectionCarriersEdgeTraining, "Carrier training has not been completed"},
	flow.StepDrugTest:             {gate.SectionDrugTest, "Drug test results have not been submitted"},
	flow.StepFlatbedTraining:      {gate.SectionFlatbedTraining, "Flatbed training has not been completed"},
}

func awaitingDriver(_ Deriver, t *models.Tracker, _ time.Time) (Notice, bool) {
	if t.Status.Completed {
		return Notice{}, false
	}
	action, ok := driverActions[t.Status.CurrentStep]
	if !ok {
		return Notice{}, false
	}
	if done, _ := t.Forms[action.section]["completed"].(bool); done {
		return Notice{}, false
	}
	return Notice{
		Code:     CodeAwaitingDriver,
		Severity: SeverityInfo,
		Message:  action.message,
		Section:  action.section,
	}, true
}

func missingTruckDetails(_ Deriver, t *models.Tracker, _ time.Time) (Notice, bool) {
	f := t.Flow()
	reached := t.Status.Completed || f.Rank(t.Status.CurrentStep) > f.Rank(flow.StepApplicationPage5)
	if !reached {
		return Notice{}, false
	}
	if !isMissing(t.Forms[gate.SectionAdditionalInfo]["truckDetails"]) {
		return Notice{}, false
	}
	return Notice{
		Code:     CodeMissingTruckDetails,
		Severity: SeverityWarning,
		Message:  "Truck details are missing",
		Section:  gate.SectionAdditionalInfo,
	}, true
}

func isMissing(v any) bool {
	if m, ok := v.(map[string]any); ok {
		for _, item := range m {
			if !rowset.IsBlank(item) {
				return false
			}
		}
		return true
	}
	return rowset.IsBlank(v)
}
