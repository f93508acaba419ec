package models

import (
	"time"

	"driverdesk/internal/onboarding/flow"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
)

// Status is a tracker's position in the onboarding flow.
type Status struct {
	CurrentStep flow.StepPath `json:"current_step"`
	Completed   bool          `json:"completed"`
}

// Tracker is the aggregate root for one driver's onboarding.
//
// Invariants:
//   - Status.CurrentStep is a step of Flow() unless the tracker is empty
//   - progress only moves forward; Advance never revisits an earlier step
//   - Completed is set only from the last step of the flow
//   - Version increases on every persisted write
type Tracker struct {
	ID                   domain.TrackerID                `json:"id"`
	CompanyID            domain.CompanyID                `json:"company_id"`
	Status               Status                          `json:"status"`
	NeedsFlatbedTraining bool                            `json:"needs_flatbed_training"`
	Forms                map[gate.Section]staging.Fields `json:"forms"`
	Notes                string                          `json:"notes"`
	Version              int64                           `json:"version"`
	CreatedAt            time.Time                       `json:"created_at"`
	UpdatedAt            time.Time                       `json:"updated_at"`
}

// NewTracker starts a tracker at the first step of its flow.
func NewTracker(id domain.TrackerID, companyID domain.CompanyID, needsFlatbedTraining bool, now time.Time) (*Tracker, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tracker id is required")
	}
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "company id is required")
	}
	f := flow.Resolve(needsFlatbedTraining)
	return &Tracker{
		ID:                   id,
		CompanyID:            companyID,
		Status:               Status{CurrentStep: f.First()},
		NeedsFlatbedTraining: needsFlatbedTraining,
		Forms:                map[gate.Section]staging.Fields{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// Flow resolves the tracker's step sequence.
func (t *Tracker) Flow() flow.Flow {
	return flow.Resolve(t.NeedsFlatbedTraining)
}

// Gates computes section edit permissions for the current position.
func (t *Tracker) Gates() gate.Gates {
	return gate.Compute(t.Status.CurrentStep, t.NeedsFlatbedTraining, t.Status.Completed)
}

// Section returns a copy of a section's data, empty when never written.
func (t *Tracker) Section(section gate.Section) staging.Fields {
	return t.Forms[section].Clone()
}

// SetSection replaces a section's data.
func (t *Tracker) SetSection(section gate.Section, data staging.Fields, now time.Time) {
	if t.Forms == nil {
		t.Forms = map[gate.Section]staging.Fields{}
	}
	t.Forms[section] = data.Clone()
	t.UpdatedAt = now
}

// CanAdvance checks that the tracker has somewhere to go.
func (t *Tracker) CanAdvance() error {
	if t.Status.Completed {
		return dErrors.New(dErrors.CodeInvariantViolation, "tracker is already completed")
	}
	if !t.Flow().Contains(t.Status.CurrentStep) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tracker is at an unknown step")
	}
	return nil
}

// ApplyAdvance moves to the next fine step, or marks the tracker completed
// from the last one. Call CanAdvance first.
func (t *Tracker) ApplyAdvance(now time.Time) {
	if next, ok := t.Flow().Next(t.Status.CurrentStep); ok {
		t.Status.CurrentStep = next
	} else {
		t.Status.Completed = true
	}
	t.UpdatedAt = now
}

// Advance validates and applies one step of progress.
func (t *Tracker) Advance(now time.Time) error {
	if err := t.CanAdvance(); err != nil {
		return err
	}
	t.ApplyAdvance(now)
	return nil
}

// ChangeCompany moves the tracker to another company.
func (t *Tracker) ChangeCompany(companyID domain.CompanyID, now time.Time) error {
	if companyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "company id is required")
	}
	if companyID == t.CompanyID {
		return dErrors.New(dErrors.CodeValidation, "tracker already belongs to this company")
	}
	t.CompanyID = companyID
	t.UpdatedAt = now
	return nil
}

// Clone deep-copies the tracker so stores never share form maps with callers.
func (t *Tracker) Clone() *Tracker {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Forms = make(map[gate.Section]staging.Fields, len(t.Forms))
	for k, v := range t.Forms {
		cp.Forms[k] = v.Clone()
	}
	return &cp
}
