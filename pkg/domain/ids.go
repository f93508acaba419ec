// Package domain holds identifier types shared across modules.
package domain

import (
	"github.com/google/uuid"

	dErrors "driverdesk/pkg/domain-errors"
)

// TrackerID identifies one driver's onboarding tracker.
type TrackerID uuid.UUID

// CompanyID identifies the carrier company a driver is onboarding with.
type CompanyID uuid.UUID

// NewTrackerID returns a random tracker identifier.
func NewTrackerID() TrackerID { return TrackerID(uuid.New()) }

func (t TrackerID) String() string { return uuid.UUID(t).String() }

// IsNil reports whether the id is the zero UUID.
func (t TrackerID) IsNil() bool { return uuid.UUID(t) == uuid.Nil }

func (t TrackerID) MarshalText() ([]byte, error) { return uuid.UUID(t).MarshalText() }

func (t *TrackerID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*t = TrackerID(u)
	return nil
}

func (c CompanyID) String() string { return uuid.UUID(c).String() }

// IsNil reports whether the id is the zero UUID.
func (c CompanyID) IsNil() bool { return uuid.UUID(c) == uuid.Nil }

func (c CompanyID) MarshalText() ([]byte, error) { return uuid.UUID(c).MarshalText() }

func (c *CompanyID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*c = CompanyID(u)
	return nil
}

// ParseTrackerID parses a tracker id from a path or query value.
func ParseTrackerID(s string) (TrackerID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return TrackerID{}, dErrors.New(dErrors.CodeBadRequest, "invalid tracker id")
	}
	return TrackerID(u), nil
}

// ParseCompanyID parses a company id.
func ParseCompanyID(s string) (CompanyID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CompanyID{}, dErrors.New(dErrors.CodeBadRequest, "invalid company id")
	}
	return CompanyID(u), nil
}
