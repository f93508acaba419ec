package handler

import (
	"strconv"
	"strings"

	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
	platformstrings "driverdesk/pkg/platform/strings"
)

// maxNotesLength bounds the free-text notes field.
const maxNotesLength = 10000

// CreateTrackerRequest is the body of POST /trackers.
type CreateTrackerRequest struct {
	CompanyID            string `json:"company_id"`
	NeedsFlatbedTraining bool   `json:"needs_flatbed_training"`

	parsedCompanyID domain.CompanyID
}

func (r *CreateTrackerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CompanyID = strings.TrimSpace(r.CompanyID)
	if r.CompanyID == "" {
		return dErrors.New(dErrors.CodeValidation, "company_id is required")
	}
	id, err := domain.ParseCompanyID(r.CompanyID)
	if err != nil {
		return err
	}
	r.parsedCompanyID = id
	return nil
}

// ChangeCompanyRequest is the body of POST /trackers/{id}/company.
type ChangeCompanyRequest struct {
	CompanyID string `json:"company_id"`
	Confirm   bool   `json:"confirm"`

	parsedCompanyID domain.CompanyID
}

func (r *ChangeCompanyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CompanyID = strings.TrimSpace(r.CompanyID)
	if r.CompanyID == "" {
		return dErrors.New(dErrors.CodeValidation, "company_id is required")
	}
	id, err := domain.ParseCompanyID(r.CompanyID)
	if err != nil {
		return err
	}
	r.parsedCompanyID = id
	return nil
}

// UpdateNotesRequest is the body of PUT /trackers/{id}/notes.
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

func (r *UpdateNotesRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Notes) > maxNotesLength {
		return dErrors.Newf(dErrors.CodeValidation, "notes must be at most %d characters", maxNotesLength)
	}
	return nil
}

// parseIfMatch reads an If-Match header carrying a tracker version. An
// absent header yields 0 (no precondition).
func parseIfMatch(header string) (int64, error) {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return 0, nil
	}
	header = strings.TrimPrefix(header, "W/")
	header = strings.Trim(header, `"`)
	v, err := strconv.ParseInt(header, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "If-Match must carry a tracker version")
	}
	return v, nil
}

// etag formats a tracker version for the ETag header.
func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

// parseIDs reads a comma-separated list of tracker ids.
func parseIDs(raw string) ([]domain.TrackerID, error) {
	var ids []domain.TrackerID
	for _, part := range platformstrings.SplitList(raw) {
		id, err := domain.ParseTrackerID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
