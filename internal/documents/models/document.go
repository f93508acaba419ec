package models

import (
	"time"

	"github.com/google/uuid"

	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
)

// Kind names what a document is evidence of.
type Kind string

const (
	KindLicenseFront      Kind = "license-front"
	KindLicenseBack       Kind = "license-back"
	KindMedicalCard       Kind = "medical-card"
	KindDrugTestResult    Kind = "drug-test-result"
	KindTrainingCertified Kind = "training-certificate"
	KindOther             Kind = "other"
)

var kinds = map[Kind]struct{}{
	KindLicenseFront:      {},
	KindLicenseBack:       {},
	KindMedicalCard:       {},
	KindDrugTestResult:    {},
	KindTrainingCertified: {},
	KindOther:             {},
}

// ParseKind validates a document kind.
func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if _, ok := kinds[k]; !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown document kind %q", raw)
	}
	return k, nil
}

// Document describes a stored file. The bytes live in object storage under
// Key.
type Document struct {
	ID          uuid.UUID        `json:"id"`
	TrackerID   domain.TrackerID `json:"tracker_id"`
	Kind        Kind             `json:"kind"`
	Key         string           `json:"key"`
	ContentType string           `json:"content_type"`
	Size        int64            `json:"size"`
	UploadedAt  time.Time        `json:"uploaded_at"`
}

// ObjectKey lays documents out per tracker so listing is a prefix scan.
func ObjectKey(trackerID domain.TrackerID, kind Kind, id uuid.UUID) string {
	return TrackerPrefix(trackerID) + string(kind) + "/" + id.String()
}

// TrackerPrefix is the key prefix shared by a tracker's documents.
func TrackerPrefix(trackerID domain.TrackerID) string {
	return "trackers/" + trackerID.String() + "/"
}
