package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("license-front")
	assert.NoError(t, err)
	assert.Equal(t, KindLicenseFront, k)

	_, err = ParseKind("selfie")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestObjectKey(t *testing.T) {
	tid := domain.NewTrackerID()
	id := uuid.New()
	key := ObjectKey(tid, KindLicenseBack, id)
	assert.Equal(t, "trackers/"+tid.String()+"/license-back/"+id.String(), key)
	assert.Contains(t, key, TrackerPrefix(tid))
}
