// Package store persists trackers. Stores are pure I/O: they enforce the
// version check on write and nothing else.
package store

import (
	"context"

	"driverdesk/internal/tracker/models"
	"driverdesk/pkg/domain"
)

// Store is the persistence contract shared by the in-memory and Postgres
// implementations.
type Store interface {
	Create(ctx context.Context, t *models.Tracker) error
	FindByID(ctx context.Context, id domain.TrackerID) (*models.Tracker, error)
	ListByCompany(ctx context.Context, companyID domain.CompanyID) ([]*models.Tracker, error)
	// ListByIDs returns the trackers that exist among ids; unknown ids are
	// skipped.
	ListByIDs(ctx context.Context, ids []domain.TrackerID) ([]*models.Tracker, error)
	// Update writes t when the stored version equals expectedVersion and
	// sets t.Version to the new version. A mismatch returns
	// sentinel.ErrConflict.
	Update(ctx context.Context, t *models.Tracker, expectedVersion int64) error
}
