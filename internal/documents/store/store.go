// Package store keeps document bytes and their descriptors in object
// storage.
package store

import (
	"context"
	"io"

	"driverdesk/internal/documents/models"
	"driverdesk/pkg/domain"
)

// Store is implemented by the MinIO and in-memory stores. Get returns
// sentinel.ErrNotFound for unknown keys; the caller closes the reader.
type Store interface {
	Put(ctx context.Context, doc *models.Document, body io.Reader) error
	Get(ctx context.Context, key string) (*models.Document, io.ReadCloser, error)
	List(ctx context.Context, trackerID domain.TrackerID) ([]*models.Document, error)
	Delete(ctx context.Context, key string) error
}
