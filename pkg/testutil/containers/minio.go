//go:build integration

package containers

import (
	"context"
	"testing"

	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"

	"driverdesk/internal/platform/config"
)

// MinIOContainer wraps an S3-compatible object store.
type MinIOContainer struct {
	Container *tcminio.MinioContainer
	Config    config.DocumentConfig
}

// NewMinIOContainer starts MinIO and returns a document config pointing at
// it. Each caller should pick its own bucket.
func NewMinIOContainer(t *testing.T) *MinIOContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcminio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		tcminio.WithUsername("driverdesk"),
		tcminio.WithPassword("driverdesk-secret"),
	)
	if err != nil {
		t.Fatalf("failed to start minio container: %v", err)
	}

	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get minio endpoint: %v", err)
	}

	return &MinIOContainer{
		Container: container,
		Config: config.DocumentConfig{
			Endpoint:  endpoint,
			AccessKey: container.Username,
			SecretKey: container.Password,
			Bucket:    "driver-documents",
		},
	}
}
