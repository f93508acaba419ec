package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"driverdesk/internal/documents/models"
	"driverdesk/internal/platform/config"
	"driverdesk/pkg/domain"
	"driverdesk/pkg/platform/sentinel"
)

const (
	metaUploadedAt = "Uploaded-At"
	metaKind       = "Kind"
)

// MinIOStore keeps documents in an S3-compatible bucket. Descriptor fields
// are recovered from the object key and its metadata.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIO connects to the configured endpoint and creates the bucket when
// it does not exist yet.
func NewMinIO(ctx context.Context, cfg config.DocumentConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	s := &MinIOStore{client: client, bucket: cfg.Bucket}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MinIOStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// Another replica may have created it between the check and the call.
		if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinIOStore) Put(ctx context.Context, doc *models.Document, body io.Reader) error {
	size := doc.Size
	if size <= 0 {
		size = -1
	}
	info, err := s.client.PutObject(ctx, s.bucket, doc.Key, body, size, minio.PutObjectOptions{
		ContentType: doc.ContentType,
		UserMetadata: map[string]string{
			metaUploadedAt: doc.UploadedAt.UTC().Format(time.RFC3339Nano),
			metaKind:       string(doc.Kind),
		},
	})
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	doc.Size = info.Size
	return nil
}

func (s *MinIOStore) Get(ctx context.Context, key string) (*models.Document, io.ReadCloser, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, nil, translateError(err, "stat document")
	}
	doc, err := documentFromObject(info)
	if err != nil {
		return nil, nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, translateError(err, "get document")
	}
	return doc, obj, nil
}

func (s *MinIOStore) List(ctx context.Context, trackerID domain.TrackerID) ([]*models.Document, error) {
	var out []*models.Document
	for item := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    models.TrackerPrefix(trackerID),
		Recursive: true,
	}) {
		if item.Err != nil {
			return nil, fmt.Errorf("list documents: %w", item.Err)
		}
		info, err := s.client.StatObject(ctx, s.bucket, item.Key, minio.StatObjectOptions{})
		if err != nil {
			return nil, translateError(err, "stat document")
		}
		doc, err := documentFromObject(info)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out, nil
}

func (s *MinIOStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return translateError(err, "stat document")
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// documentFromObject parses trackers/{tracker}/{kind}/{id}.
func documentFromObject(info minio.ObjectInfo) (*models.Document, error) {
	parts := strings.Split(info.Key, "/")
	if len(parts) != 4 || parts[0] != "trackers" {
		return nil, fmt.Errorf("unexpected document key %q", info.Key)
	}
	trackerID, err := domain.ParseTrackerID(parts[1])
	if err != nil {
		return nil, fmt.Errorf("document key %q: %w", info.Key, err)
	}
	id, err := uuid.Parse(parts[3])
	if err != nil {
		return nil, fmt.Errorf("document key %q: %w", info.Key, err)
	}
	uploadedAt := info.LastModified
	if raw := info.UserMetadata[metaUploadedAt]; raw != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			uploadedAt = parsed
		}
	}
	return &models.Document{
		ID:          id,
		TrackerID:   trackerID,
		Kind:        models.Kind(parts[2]),
		Key:         info.Key,
		ContentType: info.ContentType,
		Size:        info.Size,
		UploadedAt:  uploadedAt,
	}, nil
}

func translateError(err error, op string) error {
	if resp := minio.ToErrorResponse(err); resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
