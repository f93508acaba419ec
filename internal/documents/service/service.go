// Package service stores document photos for trackers and records the
// uploads in the audit trail.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"driverdesk/internal/documents/models"
	trackermodels "driverdesk/internal/tracker/models"
	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
	audit "driverdesk/pkg/platform/audit"
	"driverdesk/pkg/platform/sentinel"
	"driverdesk/pkg/requestcontext"
)

// DefaultMaxBytes caps a single upload.
const DefaultMaxBytes = 10 << 20

type DocumentStore interface {
	Put(ctx context.Context, doc *models.Document, body io.Reader) error
	Get(ctx context.Context, key string) (*models.Document, io.ReadCloser, error)
	List(ctx context.Context, trackerID domain.TrackerID) ([]*models.Document, error)
	Delete(ctx context.Context, key string) error
}

// TrackerFinder confirms the tracker a document belongs to exists.
type TrackerFinder interface {
	FindByID(ctx context.Context, id domain.TrackerID) (*trackermodels.Tracker, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// UploadRequest describes one incoming document.
type UploadRequest struct {
	TrackerID   domain.TrackerID
	Kind        models.Kind
	ContentType string
	// Size is the declared length, or -1 when unknown.
	Size int64
	Body io.Reader
}

type Service struct {
	documents      DocumentStore
	trackers       TrackerFinder
	maxBytes       int64
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithMaxBytes caps upload size; non-positive keeps DefaultMaxBytes.
func WithMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func New(documents DocumentStore, trackers TrackerFinder, opts ...Option) *Service {
	s := &Service{
		documents: documents,
		trackers:  trackers,
		maxBytes:  DefaultMaxBytes,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload stores a document under the tracker.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.Document, error) {
	if req.Body == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "document body is required")
	}
	if req.Size > s.maxBytes {
		return nil, dErrors.Newf(dErrors.CodeValidation, "document exceeds %d bytes", s.maxBytes)
	}
	if err := s.ensureTracker(ctx, req.TrackerID); err != nil {
		return nil, err
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	id := uuid.New()
	doc := &models.Document{
		ID:          id,
		TrackerID:   req.TrackerID,
		Kind:        req.Kind,
		Key:         models.ObjectKey(req.TrackerID, req.Kind, id),
		ContentType: contentType,
		Size:        req.Size,
		UploadedAt:  requestcontext.Now(ctx),
	}

	body := &limitedReader{r: req.Body, remaining: s.maxBytes}
	if err := s.documents.Put(ctx, doc, body); err != nil {
		if body.exceeded {
			return nil, dErrors.Newf(dErrors.CodeValidation, "document exceeds %d bytes", s.maxBytes)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store document")
	}
	if body.exceeded {
		_ = s.documents.Delete(ctx, doc.Key)
		return nil, dErrors.Newf(dErrors.CodeValidation, "document exceeds %d bytes", s.maxBytes)
	}

	if s.auditPublisher != nil {
		event := audit.Event{
			Action:    audit.ActionDocumentUploaded,
			TrackerID: doc.TrackerID,
			ActorID:   requestcontext.AdminID(ctx),
			RequestID: requestcontext.RequestID(ctx),
			Details:   map[string]string{"kind": string(doc.Kind), "key": doc.Key},
			Timestamp: doc.UploadedAt,
		}
		if err := s.auditPublisher.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
		}
	}
	return doc, nil
}

// List returns the tracker's documents, oldest first.
func (s *Service) List(ctx context.Context, trackerID domain.TrackerID) ([]*models.Document, error) {
	if err := s.ensureTracker(ctx, trackerID); err != nil {
		return nil, err
	}
	docs, err := s.documents.List(ctx, trackerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	return docs, nil
}

// Open returns a document's descriptor and bytes. The caller closes the
// reader.
func (s *Service) Open(ctx context.Context, trackerID domain.TrackerID, docID uuid.UUID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.find(ctx, trackerID, docID)
	if err != nil {
		return nil, nil, err
	}
	found, body, err := s.documents.Get(ctx, doc.Key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read document")
	}
	return found, body, nil
}

// Delete removes a document.
func (s *Service) Delete(ctx context.Context, trackerID domain.TrackerID, docID uuid.UUID) error {
	doc, err := s.find(ctx, trackerID, docID)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, doc.Key); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete document")
	}
	return nil
}

func (s *Service) find(ctx context.Context, trackerID domain.TrackerID, docID uuid.UUID) (*models.Document, error) {
	docs, err := s.List(ctx, trackerID)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.ID == docID {
			return d, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
}

func (s *Service) ensureTracker(ctx context.Context, id domain.TrackerID) error {
	if _, err := s.trackers.FindByID(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "tracker not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tracker")
	}
	return nil
}

// limitedReader fails the read once more than remaining bytes are consumed.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

var errTooLarge = errors.New("document too large")

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, errTooLarge
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, errTooLarge
	}
	return n, err
}
