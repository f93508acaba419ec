package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"driverdesk/internal/documents/models"
	"driverdesk/internal/documents/service"
	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
	"driverdesk/pkg/platform/httputil"
	"driverdesk/pkg/requestcontext"
)

type Service interface {
	Upload(ctx context.Context, req service.UploadRequest) (*models.Document, error)
	List(ctx context.Context, trackerID domain.TrackerID) ([]*models.Document, error)
	Open(ctx context.Context, trackerID domain.TrackerID, docID uuid.UUID) (*models.Document, io.ReadCloser, error)
	Delete(ctx context.Context, trackerID domain.TrackerID, docID uuid.UUID) error
}

// ListResponse wraps a tracker's documents.
type ListResponse struct {
	Documents []*models.Document `json:"documents"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts document endpoints. Uploads send the raw file as the body
// with ?kind= naming what it is.
func (h *Handler) Register(r chi.Router) {
	r.Post("/trackers/{id}/documents", h.HandleUpload)
	r.Get("/trackers/{id}/documents", h.HandleList)
	r.Get("/trackers/{id}/documents/{docID}", h.HandleDownload)
	r.Delete("/trackers/{id}/documents/{docID}", h.HandleDelete)
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	trackerID, ok := trackerID(w, r)
	if !ok {
		return
	}
	kind, err := models.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, err := h.service.Upload(ctx, service.UploadRequest{
		TrackerID:   trackerID,
		Kind:        kind,
		ContentType: r.Header.Get("Content-Type"),
		Size:        r.ContentLength,
		Body:        r.Body,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "document upload failed",
			"request_id", requestcontext.RequestID(ctx),
			"tracker_id", trackerID.String(),
			"kind", string(kind),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "document uploaded",
		"request_id", requestcontext.RequestID(ctx),
		"tracker_id", trackerID.String(),
		"kind", string(kind),
		"size", doc.Size,
	)
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	trackerID, ok := trackerID(w, r)
	if !ok {
		return
	}
	docs, err := h.service.List(r.Context(), trackerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Documents: docs})
}

func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	trackerID, ok := trackerID(w, r)
	if !ok {
		return
	}
	docID, ok := documentID(w, r)
	if !ok {
		return
	}
	doc, body, err := h.service.Open(ctx, trackerID, docID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	if doc.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(ctx, "document download interrupted",
			"request_id", requestcontext.RequestID(ctx),
			"key", doc.Key,
			"error", err,
		)
	}
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	trackerID, ok := trackerID(w, r)
	if !ok {
		return
	}
	docID, ok := documentID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), trackerID, docID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func trackerID(w http.ResponseWriter, r *http.Request) (domain.TrackerID, bool) {
	id, err := domain.ParseTrackerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.TrackerID{}, false
	}
	return id, true
}

func documentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "docID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return uuid.Nil, false
	}
	return id, true
}
