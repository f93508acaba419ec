package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"driverdesk/internal/drafts"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
	"driverdesk/pkg/platform/httputil"
	"driverdesk/pkg/platform/sentinel"
	"driverdesk/pkg/requestcontext"
)

// Store is the draft persistence used by the handler.
type Store interface {
	Save(ctx context.Context, key drafts.Key, changes staging.Fields, now time.Time) error
	Load(ctx context.Context, key drafts.Key) (*drafts.Draft, error)
	Delete(ctx context.Context, key drafts.Key) error
}

// SaveDraftRequest is the body of PUT /trackers/{id}/drafts/{section}.
type SaveDraftRequest struct {
	Changes staging.Fields `json:"changes"`
}

func (r *SaveDraftRequest) Validate() error {
	if r == nil || r.Changes == nil {
		return dErrors.New(dErrors.CodeValidation, "changes is required")
	}
	return nil
}

// Handler exposes the caller's own drafts. Mount it behind
// admin.RequireActor so every key names an administrator.
type Handler struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts draft endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/trackers/{id}/drafts/{section}", h.HandleLoad)
	r.Put("/trackers/{id}/drafts/{section}", h.HandleSave)
	r.Delete("/trackers/{id}/drafts/{section}", h.HandleDelete)
}

func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	d, err := h.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no draft for this section"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to load draft",
			"request_id", requestcontext.RequestID(ctx),
			"tracker_id", key.TrackerID.String(),
			"section", key.Section.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load draft"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SaveDraftRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.store.Save(ctx, key, req.Changes, requestcontext.Now(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "failed to save draft",
			"request_id", requestcontext.RequestID(ctx),
			"tracker_id", key.TrackerID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(ctx, key); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete draft"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) key(w http.ResponseWriter, r *http.Request) (drafts.Key, bool) {
	id, err := domain.ParseTrackerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return drafts.Key{}, false
	}
	section := gate.Section(chi.URLParam(r, "section"))
	if !section.Valid() {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeNotFound, "unknown section %q", section))
		return drafts.Key{}, false
	}
	return drafts.Key{TrackerID: id, Section: section, AdminID: requestcontext.AdminID(r.Context())}, true
}
