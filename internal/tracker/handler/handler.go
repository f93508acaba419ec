package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/internal/tracker/models"
	"driverdesk/internal/tracker/service"
	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
	"driverdesk/pkg/platform/httputil"
	"driverdesk/pkg/requestcontext"
)

// Service defines the tracker operations exposed over HTTP.
type Service interface {
	CreateTracker(ctx context.Context, companyID domain.CompanyID, needsFlatbedTraining bool) (*models.Tracker, error)
	ListTrackers(ctx context.Context, filter service.ListFilter) ([]*models.Tracker, error)
	GetTracker(ctx context.Context, id domain.TrackerID) (*service.TrackerView, error)
	GetSection(ctx context.Context, id domain.TrackerID, section gate.Section) (staging.Fields, error)
	PatchSection(ctx context.Context, id domain.TrackerID, section gate.Section, payload staging.Fields, expectedVersion int64) (*models.Tracker, error)
	ChangeCompany(ctx context.Context, id domain.TrackerID, companyID domain.CompanyID, confirm bool) (*models.Tracker, error)
	AdvanceStep(ctx context.Context, id domain.TrackerID) (*models.Tracker, error)
	UpdateNotes(ctx context.Context, id domain.TrackerID, notes string) (*models.Tracker, error)
}

// Handler wires tracker endpoints to the tracker service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a tracker handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tracker endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/trackers", h.HandleCreate)
	r.Get("/trackers", h.HandleList)
	r.Route("/trackers/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Get("/forms/{section}", h.HandleGetSection)
		r.Patch("/forms/{section}", h.HandlePatchSection)
		r.Post("/company", h.HandleChangeCompany)
		r.Post("/advance", h.HandleAdvance)
		r.Put("/notes", h.HandleUpdateNotes)
	})
}

// HandleCreate handles POST /trackers.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateTrackerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	t, err := h.service.CreateTracker(ctx, req.parsedCompanyID, req.NeedsFlatbedTraining)
	if err != nil {
		h.fail(ctx, w, "failed to create tracker", err)
		return
	}
	h.logger.InfoContext(ctx, "tracker created",
		"request_id", requestID,
		"tracker_id", t.ID.String(),
		"company_id", t.CompanyID.String(),
	)
	w.Header().Set("ETag", etag(t.Version))
	httputil.WriteJSON(w, http.StatusCreated, t)
}

// HandleList handles GET /trackers?company_id= or ?ids=a,b.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var filter service.ListFilter
	if raw := r.URL.Query().Get("company_id"); raw != "" {
		companyID, err := domain.ParseCompanyID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.CompanyID = companyID
	}
	if raw := r.URL.Query().Get("ids"); raw != "" {
		ids, err := parseIDs(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.IDs = ids
	}

	list, err := h.service.ListTrackers(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list trackers", err)
		return
	}
	if list == nil {
		list = []*models.Tracker{}
	}
	httputil.WriteJSON(w, http.StatusOK, TrackerListResponse{Trackers: list})
}

// HandleGet handles GET /trackers/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.trackerID(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetTracker(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get tracker", err)
		return
	}
	w.Header().Set("ETag", etag(view.Tracker.Version))
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleGetSection handles GET /trackers/{id}/forms/{section}.
func (h *Handler) HandleGetSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.trackerID(w, r)
	if !ok {
		return
	}
	section := gate.Section(chi.URLParam(r, "section"))
	data, err := h.service.GetSection(ctx, id, section)
	if err != nil {
		h.fail(ctx, w, "failed to get section", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SectionResponse{Section: section, Data: data})
}

// HandlePatchSection handles PATCH /trackers/{id}/forms/{section}. An
// If-Match header makes the write conditional on the tracker version.
func (h *Handler) HandlePatchSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	id, ok := h.trackerID(w, r)
	if !ok {
		return
	}
	section := gate.Section(chi.URLParam(r, "section"))
	expected, err := parseIfMatch(r.Header.Get("If-Match"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	payload, err := httputil.DecodeJSON[staging.Fields](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.service.PatchSection(ctx, id, section, payload, expected)
	if err != nil {
		h.fail(ctx, w, "failed to patch section", err, "section", section.String())
		return
	}
	h.logger.InfoContext(ctx, "section committed",
		"request_id", requestID,
		"tracker_id", id.String(),
		"section", section.String(),
		"version", t.Version,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	w.Header().Set("ETag", etag(t.Version))
	httputil.WriteJSON(w, http.StatusOK, SectionResponse{
		Section: section,
		Data:    t.Section(section),
		Version: t.Version,
	})
}

// HandleChangeCompany handles POST /trackers/{id}/company.
func (h *Handler) HandleChangeCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.trackerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ChangeCompanyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	t, err := h.service.ChangeCompany(ctx, id, req.parsedCompanyID, req.Confirm)
	if err != nil {
		h.fail(ctx, w, "failed to change company", err)
		return
	}
	w.Header().Set("ETag", etag(t.Version))
	httputil.WriteJSON(w, http.StatusOK, t)
}

// HandleAdvance handles POST /trackers/{id}/advance.
func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.trackerID(w, r)
	if !ok {
		return
	}
	t, err := h.service.AdvanceStep(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to advance step", err)
		return
	}
	w.Header().Set("ETag", etag(t.Version))
	httputil.WriteJSON(w, http.StatusOK, t)
}

// HandleUpdateNotes handles PUT /trackers/{id}/notes.
func (h *Handler) HandleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.trackerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateNotesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	t, err := h.service.UpdateNotes(ctx, id, req.Notes)
	if err != nil {
		h.fail(ctx, w, "failed to update notes", err)
		return
	}
	w.Header().Set("ETag", etag(t.Version))
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) trackerID(w http.ResponseWriter, r *http.Request) (domain.TrackerID, bool) {
	id, err := domain.ParseTrackerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.TrackerID{}, false
	}
	return id, true
}

// fail logs server faults at error level and client faults at debug level,
// then writes the mapped response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.DebugContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
