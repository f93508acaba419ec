// Package service implements the tracker record operations: reads with
// derived progress, gated section writes, company transfer, step advancement
// and notes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"driverdesk/internal/onboarding/flow"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/notice"
	"driverdesk/internal/onboarding/progress"
	"driverdesk/internal/onboarding/rowset"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/internal/tracker/metrics"
	"driverdesk/internal/tracker/models"
	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
	audit "driverdesk/pkg/platform/audit"
	"driverdesk/pkg/platform/sentinel"
	"driverdesk/pkg/requestcontext"
)

// maxWriteAttempts bounds the reload-and-reapply loop for unversioned writes.
const maxWriteAttempts = 3

type TrackerStore interface {
	Create(ctx context.Context, t *models.Tracker) error
	FindByID(ctx context.Context, id domain.TrackerID) (*models.Tracker, error)
	ListByCompany(ctx context.Context, companyID domain.CompanyID) ([]*models.Tracker, error)
	ListByIDs(ctx context.Context, ids []domain.TrackerID) ([]*models.Tracker, error)
	Update(ctx context.Context, t *models.Tracker, expectedVersion int64) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// TrackerView pairs a tracker snapshot with its derived progress.
type TrackerView struct {
	Tracker  *models.Tracker   `json:"tracker"`
	Progress progress.Progress `json:"progress"`
}

// ListFilter selects trackers by company or by explicit ids. Exactly one
// must be set.
type ListFilter struct {
	CompanyID domain.CompanyID
	IDs       []domain.TrackerID
}

// Service orchestrates tracker reads and writes.
type Service struct {
	trackers       TrackerStore
	notices        notice.Deriver
	preparers      map[gate.Section]staging.PrepareFunc
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLicenseWarning sets how far ahead license expiry is flagged.
func WithLicenseWarning(d time.Duration) Option {
	return func(s *Service) {
		s.notices = notice.New(d)
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(trackers TrackerStore, opts ...Option) *Service {
	s := &Service{
		trackers: trackers,
		notices:  notice.New(notice.DefaultLicenseWarning),
		preparers: map[gate.Section]staging.PrepareFunc{
			gate.SectionAccidentsConvictions: rowset.Prepare(rowset.SafetyGroups...),
		},
		logger: slog.Default(),
		tracer: otel.Tracer("driverdesk/internal/tracker/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTracker starts a tracker for a driver at the first step of the flow.
func (s *Service) CreateTracker(ctx context.Context, companyID domain.CompanyID, needsFlatbedTraining bool) (*models.Tracker, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.create")
	defer span.End()

	t, err := models.NewTracker(domain.NewTrackerID(), companyID, needsFlatbedTraining, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, recordSpanError(span, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err)))
		}
		return nil, recordSpanError(span, err)
	}
	if err := s.trackers.Create(ctx, t); err != nil {
		return nil, recordSpanError(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tracker"))
	}
	span.SetAttributes(attribute.String("tracker_id", t.ID.String()))

	s.emit(ctx, audit.Event{
		Action:    audit.ActionTrackerCreated,
		TrackerID: t.ID,
		CompanyID: t.CompanyID,
		Details:   map[string]string{"current_step": t.Status.CurrentStep.String()},
	})
	s.metrics.IncrementTrackersCreated()
	return t, nil
}

// ListTrackers returns trackers matching the filter, oldest first.
func (s *Service) ListTrackers(ctx context.Context, filter ListFilter) ([]*models.Tracker, error) {
	start := time.Now()
	defer s.metrics.ObserveFetch("list", start)

	var (
		list []*models.Tracker
		err  error
	)
	switch {
	case len(filter.IDs) > 0 && !filter.CompanyID.IsNil():
		return nil, dErrors.New(dErrors.CodeBadRequest, "filter by company or by ids, not both")
	case len(filter.IDs) > 0:
		list, err = s.trackers.ListByIDs(ctx, filter.IDs)
	case !filter.CompanyID.IsNil():
		list, err = s.trackers.ListByCompany(ctx, filter.CompanyID)
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "company_id or ids is required")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list trackers")
	}
	return list, nil
}

// GetTracker loads a tracker and derives its progress as of the request time.
func (s *Service) GetTracker(ctx context.Context, id domain.TrackerID) (*TrackerView, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.get", trace.WithAttributes(attribute.String("tracker_id", id.String())))
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveFetch("tracker", start)

	t, err := s.load(ctx, id)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	return &TrackerView{Tracker: t, Progress: progress.Derive(t, s.notices, requestcontext.Now(ctx))}, nil
}

// GetSection returns one section's data. A section the driver has not
// reached yet is reported as Unauthorized so callers can show a
// "not reached" placeholder.
func (s *Service) GetSection(ctx context.Context, id domain.TrackerID, section gate.Section) (staging.Fields, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.get_section", trace.WithAttributes(
		attribute.String("tracker_id", id.String()),
		attribute.String("section", section.String()),
	))
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveFetch("section", start)

	if !section.Valid() {
		return nil, recordSpanError(span, dErrors.Newf(dErrors.CodeNotFound, "unknown section %q", section))
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	if !t.Gates().Open(section) {
		return nil, recordSpanError(span, dErrors.New(dErrors.CodeUnauthorized, "driver has not completed this step"))
	}
	return t.Section(section), nil
}

// PatchSection merges payload into a section and persists it. Keys in
// payload replace stored keys; an explicit null clears one. When
// expectedVersion is positive the write fails with Conflict unless it
// matches the stored version.
func (s *Service) PatchSection(ctx context.Context, id domain.TrackerID, section gate.Section, payload staging.Fields, expectedVersion int64) (*models.Tracker, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.patch_section", trace.WithAttributes(
		attribute.String("tracker_id", id.String()),
		attribute.String("section", section.String()),
		attribute.Int64("expected_version", expectedVersion),
	))
	defer span.End()

	if !section.Valid() {
		return nil, recordSpanError(span, dErrors.Newf(dErrors.CodeNotFound, "unknown section %q", section))
	}
	if len(payload) == 0 {
		return nil, recordSpanError(span, dErrors.New(dErrors.CodeValidation, "payload must not be empty"))
	}

	now := requestcontext.Now(ctx)
	t, err := s.mutate(ctx, id, expectedVersion, func(t *models.Tracker) error {
		if !t.Gates().Open(section) {
			return dErrors.New(dErrors.CodeUnauthorized, "driver has not completed this step")
		}
		merged := t.Section(section)
		if merged == nil {
			merged = staging.Fields{}
		}
		for k, v := range payload.Clone() {
			merged[k] = v
		}
		if prepare, ok := s.preparers[section]; ok {
			prepared, err := prepare(merged)
			if err != nil {
				if _, coded := dErrors.As(err); !coded {
					return dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
				}
				return err
			}
			merged = prepared
		}
		t.SetSection(section, merged, now)
		return nil
	})
	if err != nil {
		s.metrics.IncrementSectionCommit(section.String(), commitOutcome(err))
		return nil, recordSpanError(span, err)
	}
	s.metrics.IncrementSectionCommit(section.String(), "ok")

	s.emit(ctx, audit.Event{
		Action:    audit.ActionSectionCommitted,
		TrackerID: t.ID,
		CompanyID: t.CompanyID,
		Section:   section.String(),
		Details:   map[string]string{"fields": strings.Join(payload.Keys(), ",")},
	})
	return t, nil
}

// ChangeCompany moves a tracker to another company. The caller must confirm
// explicitly since the tracker disappears from the current company's list.
func (s *Service) ChangeCompany(ctx context.Context, id domain.TrackerID, companyID domain.CompanyID, confirm bool) (*models.Tracker, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.change_company", trace.WithAttributes(attribute.String("tracker_id", id.String())))
	defer span.End()

	if !confirm {
		return nil, recordSpanError(span, dErrors.New(dErrors.CodeValidation, "company change must be confirmed"))
	}

	var previous domain.CompanyID
	now := requestcontext.Now(ctx)
	t, err := s.mutate(ctx, id, 0, func(t *models.Tracker) error {
		previous = t.CompanyID
		return t.ChangeCompany(companyID, now)
	})
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	s.logger.InfoContext(ctx, "tracker company changed",
		"tracker_id", t.ID.String(),
		"from_company_id", previous.String(),
		"to_company_id", companyID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionCompanyChanged,
		TrackerID: t.ID,
		CompanyID: t.CompanyID,
		Details:   map[string]string{"from_company_id": previous.String()},
	})
	return t, nil
}

// AdvanceStep moves the tracker one fine step forward, or marks it completed
// from the last step.
func (s *Service) AdvanceStep(ctx context.Context, id domain.TrackerID) (*models.Tracker, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.advance", trace.WithAttributes(attribute.String("tracker_id", id.String())))
	defer span.End()

	var from flow.StepPath
	now := requestcontext.Now(ctx)
	t, err := s.mutate(ctx, id, 0, func(t *models.Tracker) error {
		from = t.Status.CurrentStep
		if err := t.Advance(now); err != nil {
			return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
		}
		return nil
	})
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	to := t.Status.CurrentStep.String()
	if t.Status.Completed {
		to = "COMPLETED"
	}
	s.metrics.IncrementStepAdvance(to)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionStepAdvanced,
		TrackerID: t.ID,
		CompanyID: t.CompanyID,
		Details:   map[string]string{"from": from.String(), "to": to},
	})
	return t, nil
}

// UpdateNotes replaces the tracker's free-text notes.
func (s *Service) UpdateNotes(ctx context.Context, id domain.TrackerID, notes string) (*models.Tracker, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.update_notes", trace.WithAttributes(attribute.String("tracker_id", id.String())))
	defer span.End()

	now := requestcontext.Now(ctx)
	t, err := s.mutate(ctx, id, 0, func(t *models.Tracker) error {
		t.Notes = notes
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionNotesUpdated,
		TrackerID: t.ID,
		CompanyID: t.CompanyID,
	})
	return t, nil
}

func (s *Service) load(ctx context.Context, id domain.TrackerID) (*models.Tracker, error) {
	t, err := s.trackers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tracker not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tracker")
	}
	return t, nil
}

// mutate loads, applies and writes a tracker under the store's version
// check. With expectedVersion set, any version mismatch is a Conflict.
// Without it, a lost race reloads and reapplies so the last writer wins.
func (s *Service) mutate(ctx context.Context, id domain.TrackerID, expectedVersion int64, apply func(t *models.Tracker) error) (*models.Tracker, error) {
	for attempt := 1; ; attempt++ {
		t, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if expectedVersion > 0 && t.Version != expectedVersion {
			return nil, dErrors.Newf(dErrors.CodeConflict, "tracker was modified (version %d, expected %d)", t.Version, expectedVersion)
		}
		if err := apply(t); err != nil {
			return nil, err
		}

		err = s.trackers.Update(ctx, t, t.Version)
		switch {
		case err == nil:
			return t, nil
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "tracker not found")
		case errors.Is(err, sentinel.ErrConflict):
			if expectedVersion > 0 || attempt >= maxWriteAttempts {
				return nil, dErrors.New(dErrors.CodeConflict, "tracker was modified concurrently")
			}
			s.logger.DebugContext(ctx, "tracker write lost race, retrying",
				"tracker_id", id.String(),
				"attempt", attempt,
			)
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save tracker")
		}
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.ActorID = requestcontext.AdminID(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.Timestamp = requestcontext.Now(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", event.Action,
			"tracker_id", event.TrackerID.String(),
			"error", err,
		)
	}
}

func commitOutcome(err error) string {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeUnauthorized:
		return "rejected"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func recordSpanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, dErrors.MessageOf(err))
	return err
}
