// Package dashboard composes the onboarding core into a per-page section
// editor: it loads a tracker snapshot and one section, derives gates and
// progress, holds the staged edits for that section and commits them through
// the record API.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"driverdesk/internal/drafts"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/notice"
	"driverdesk/internal/onboarding/progress"
	"driverdesk/internal/onboarding/rowset"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/internal/tracker/models"
	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
	"driverdesk/pkg/platform/sentinel"
)

// RecordAPI is the remote tracker record. Errors carry domain codes:
// Unauthorized for a section the driver has not reached, Network for
// transport failures.
type RecordAPI interface {
	FetchTracker(ctx context.Context, id domain.TrackerID) (*models.Tracker, error)
	FetchSection(ctx context.Context, id domain.TrackerID, section gate.Section) (staging.Fields, error)
	PatchSection(ctx context.Context, id domain.TrackerID, section gate.Section, payload staging.Fields, expectedVersion int64) (staging.Fields, int64, error)
	ChangeCompany(ctx context.Context, id domain.TrackerID, companyID domain.CompanyID) (*models.Tracker, error)
}

// DraftStore persists staged edits between page visits.
type DraftStore interface {
	Save(ctx context.Context, key drafts.Key, changes staging.Fields, now time.Time) error
	Load(ctx context.Context, key drafts.Key) (*drafts.Draft, error)
	Delete(ctx context.Context, key drafts.Key) error
}

// State says whether the section could be loaded.
type State string

const (
	StateReady State = "ready"
	// StateStepNotReached means the record API refused the section because
	// the driver has not got that far. The page shows a placeholder.
	StateStepNotReached State = "step_not_reached"
)

// Editor is one open section page. It is safe for concurrent use; a second
// Commit while one is in flight fails with Conflict. mu guards local state
// only and is never held across a record API or draft store call.
type Editor struct {
	api        RecordAPI
	trackerID  domain.TrackerID
	section    gate.Section
	notices    notice.Deriver
	drafts     DraftStore
	adminID    string
	optimistic bool
	logger     *slog.Logger
	clock      func() time.Time

	busy atomic.Bool
	// draftMu serializes draft writes. Lock order is draftMu, then mu.
	draftMu sync.Mutex

	mu      sync.Mutex
	mode    gate.EditMode
	tracker *models.Tracker
	state   State
	session *staging.Session
}

type Option func(*Editor)

// WithEditMode sets the initial edit switch. Editors start read-only.
func WithEditMode(mode gate.EditMode) Option {
	return func(e *Editor) {
		e.mode = mode
	}
}

// WithDrafts restores and saves unsaved edits for adminID.
func WithDrafts(store DraftStore, adminID string) Option {
	return func(e *Editor) {
		e.drafts = store
		e.adminID = adminID
	}
}

// WithOptimisticConcurrency sends the loaded tracker version with each
// commit so a concurrent write by someone else fails with Conflict.
func WithOptimisticConcurrency() Option {
	return func(e *Editor) {
		e.optimistic = true
	}
}

func WithLicenseWarning(d time.Duration) Option {
	return func(e *Editor) {
		e.notices = notice.New(d)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

func WithClock(clock func() time.Time) Option {
	return func(e *Editor) {
		e.clock = clock
	}
}

// Open loads the tracker and the section in parallel. A section the driver
// has not reached opens in StateStepNotReached rather than failing.
func Open(ctx context.Context, api RecordAPI, trackerID domain.TrackerID, section gate.Section, opts ...Option) (*Editor, error) {
	if !section.Valid() {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown section %q", section)
	}
	e := &Editor{
		api:       api,
		trackerID: trackerID,
		section:   section,
		notices:   notice.New(notice.DefaultLicenseWarning),
		logger:    slog.Default(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	t, data, state, err := e.fetch(ctx)
	if err != nil {
		return nil, err
	}
	e.tracker = t
	e.state = state
	e.session = staging.New(data)
	e.restoreDraft(ctx)
	return e, nil
}

func (e *Editor) fetch(ctx context.Context) (*models.Tracker, staging.Fields, State, error) {
	var (
		t     *models.Tracker
		data  staging.Fields
		state = StateReady
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = e.api.FetchTracker(gctx, e.trackerID)
		return err
	})
	g.Go(func() error {
		fields, err := e.api.FetchSection(gctx, e.trackerID, e.section)
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			state = StateStepNotReached
			return nil
		}
		data = fields
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, "", err
	}
	if data == nil {
		data = staging.Fields{}
	}
	return t, data, state, nil
}

// Section names the section being edited.
func (e *Editor) Section() gate.Section {
	return e.section
}

// State reports whether the section loaded.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Tracker returns a copy of the last loaded tracker.
func (e *Editor) Tracker() *models.Tracker {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Clone()
}

// Gates derives section gates from the loaded tracker.
func (e *Editor) Gates() gate.Gates {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Gates()
}

// Progress derives step position, percentages, gates and notices.
func (e *Editor) Progress() progress.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return progress.Derive(e.tracker, e.notices, e.clock())
}

// EditMode returns the current edit switch.
func (e *Editor) EditMode() gate.EditMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// SetEditMode flips the edit switch. Staged edits are kept.
func (e *Editor) SetEditMode(mode gate.EditMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = mode
}

// Editable reports whether edits may be staged and committed now.
func (e *Editor) Editable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editableLocked()
}

func (e *Editor) editableLocked() bool {
	return e.state == StateReady && gate.Editable(e.tracker.Gates(), e.mode, e.section)
}

// Value returns the staged value of field, or the snapshot value.
func (e *Editor) Value(field string) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Value(field)
}

// Merged returns snapshot values overlaid with staged edits.
func (e *Editor) Merged() staging.Fields {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Merged()
}

// IsDirty reports whether anything is staged.
func (e *Editor) IsDirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.IsDirty()
}

// Changes lists staged fields whose value differs from the snapshot.
func (e *Editor) Changes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Changes()
}

// Stage records edits. It is refused with Forbidden when the section is
// locked, not loaded, or edit mode is off.
func (e *Editor) Stage(ctx context.Context, partial staging.Fields) error {
	e.mu.Lock()
	if !e.editableLocked() {
		e.mu.Unlock()
		return dErrors.New(dErrors.CodeForbidden, "section is not editable")
	}
	e.session.Stage(partial)
	e.mu.Unlock()

	e.saveDraft(ctx)
	return nil
}

// Discard drops staged edits and any saved draft.
func (e *Editor) Discard(ctx context.Context) {
	e.mu.Lock()
	e.session.Discard()
	e.mu.Unlock()

	e.deleteDraft(ctx)
}

// Commit validates and sends the staged edits. committed is false when there
// was nothing to send. Staged edits survive any failure. The editor stays
// readable and stageable while the request is in flight; edits staged
// meanwhile are kept after the commit lands.
func (e *Editor) Commit(ctx context.Context) (committed bool, err error) {
	if !e.busy.CompareAndSwap(false, true) {
		return false, dErrors.New(dErrors.CodeConflict, "commit already in progress")
	}
	defer e.busy.Store(false)

	e.mu.Lock()
	if !e.editableLocked() {
		e.mu.Unlock()
		return false, dErrors.New(dErrors.CodeForbidden, "section is not editable")
	}
	var expected int64
	if e.optimistic {
		expected = e.tracker.Version
	}
	pending, err := e.session.Begin(e.prepare())
	e.mu.Unlock()
	if err != nil {
		e.logCommitFailure(ctx, err)
		return false, err
	}
	if pending == nil {
		return false, nil
	}

	data, version, err := e.api.PatchSection(ctx, e.trackerID, e.section, pending.Payload, expected)
	if err != nil {
		if _, ok := dErrors.As(err); !ok {
			err = dErrors.Wrap(err, dErrors.CodeNetwork, "failed to save changes")
		}
		e.logCommitFailure(ctx, err)
		return false, err
	}

	e.mu.Lock()
	e.session.Complete(pending, data)
	e.tracker.SetSection(e.section, e.session.Snapshot(), e.clock())
	if version > 0 {
		e.tracker.Version = version
	}
	dirty := e.session.IsDirty()
	e.mu.Unlock()

	if dirty {
		e.saveDraft(ctx)
	} else {
		e.deleteDraft(ctx)
	}
	return true, nil
}

func (e *Editor) logCommitFailure(ctx context.Context, err error) {
	e.logger.WarnContext(ctx, "section commit failed",
		"tracker_id", e.trackerID.String(),
		"section", e.section.String(),
		"code", string(dErrors.CodeOf(err)),
		"error", err,
	)
}

func (e *Editor) prepare() staging.PrepareFunc {
	if e.section == gate.SectionAccidentsConvictions {
		return rowset.Prepare(rowset.SafetyGroups...)
	}
	return nil
}

// Refresh reloads the tracker and section. Staged edits are kept and keep
// shadowing the new snapshot.
func (e *Editor) Refresh(ctx context.Context) error {
	t, data, state, err := e.fetch(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracker = t
	e.state = state
	e.session.Replace(data)
	return nil
}

// ChangeCompany moves the tracker to another company. confirm must be true;
// edit mode must be on.
func (e *Editor) ChangeCompany(ctx context.Context, companyID domain.CompanyID, confirm bool) error {
	if !confirm {
		return dErrors.New(dErrors.CodeValidation, "company change must be confirmed")
	}
	e.mu.Lock()
	enabled := e.mode.Enabled
	e.mu.Unlock()
	if !enabled {
		return dErrors.New(dErrors.CodeForbidden, "edit mode is off")
	}
	t, err := e.api.ChangeCompany(ctx, e.trackerID, companyID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.tracker = t
	e.mu.Unlock()
	return nil
}

func (e *Editor) draftKey() drafts.Key {
	return drafts.Key{TrackerID: e.trackerID, Section: e.section, AdminID: e.adminID}
}

func (e *Editor) restoreDraft(ctx context.Context) {
	if e.drafts == nil || e.state != StateReady {
		return
	}
	d, err := e.drafts.Load(ctx, e.draftKey())
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			e.logger.WarnContext(ctx, "failed to load draft",
				"tracker_id", e.trackerID.String(),
				"section", e.section.String(),
				"error", err,
			)
		}
		return
	}
	e.session.Stage(d.Changes)
}

func (e *Editor) saveDraft(ctx context.Context) {
	if e.drafts == nil {
		return
	}
	e.draftMu.Lock()
	defer e.draftMu.Unlock()
	e.mu.Lock()
	changes := e.session.Staged()
	e.mu.Unlock()
	if err := e.drafts.Save(ctx, e.draftKey(), changes, e.clock()); err != nil {
		e.logger.WarnContext(ctx, "failed to save draft",
			"tracker_id", e.trackerID.String(),
			"section", e.section.String(),
			"error", err,
		)
	}
}

func (e *Editor) deleteDraft(ctx context.Context) {
	if e.drafts == nil {
		return
	}
	e.draftMu.Lock()
	defer e.draftMu.Unlock()
	if err := e.drafts.Delete(ctx, e.draftKey()); err != nil {
		e.logger.WarnContext(ctx, "failed to delete draft",
			"tracker_id", e.trackerID.String(),
			"section", e.section.String(),
			"error", err,
		)
	}
}
