package dashboard

//go:generate mockgen -source=editor.go -destination=mocks/mocks.go -package=mocks RecordAPI,DraftStore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"driverdesk/internal/dashboard/mocks"
	"driverdesk/internal/drafts"
	"driverdesk/internal/onboarding/flow"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/internal/tracker/models"
	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
	"driverdesk/pkg/platform/sentinel"
)

// =============================================================================
// Section Editor Test Suite
// =============================================================================
// The editor is the only place where gates, edit mode, staging and the record
// API meet. Tests drive it against a mocked record API and draft store.

type EditorSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	api       *mocks.MockRecordAPI
	drafts    *mocks.MockDraftStore
	trackerID domain.TrackerID
	now       time.Time
	logger    *slog.Logger
}

func TestEditorSuite(t *testing.T) {
	suite.Run(t, new(EditorSuite))
}

func (s *EditorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.api = mocks.NewMockRecordAPI(s.ctrl)
	s.drafts = mocks.NewMockDraftStore(s.ctrl)
	s.trackerID = domain.NewTrackerID()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *EditorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EditorSuite) tracker(step flow.StepPath) *models.Tracker {
	return &models.Tracker{
		ID:        s.trackerID,
		Status:    models.Status{CurrentStep: step},
		Forms:     map[gate.Section]staging.Fields{},
		Version:   3,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

func (s *EditorSuite) expectLoad(t *models.Tracker, section gate.Section, data staging.Fields, sectionErr error) {
	s.api.EXPECT().FetchTracker(gomock.Any(), s.trackerID).Return(t, nil)
	s.api.EXPECT().FetchSection(gomock.Any(), s.trackerID, section).Return(data, sectionErr)
}

func (s *EditorSuite) open(section gate.Section, opts ...Option) *Editor {
	opts = append([]Option{WithLogger(s.logger), WithClock(func() time.Time { return s.now })}, opts...)
	e, err := Open(context.Background(), s.api, s.trackerID, section, opts...)
	s.Require().NoError(err)
	return e
}

func (s *EditorSuite) editMode() Option {
	return WithEditMode(gate.EditMode{Enabled: true})
}

// =============================================================================
// Open
// =============================================================================

func (s *EditorSuite) TestOpen() {
	s.Run("loads tracker and section", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{"licenseNumber": "D123"}, nil)

		e := s.open(gate.SectionLicenses)

		s.Equal(StateReady, e.State())
		s.Equal(gate.SectionLicenses, e.Section())
		s.Equal("D123", e.Value("licenseNumber"))
		s.False(e.IsDirty())
		s.False(e.Editable(), "edit mode starts off")
	})

	s.Run("section the driver has not reached", func() {
		s.expectLoad(s.tracker(flow.StepPrequalifications), gate.SectionDrugTest, nil,
			dErrors.New(dErrors.CodeUnauthorized, "driver has not completed this step"))

		e := s.open(gate.SectionDrugTest, s.editMode())

		s.Equal(StateStepNotReached, e.State())
		s.False(e.Editable())
		s.Nil(e.Value("anything"))
	})

	s.Run("fetch failure is returned", func() {
		s.api.EXPECT().FetchTracker(gomock.Any(), s.trackerID).
			Return(nil, dErrors.New(dErrors.CodeNetwork, "connection refused"))
		s.api.EXPECT().FetchSection(gomock.Any(), s.trackerID, gate.SectionLicenses).
			Return(staging.Fields{}, nil).AnyTimes()

		_, err := Open(context.Background(), s.api, s.trackerID, gate.SectionLicenses, WithLogger(s.logger))

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNetwork))
	})

	s.Run("unknown section", func() {
		_, err := Open(context.Background(), s.api, s.trackerID, gate.Section("payroll"))

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Staging
// =============================================================================

func (s *EditorSuite) TestStage() {
	s.Run("refused while edit mode is off", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		e := s.open(gate.SectionLicenses)

		err := e.Stage(context.Background(), staging.Fields{"licenseNumber": "X"})

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.False(e.IsDirty())
	})

	s.Run("refused when the gate is closed", func() {
		s.expectLoad(s.tracker(flow.StepPrequalifications), gate.SectionLicenses, staging.Fields{}, nil)
		e := s.open(gate.SectionLicenses, s.editMode())

		err := e.Stage(context.Background(), staging.Fields{"licenseNumber": "X"})

		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("staged values shadow the snapshot", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{"licenseNumber": "D123", "class": "A"}, nil)
		e := s.open(gate.SectionLicenses, s.editMode())

		s.Require().NoError(e.Stage(context.Background(), staging.Fields{"licenseNumber": "D999"}))

		s.True(e.IsDirty())
		s.Equal("D999", e.Value("licenseNumber"))
		s.Equal("A", e.Value("class"))
		s.Equal([]string{"licenseNumber"}, e.Changes())
		s.Equal(staging.Fields{"licenseNumber": "D999", "class": "A"}, e.Merged())
	})

	s.Run("edits survive turning edit mode off", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		e := s.open(gate.SectionLicenses, s.editMode())
		s.Require().NoError(e.Stage(context.Background(), staging.Fields{"class": "B"}))

		e.SetEditMode(gate.EditMode{})

		s.False(e.Editable())
		s.True(e.IsDirty())
		s.Equal("B", e.Value("class"))
	})
}

// =============================================================================
// Commit
// =============================================================================

func (s *EditorSuite) TestCommit() {
	ctx := context.Background()

	s.Run("clean session sends nothing", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{"class": "A"}, nil)
		e := s.open(gate.SectionLicenses, s.editMode())

		committed, err := e.Commit(ctx)

		s.Require().NoError(err)
		s.False(committed)
	})

	s.Run("sends the merged view and adopts the response", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{"class": "A"}, nil)
		e := s.open(gate.SectionLicenses, s.editMode())
		s.Require().NoError(e.Stage(ctx, staging.Fields{"licenseNumber": "D1"}))

		s.api.EXPECT().
			PatchSection(gomock.Any(), s.trackerID, gate.SectionLicenses, staging.Fields{"class": "A", "licenseNumber": "D1"}, int64(0)).
			Return(staging.Fields{"class": "A", "licenseNumber": "D1", "verified": false}, int64(4), nil)

		committed, err := e.Commit(ctx)

		s.Require().NoError(err)
		s.True(committed)
		s.False(e.IsDirty())
		s.Equal(false, e.Value("verified"))
		s.Equal(int64(4), e.Tracker().Version)
		s.Equal("D1", e.Tracker().Section(gate.SectionLicenses)["licenseNumber"])
	})

	s.Run("optimistic concurrency sends the loaded version", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		e := s.open(gate.SectionLicenses, s.editMode(), WithOptimisticConcurrency())
		s.Require().NoError(e.Stage(ctx, staging.Fields{"class": "C"}))

		s.api.EXPECT().
			PatchSection(gomock.Any(), s.trackerID, gate.SectionLicenses, gomock.Any(), int64(3)).
			Return(nil, int64(0), dErrors.New(dErrors.CodeConflict, "tracker was modified"))

		committed, err := e.Commit(ctx)

		s.Require().Error(err)
		s.False(committed)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.True(e.IsDirty(), "failed commit keeps staged edits")
		s.Equal("C", e.Value("class"))
	})

	s.Run("uncoded transport failure becomes a network error", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		e := s.open(gate.SectionLicenses, s.editMode())
		s.Require().NoError(e.Stage(ctx, staging.Fields{"class": "C"}))

		s.api.EXPECT().PatchSection(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, int64(0), errors.New("connection reset"))

		_, err := e.Commit(ctx)

		s.True(dErrors.HasCode(err, dErrors.CodeNetwork))
		s.True(e.IsDirty())
	})

	s.Run("refused when edit mode is off", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		e := s.open(gate.SectionLicenses, s.editMode())
		s.Require().NoError(e.Stage(ctx, staging.Fields{"class": "C"}))
		e.SetEditMode(gate.EditMode{})

		_, err := e.Commit(ctx)

		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *EditorSuite) TestCommitSafetyRows() {
	ctx := context.Background()
	complete := map[string]any{"date": "2024-01-01", "natureOfAccident": "rear-ended", "fatalities": "0", "injuries": "1"}

	s.Run("partial row is rejected before sending", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionAccidentsConvictions, staging.Fields{"accidents": []any{}}, nil)
		e := s.open(gate.SectionAccidentsConvictions, s.editMode())
		s.Require().NoError(e.Stage(ctx, staging.Fields{
			"accidents": []any{complete, map[string]any{"date": "2024-02-02"}},
		}))

		_, err := e.Commit(ctx)

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "Accident row 2")
		s.True(e.IsDirty())
	})

	s.Run("empty rows are pruned from the payload", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionAccidentsConvictions, staging.Fields{"accidents": []any{}}, nil)
		e := s.open(gate.SectionAccidentsConvictions, s.editMode())
		s.Require().NoError(e.Stage(ctx, staging.Fields{
			"accidents": []any{map[string]any{}, complete},
		}))

		want := staging.Fields{"accidents": []any{complete}}
		s.api.EXPECT().
			PatchSection(gomock.Any(), s.trackerID, gate.SectionAccidentsConvictions, want, int64(0)).
			Return(want, int64(4), nil)

		committed, err := e.Commit(ctx)

		s.Require().NoError(err)
		s.True(committed)
	})
}

func (s *EditorSuite) TestCommitInFlight() {
	ctx := context.Background()
	s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
	e := s.open(gate.SectionLicenses, s.editMode())
	s.Require().NoError(e.Stage(ctx, staging.Fields{"class": "A"}))

	entered := make(chan struct{})
	release := make(chan struct{})
	s.api.EXPECT().
		PatchSection(gomock.Any(), s.trackerID, gate.SectionLicenses, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.TrackerID, _ gate.Section, payload staging.Fields, _ int64) (staging.Fields, int64, error) {
			close(entered)
			<-release
			return payload, 4, nil
		})

	done := make(chan error, 1)
	go func() {
		_, err := e.Commit(ctx)
		done <- err
	}()
	<-entered

	_, err := e.Commit(ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	close(release)
	s.Require().NoError(<-done)
	s.False(e.IsDirty())
}

func (s *EditorSuite) TestEditorStaysLiveWhileCommitPending() {
	ctx := context.Background()
	s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{"class": "B"}, nil)
	e := s.open(gate.SectionLicenses, s.editMode())
	s.Require().NoError(e.Stage(ctx, staging.Fields{"class": "A"}))

	entered := make(chan struct{})
	release := make(chan struct{})
	var sent staging.Fields
	s.api.EXPECT().
		PatchSection(gomock.Any(), s.trackerID, gate.SectionLicenses, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.TrackerID, _ gate.Section, payload staging.Fields, _ int64) (staging.Fields, int64, error) {
			sent = payload
			close(entered)
			<-release
			return payload, 4, nil
		})

	done := make(chan error, 1)
	go func() {
		_, err := e.Commit(ctx)
		done <- err
	}()
	<-entered

	reads := make(chan any, 1)
	go func() {
		reads <- e.Value("class")
	}()
	select {
	case v := <-reads:
		s.Equal("A", v)
	case <-time.After(time.Second):
		s.FailNow("Value blocked while the commit request was pending")
	}
	s.True(e.IsDirty())
	s.Require().NoError(e.Stage(ctx, staging.Fields{"expiresOn": "2030-01-01"}))

	close(release)
	s.Require().NoError(<-done)

	s.NotContains(sent, "expiresOn")
	s.True(e.IsDirty(), "edit staged during the request must survive")
	s.Equal([]string{"expiresOn"}, e.Changes())
	s.Equal("A", e.Value("class"))
	s.Equal(int64(4), e.Tracker().Version)
}

func (s *EditorSuite) TestRestagedFieldSurvivesCommit() {
	ctx := context.Background()
	s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
	e := s.open(gate.SectionLicenses, s.editMode())
	s.Require().NoError(e.Stage(ctx, staging.Fields{"class": "A"}))

	entered := make(chan struct{})
	release := make(chan struct{})
	s.api.EXPECT().
		PatchSection(gomock.Any(), s.trackerID, gate.SectionLicenses, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.TrackerID, _ gate.Section, payload staging.Fields, _ int64) (staging.Fields, int64, error) {
			close(entered)
			<-release
			return payload, 4, nil
		})

	done := make(chan error, 1)
	go func() {
		_, err := e.Commit(ctx)
		done <- err
	}()
	<-entered
	s.Require().NoError(e.Stage(ctx, staging.Fields{"class": "C"}))
	close(release)
	s.Require().NoError(<-done)

	s.True(e.IsDirty())
	s.Equal("C", e.Value("class"))
}

// =============================================================================
// Drafts
// =============================================================================

func (s *EditorSuite) TestDrafts() {
	ctx := context.Background()
	key := drafts.Key{TrackerID: s.trackerID, Section: gate.SectionLicenses, AdminID: "admin-7"}

	s.Run("restores a saved draft on open", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{"class": "A"}, nil)
		s.drafts.EXPECT().Load(gomock.Any(), key).
			Return(&drafts.Draft{Changes: staging.Fields{"class": "B"}, SavedAt: s.now}, nil)

		e := s.open(gate.SectionLicenses, WithDrafts(s.drafts, "admin-7"))

		s.True(e.IsDirty())
		s.Equal("B", e.Value("class"))
	})

	s.Run("missing draft opens clean", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{"class": "A"}, nil)
		s.drafts.EXPECT().Load(gomock.Any(), key).Return(nil, sentinel.ErrNotFound)

		e := s.open(gate.SectionLicenses, WithDrafts(s.drafts, "admin-7"))

		s.False(e.IsDirty())
	})

	s.Run("draft store failure does not block the page", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		s.drafts.EXPECT().Load(gomock.Any(), key).Return(nil, errors.New("redis down"))

		e := s.open(gate.SectionLicenses, WithDrafts(s.drafts, "admin-7"), s.editMode())
		s.drafts.EXPECT().Save(gomock.Any(), key, gomock.Any(), s.now).Return(errors.New("redis down"))

		s.Require().NoError(e.Stage(ctx, staging.Fields{"class": "C"}))
		s.True(e.IsDirty())
	})

	s.Run("stage saves, commit deletes", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		s.drafts.EXPECT().Load(gomock.Any(), key).Return(nil, sentinel.ErrNotFound)
		e := s.open(gate.SectionLicenses, WithDrafts(s.drafts, "admin-7"), s.editMode())

		gomock.InOrder(
			s.drafts.EXPECT().Save(gomock.Any(), key, staging.Fields{"class": "C"}, s.now).Return(nil),
			s.api.EXPECT().PatchSection(gomock.Any(), s.trackerID, gate.SectionLicenses, gomock.Any(), int64(0)).
				Return(staging.Fields{"class": "C"}, int64(4), nil),
			s.drafts.EXPECT().Delete(gomock.Any(), key).Return(nil),
		)

		s.Require().NoError(e.Stage(ctx, staging.Fields{"class": "C"}))
		_, err := e.Commit(ctx)
		s.Require().NoError(err)
	})

	s.Run("discard deletes the draft", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		s.drafts.EXPECT().Load(gomock.Any(), key).
			Return(&drafts.Draft{Changes: staging.Fields{"class": "B"}}, nil)
		e := s.open(gate.SectionLicenses, WithDrafts(s.drafts, "admin-7"))
		s.drafts.EXPECT().Delete(gomock.Any(), key).Return(nil)

		e.Discard(ctx)

		s.False(e.IsDirty())
	})

	s.Run("no draft lookup for an unreached step", func() {
		s.expectLoad(s.tracker(flow.StepPrequalifications), gate.SectionLicenses, nil,
			dErrors.New(dErrors.CodeUnauthorized, "driver has not completed this step"))

		e := s.open(gate.SectionLicenses, WithDrafts(s.drafts, "admin-7"))

		s.Equal(StateStepNotReached, e.State())
	})
}

// =============================================================================
// Refresh, company change and progress
// =============================================================================

func (s *EditorSuite) TestRefreshKeepsStagedEdits() {
	ctx := context.Background()
	s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{"class": "A", "state": "OH"}, nil)
	e := s.open(gate.SectionLicenses, s.editMode())
	s.Require().NoError(e.Stage(ctx, staging.Fields{"class": "B"}))

	fresh := s.tracker(flow.StepDrugTest)
	fresh.Version = 9
	s.expectLoad(fresh, gate.SectionLicenses, staging.Fields{"class": "A", "state": "PA"}, nil)

	s.Require().NoError(e.Refresh(ctx))

	s.Equal("B", e.Value("class"))
	s.Equal("PA", e.Value("state"))
	s.Equal(int64(9), e.Tracker().Version)
}

func (s *EditorSuite) TestChangeCompany() {
	ctx := context.Background()
	companyID := domain.CompanyID(uuid.New())

	s.Run("requires confirmation", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		e := s.open(gate.SectionLicenses, s.editMode())

		err := e.ChangeCompany(ctx, companyID, false)

		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("requires edit mode", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		e := s.open(gate.SectionLicenses)

		err := e.ChangeCompany(ctx, companyID, true)

		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("adopts the returned tracker", func() {
		s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
		e := s.open(gate.SectionLicenses, s.editMode())
		moved := s.tracker(flow.StepDrugTest)
		moved.CompanyID = companyID
		moved.Version = 4
		s.api.EXPECT().ChangeCompany(gomock.Any(), s.trackerID, companyID).Return(moved, nil)

		s.Require().NoError(e.ChangeCompany(ctx, companyID, true))

		s.Equal(companyID, e.Tracker().CompanyID)
		s.Equal(int64(4), e.Tracker().Version)
	})
}

func (s *EditorSuite) TestProgress() {
	s.expectLoad(s.tracker(flow.StepDrugTest), gate.SectionLicenses, staging.Fields{}, nil)
	e := s.open(gate.SectionLicenses)

	p := e.Progress()

	s.Equal(6, p.MacroStep)
	s.Equal(gate.StateEditable, p.Gates[gate.SectionDrugTest])
	s.NotNil(p.Notices)
	s.True(e.Gates().Passed(gate.SectionLicenses))
}
