package staging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "driverdesk/pkg/domain-errors"
)

type SessionSuite struct {
	suite.Suite
	ctx      context.Context
	snapshot Fields
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.snapshot = Fields{
		"firstName": "Ana",
		"lastName":  "Silva",
		"phone":     "555-0100",
	}
}

// echoSubmit returns the payload as the server view and records it.
func echoSubmit(sent *Fields) SubmitFunc {
	return func(_ context.Context, payload Fields) (Fields, error) {
		*sent = payload
		return payload, nil
	}
}

func (s *SessionSuite) TestStageMerges() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"a": 1})
	sess.Stage(Fields{"b": 2})

	s.Equal(1, sess.Value("a"))
	s.Equal(2, sess.Value("b"))
	s.Equal("Ana", sess.Value("firstName"))
}

func (s *SessionSuite) TestExplicitNilShadowsSnapshot() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"phone": nil})

	s.Nil(sess.Value("phone"))
	s.True(sess.IsStaged("phone"))
	s.False(sess.IsStaged("firstName"))
	s.Equal("555-0100", sess.Snapshot()["phone"])
}

func (s *SessionSuite) TestDirtiness() {
	s.Run("clean after construction", func() {
		s.False(New(s.snapshot).IsDirty())
	})

	s.Run("dirty after a non-empty stage", func() {
		sess := New(s.snapshot)
		sess.Stage(Fields{"phone": "555-0199"})
		s.True(sess.IsDirty())
	})

	s.Run("empty stage keeps the session clean", func() {
		sess := New(s.snapshot)
		sess.Stage(Fields{})
		s.False(sess.IsDirty())
	})

	s.Run("clean after discard", func() {
		sess := New(s.snapshot)
		sess.Stage(Fields{"phone": "555-0199"})
		sess.Discard()
		s.False(sess.IsDirty())
		s.Equal("555-0100", sess.Value("phone"))
	})

	s.Run("clean after unstaging the only key", func() {
		sess := New(s.snapshot)
		sess.Stage(Fields{"phone": "555-0199"})
		sess.Unstage("phone")
		s.False(sess.IsDirty())
	})
}

func (s *SessionSuite) TestChanges() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"firstName": "Ana", "phone": "555-0199", "email": "a@example.com"})

	s.True(sess.IsDirty())
	s.Equal([]string{"email", "phone"}, sess.Changes())
}

func (s *SessionSuite) TestCommitCleanIsNoop() {
	sess := New(s.snapshot)
	called := false
	committed, err := sess.Commit(s.ctx, func(context.Context, Fields) (Fields, error) {
		called = true
		return nil, nil
	})
	s.NoError(err)
	s.False(committed)
	s.False(called)
}

func (s *SessionSuite) TestCommitSendsUnionOfSubForms() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"firstName": "Ana Maria"})
	sess.Stage(Fields{"phone": "555-0199"})

	var sent Fields
	committed, err := sess.Commit(s.ctx, echoSubmit(&sent))
	s.Require().NoError(err)
	s.True(committed)

	s.Equal("Ana Maria", sent["firstName"])
	s.Equal("555-0199", sent["phone"])
	s.Equal("Silva", sent["lastName"])
	s.False(sess.IsDirty())
	s.Equal("Ana Maria", sess.Snapshot()["firstName"])
}

func (s *SessionSuite) TestCommitUsesServerResponse() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"phone": "555-0199"})

	committed, err := sess.Commit(s.ctx, func(_ context.Context, payload Fields) (Fields, error) {
		fresh := payload.Clone()
		fresh["updatedBy"] = "server"
		return fresh, nil
	})
	s.Require().NoError(err)
	s.True(committed)
	s.Equal("server", sess.Value("updatedBy"))
}

func (s *SessionSuite) TestValidationFailureSkipsSubmit() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"phone": ""})

	called := false
	_, err := sess.Commit(s.ctx,
		func(context.Context, Fields) (Fields, error) {
			called = true
			return nil, nil
		},
		func(Fields) (Fields, error) {
			return nil, dErrors.New(dErrors.CodeValidation, "phone is required")
		},
	)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.False(called)
	s.True(sess.IsDirty())
}

func (s *SessionSuite) TestPrepareRewritesPayload() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"scratch": "x"})

	var sent Fields
	_, err := sess.Commit(s.ctx, echoSubmit(&sent), func(merged Fields) (Fields, error) {
		delete(merged, "scratch")
		return merged, nil
	})
	s.Require().NoError(err)
	s.NotContains(sent, "scratch")
}

func (s *SessionSuite) TestSubmitFailureKeepsStagedEdits() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"phone": "555-0199"})

	_, err := sess.Commit(s.ctx, func(context.Context, Fields) (Fields, error) {
		return nil, errors.New("connection reset")
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNetwork))
	s.True(sess.IsDirty())
	s.Equal("555-0199", sess.Value("phone"))
	s.Equal("555-0100", sess.Snapshot()["phone"])

	var sent Fields
	committed, err := sess.Commit(s.ctx, echoSubmit(&sent))
	s.Require().NoError(err)
	s.True(committed)
	s.Equal("555-0199", sent["phone"])
}

func (s *SessionSuite) TestSubmitDomainErrorPassesThrough() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"phone": "555-0199"})

	_, err := sess.Commit(s.ctx, func(context.Context, Fields) (Fields, error) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "driver has not completed this step")
	})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *SessionSuite) TestSnapshotIsIsolatedFromCaller() {
	rows := []any{map[string]any{"date": "2024-01-01"}}
	snap := Fields{"accidents": rows}
	sess := New(snap)

	rows[0].(map[string]any)["date"] = "mutated"
	got := sess.Value("accidents").([]any)
	s.Equal("2024-01-01", got[0].(map[string]any)["date"])
}

func (s *SessionSuite) TestReplaceKeepsStagedEdits() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"phone": "555-0199"})
	sess.Replace(Fields{"phone": "555-0111", "lastName": "Costa"})

	s.Equal("555-0199", sess.Value("phone"))
	s.Equal("Costa", sess.Value("lastName"))
	s.True(sess.IsDirty())
}

func (s *SessionSuite) TestZeroValueSessionStages() {
	var sess Session
	s.NotPanics(func() {
		sess.Stage(Fields{"phone": "555-0199"})
	})
	s.True(sess.IsDirty())
	s.Equal("555-0199", sess.Value("phone"))
}

func (s *SessionSuite) TestCompleteKeepsEditsStagedAfterBegin() {
	sess := New(s.snapshot)
	sess.Stage(Fields{"phone": "555-0199", "lastName": "Costa"})

	pending, err := sess.Begin()
	s.Require().NoError(err)
	s.Require().NotNil(pending)

	sess.Stage(Fields{"lastName": "Souza", "email": "ana@example.com"})
	sess.Complete(pending, pending.Payload)

	s.False(sess.IsStaged("phone"))
	s.Equal("555-0199", sess.Snapshot()["phone"])
	s.Equal("Souza", sess.Value("lastName"))
	s.Equal("Costa", sess.Snapshot()["lastName"])
	s.Equal([]string{"email", "lastName"}, sess.Changes())
}

func (s *SessionSuite) TestBeginOnCleanSession() {
	pending, err := New(s.snapshot).Begin()
	s.Require().NoError(err)
	s.Nil(pending)
}

func (s *SessionSuite) TestCloneKeepsNestedNil() {
	var address map[string]any
	var rows []any
	f := Fields{"address": address, "accidents": rows, "name": nil}

	got := f.Clone()

	s.Require().Contains(got, "address")
	s.Nil(got["address"])
	s.IsType(map[string]any(nil), got["address"])
	s.Nil(got["accidents"])
	s.IsType([]any(nil), got["accidents"])
	s.Nil(got["name"])
	s.Equal(Fields{}, Fields(nil).Clone())
}
