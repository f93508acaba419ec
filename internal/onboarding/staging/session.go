// Package staging overlays tentative edits on the last confirmed snapshot of
// a form section.
//
// A Session is created per page visit. Edit controls call Stage with the
// fields they own; Commit validates the merged view and hands it to the
// record API. Only a successful commit clears staged edits, so a failed
// network call can be retried without re-entering data.
//
// A Session is not safe for concurrent use.
package staging

import (
	"context"

	"github.com/google/go-cmp/cmp"

	dErrors "driverdesk/pkg/domain-errors"
)

// SubmitFunc sends the merged payload and returns the server's view of the
// section after the write.
type SubmitFunc func(ctx context.Context, payload Fields) (Fields, error)

// PrepareFunc validates the merged payload and may return a rewritten one
// (for example with empty rows pruned). Returning an error aborts the commit
// before any network call.
type PrepareFunc func(merged Fields) (Fields, error)

// Session holds one section's snapshot and staged edits.
type Session struct {
	snapshot Fields
	staged   Fields
}

// New starts a clean session over snapshot.
func New(snapshot Fields) *Session {
	return &Session{
		snapshot: snapshot.Clone(),
		staged:   Fields{},
	}
}

// Stage merges partial into the staged edits. Keys not in partial keep their
// staged values, so independent sub-forms never clobber each other. A key
// staged with a nil value still shadows the snapshot.
func (s *Session) Stage(partial Fields) {
	if s.staged == nil {
		s.staged = Fields{}
	}
	for k, v := range partial {
		s.staged[k] = cloneValue(v)
	}
}

// Unstage drops staged edits for the given keys.
func (s *Session) Unstage(keys ...string) {
	for _, k := range keys {
		delete(s.staged, k)
	}
}

// Value returns the staged value for field if it was ever staged, otherwise
// the snapshot value.
func (s *Session) Value(field string) any {
	if v, ok := s.staged[field]; ok {
		return v
	}
	return s.snapshot[field]
}

// IsStaged reports whether field has a pending edit, including an explicit nil.
func (s *Session) IsStaged(field string) bool {
	_, ok := s.staged[field]
	return ok
}

// IsDirty reports whether any edit is pending.
func (s *Session) IsDirty() bool {
	return len(s.staged) > 0
}

// Staged returns a copy of the pending edits.
func (s *Session) Staged() Fields {
	return s.staged.Clone()
}

// Snapshot returns a copy of the last confirmed server state.
func (s *Session) Snapshot() Fields {
	return s.snapshot.Clone()
}

// Merged returns the snapshot overlaid with staged edits.
func (s *Session) Merged() Fields {
	merged := s.snapshot.Clone()
	for k, v := range s.staged {
		merged[k] = cloneValue(v)
	}
	return merged
}

// Changes returns the staged keys whose value actually differs from the
// snapshot. A session can be dirty with no changes when an edit was typed and
// then reverted by hand.
func (s *Session) Changes() []string {
	var changed []string
	for _, k := range s.staged.Keys() {
		prev, existed := s.snapshot[k]
		if !existed || !cmp.Equal(prev, s.staged[k]) {
			changed = append(changed, k)
		}
	}
	return changed
}

// Discard drops every staged edit.
func (s *Session) Discard() {
	s.staged = Fields{}
}

// Replace installs a freshly fetched snapshot. Staged edits are kept and keep
// shadowing the new snapshot.
func (s *Session) Replace(snapshot Fields) {
	s.snapshot = snapshot.Clone()
}

// Pending is a validated payload on its way to the record API.
type Pending struct {
	Payload Fields
	sent    Fields
}

// Begin validates the merged view and returns what to send. It returns nil
// for a clean session. The session is not locked in between Begin and
// Complete; edits staged meanwhile survive Complete.
func (s *Session) Begin(prepare ...PrepareFunc) (*Pending, error) {
	if !s.IsDirty() {
		return nil, nil
	}

	payload := s.Merged()
	for _, p := range prepare {
		if p == nil {
			continue
		}
		var err error
		payload, err = p(payload)
		if err != nil {
			if _, ok := dErrors.As(err); !ok {
				err = dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
			}
			return nil, err
		}
	}
	return &Pending{Payload: payload, sent: s.Staged()}, nil
}

// Complete installs the server's response for p. A nil fresh means the
// server echoed the payload. Staged keys whose value is unchanged since Begin
// are cleared.
func (s *Session) Complete(p *Pending, fresh Fields) {
	if fresh == nil {
		fresh = p.Payload
	}
	s.snapshot = fresh.Clone()
	for k, v := range p.sent {
		if cur, ok := s.staged[k]; ok && cmp.Equal(cur, v) {
			delete(s.staged, k)
		}
	}
}

// Commit sends the merged view when the session is dirty. committed is false
// for a clean session. On success the snapshot becomes the server's response
// and staged edits are cleared; on any failure staged edits are untouched.
func (s *Session) Commit(ctx context.Context, submit SubmitFunc, prepare ...PrepareFunc) (committed bool, err error) {
	p, err := s.Begin(prepare...)
	if err != nil || p == nil {
		return false, err
	}

	fresh, err := submit(ctx, p.Payload)
	if err != nil {
		if _, ok := dErrors.As(err); !ok {
			err = dErrors.Wrap(err, dErrors.CodeNetwork, "failed to save changes")
		}
		return false, err
	}
	s.Complete(p, fresh)
	return true, nil
}
