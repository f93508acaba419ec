// Package drafts keeps unsaved section edits in Redis so an administrator can
// leave a page and come back to the same staged changes.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/pkg/domain"
	"driverdesk/pkg/platform/sentinel"
)

// DefaultTTL is how long an untouched draft survives.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "driverdesk:draft:"

// Key identifies one administrator's draft of one section.
type Key struct {
	TrackerID domain.TrackerID
	Section   gate.Section
	AdminID   string
}

func (k Key) redisKey() string {
	return keyPrefix + k.TrackerID.String() + ":" + string(k.Section) + ":" + k.AdminID
}

// Draft is the persisted form of staged changes.
type Draft struct {
	Changes staging.Fields `json:"changes"`
	SavedAt time.Time      `json:"saved_at"`
}

// RedisStore stores drafts as JSON strings with a sliding TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore builds a store; a non-positive ttl uses DefaultTTL.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Save replaces the draft for key and resets its TTL. An empty change set
// deletes the draft.
func (s *RedisStore) Save(ctx context.Context, key Key, changes staging.Fields, now time.Time) error {
	if len(changes) == 0 {
		return s.Delete(ctx, key)
	}
	raw, err := json.Marshal(Draft{Changes: changes, SavedAt: now})
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, key.redisKey(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Load returns the draft for key or sentinel.ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, key Key) (*Draft, error) {
	raw, err := s.client.Get(ctx, key.redisKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if d.Changes == nil {
		d.Changes = staging.Fields{}
	}
	return &d, nil
}

// Delete removes the draft for key. Deleting a missing draft is not an error.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.redisKey()).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
