//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"driverdesk/pkg/domain"
	audit "driverdesk/pkg/platform/audit"
	"driverdesk/pkg/platform/audit/store/kafka"
	"driverdesk/pkg/testutil/containers"
)

func TestAppendProducesKeyedEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "audit-" + uuid.NewString()
	store, err := kafka.New(broker.Brokers, topic)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureTopic(ctx, 1, 1))

	event := audit.Event{
		Action:    audit.ActionCompanyChanged,
		TrackerID: domain.NewTrackerID(),
		CompanyID: domain.CompanyID(uuid.New()),
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, event.TrackerID.String(), string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, audit.ActionCompanyChanged, got.Action)
}
