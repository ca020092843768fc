//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "ghostpost/pkg/platform/audit"
	"ghostpost/pkg/testutil/containers"
)

func TestSinkPublishesToTopic(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sink, err := NewSink([]string{broker.Broker}, "ghostpost.audit.test")
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.EnsureTopic(ctx, 1, 1))
	require.NoError(t, sink.EnsureTopic(ctx, 1, 1), "second ensure must tolerate an existing topic")

	event := audit.Event{Type: audit.EventReplayRejected, Subject: "deadbeef", Reason: "nonce spent"}
	require.NoError(t, sink.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics("ghostpost.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.NotEmpty(t, records)

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, audit.EventReplayRejected, got.Type)
	assert.Equal(t, "deadbeef", got.Subject)
	assert.Equal(t, []byte(audit.EventReplayRejected), records[0].Key)
}
