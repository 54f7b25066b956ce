package eventhub

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePartition struct {
	batches      [][]*azeventhubs.ReceivedEventData
	calls        int
	checkpointed []*azeventhubs.ReceivedEventData
}

func (f *fakePartition) ReceiveEvents(_ context.Context, _ int, _ *azeventhubs.ReceiveEventsOptions) ([]*azeventhubs.ReceivedEventData, error) {
	if f.calls >= len(f.batches) {
		return nil, context.Canceled
	}
	batch := f.batches[f.calls]
	f.calls++
	return batch, nil
}

func (f *fakePartition) UpdateCheckpoint(_ context.Context, event *azeventhubs.ReceivedEventData, _ *azeventhubs.UpdateCheckpointOptions) error {
	f.checkpointed = append(f.checkpointed, event)
	return nil
}

func newTestConsumer() *Consumer {
	logger, _ := test.NewNullLogger()
	return &Consumer{log: logger, hub: "test-hub"}
}

func event(body string) *azeventhubs.ReceivedEventData {
	return &azeventhubs.ReceivedEventData{EventData: azeventhubs.EventData{Body: []byte(body)}}
}

func TestPumpPartitionCheckpointsEachEvent(t *testing.T) {
	partition := &fakePartition{
		batches: [][]*azeventhubs.ReceivedEventData{
			{event("one"), event("two")},
			{event("three")},
		},
	}

	var bodies []string
	err := newTestConsumer().pumpPartition(context.Background(), partition, func(body []byte) error {
		bodies = append(bodies, string(body))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three"}, bodies)
	require.Len(t, partition.checkpointed, 3)
	assert.Equal(t, []byte("three"), partition.checkpointed[2].Body)
}

func TestPumpPartitionStopsOnHandlerError(t *testing.T) {
	partition := &fakePartition{
		batches: [][]*azeventhubs.ReceivedEventData{
			{event("one"), event("two")},
		},
	}

	boom := errors.New("boom")
	err := newTestConsumer().pumpPartition(context.Background(), partition, func(body []byte) error {
		if string(body) == "two" {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)

	// Only the successfully handled event was checkpointed.
	require.Len(t, partition.checkpointed, 1)
	assert.Equal(t, []byte("one"), partition.checkpointed[0].Body)
}
