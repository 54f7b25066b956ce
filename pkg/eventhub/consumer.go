package eventhub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

type Consumer struct {
	log    log.FieldLogger
	hub    string
	client *azeventhubs.ConsumerClient
}

// NewConsumer connects to an event hub consumer group. A non-empty
// connection string takes precedence over namespace plus credential. An
// empty consumer group selects $Default.
func NewConsumer(namespace, eventHub, consumerGroup, connectionString string, cred azcore.TokenCredential, logger log.FieldLogger) (*Consumer, error) {
	if consumerGroup == "" {
		consumerGroup = azeventhubs.DefaultConsumerGroup
	}

	var (
		client *azeventhubs.ConsumerClient
		err    error
	)

	if connectionString != "" {
		client, err = azeventhubs.NewConsumerClientFromConnectionString(connectionString, eventHub, consumerGroup, nil)
	} else {
		client, err = azeventhubs.NewConsumerClient(namespace, eventHub, consumerGroup, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("building event hub consumer: %w", err)
	}

	logger = logger.WithFields(log.Fields{"eventhub": eventHub, "consumer_group": consumerGroup})
	logger.Infof("initialized event hub consumer for: %s, group: %s", eventHub, consumerGroup)

	return &Consumer{log: logger, hub: eventHub, client: client}, nil
}

// ReceiveBatch reads up to maxBatch events from one partition, waiting at
// most maxWait. Returns the events received so far when the wait expires.
func (c *Consumer) ReceiveBatch(ctx context.Context, partitionID string, maxBatch int, maxWait time.Duration) ([][]byte, error) {
	op := logging.Begin(c.log, "eventhub.receive_batch", log.Fields{"partition": partitionID})

	partition, err := c.client.NewPartitionClient(partitionID, &azeventhubs.PartitionClientOptions{
		StartPosition: azeventhubs.StartPosition{Latest: to.Ptr(true)},
	})
	if err != nil {
		return nil, op.Done(errs.E(errs.KindVendor, "eventhub.receive_batch", err))
	}
	defer partition.Close(ctx)

	recvCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	events, err := partition.ReceiveEvents(recvCtx, maxBatch, nil)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, op.Done(errs.E(errs.KindVendor, "eventhub.receive_batch", err))
	}

	bodies := make([][]byte, 0, len(events))
	for _, event := range events {
		bodies = append(bodies, event.Body)
	}

	_ = op.Done(nil)
	return bodies, nil
}

// Receive reads events from one partition and passes each body to the
// handler until the context is cancelled or the handler errors.
func (c *Consumer) Receive(ctx context.Context, partitionID string, onEvent func([]byte) error) error {
	op := logging.Begin(c.log, "eventhub.receive", log.Fields{"partition": partitionID})

	partition, err := c.client.NewPartitionClient(partitionID, &azeventhubs.PartitionClientOptions{
		StartPosition: azeventhubs.StartPosition{Latest: to.Ptr(true)},
	})
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "eventhub.receive", err))
	}
	defer partition.Close(ctx)

	for {
		events, err := partition.ReceiveEvents(ctx, 100, nil)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return op.Done(nil)
			}
			return op.Done(errs.E(errs.KindVendor, "eventhub.receive", err))
		}
		for _, event := range events {
			if err := onEvent(event.Body); err != nil {
				return op.Done(err)
			}
		}
	}
}

func (c *Consumer) Close(ctx context.Context) error {
	c.log.Info("closing event hub consumer")
	return c.client.Close(ctx)
}
