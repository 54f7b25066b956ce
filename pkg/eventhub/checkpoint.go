package eventhub

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs/checkpoints"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

// NewCheckpointStore builds a blob-backed checkpoint store in the given
// container. A non-empty connection string takes precedence; otherwise
// containerURL is used with the credential, matching how the producer and
// consumer connect.
func NewCheckpointStore(containerURL, connectionString, containerName string, cred azcore.TokenCredential, logger log.FieldLogger) (azeventhubs.CheckpointStore, error) {
	var (
		client *container.Client
		err    error
	)

	if connectionString != "" {
		client, err = container.NewClientFromConnectionString(connectionString, containerName, nil)
	} else {
		client, err = container.NewClient(containerURL, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("building checkpoint container client: %w", err)
	}

	store, err := checkpoints.NewBlobStore(client, nil)
	if err != nil {
		return nil, fmt.Errorf("building blob checkpoint store: %w", err)
	}

	logger.Infof("initialized checkpoint store with container: %s", containerName)
	return store, nil
}

// partitionReceiver is the slice of ProcessorPartitionClient the
// checkpointed receive loop needs.
type partitionReceiver interface {
	ReceiveEvents(ctx context.Context, count int, options *azeventhubs.ReceiveEventsOptions) ([]*azeventhubs.ReceivedEventData, error)
	UpdateCheckpoint(ctx context.Context, event *azeventhubs.ReceivedEventData, options *azeventhubs.UpdateCheckpointOptions) error
}

// ReceiveCheckpointed consumes events from every owned partition through
// a processor, passing each body to the handler and recording a
// checkpoint after each handled event. Blocks until the context is
// cancelled or the handler errors.
func (c *Consumer) ReceiveCheckpointed(ctx context.Context, store azeventhubs.CheckpointStore, onEvent func([]byte) error) error {
	op := logging.Begin(c.log, "eventhub.receive_checkpointed", nil)

	processor, err := azeventhubs.NewProcessor(c.client, store, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "eventhub.receive_checkpointed", err))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			partition := processor.NextPartitionClient(ctx)
			if partition == nil {
				return
			}
			go func() {
				defer partition.Close(ctx)
				if err := c.pumpPartition(ctx, partition, onEvent); err != nil {
					c.log.WithError(err).WithField("partition", partition.PartitionID()).
						Error("stopping checkpointed receive")
					cancel()
				}
			}()
		}
	}()

	if err := processor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return op.Done(errs.E(errs.KindVendor, "eventhub.receive_checkpointed", err))
	}
	return op.Done(nil)
}

func (c *Consumer) pumpPartition(ctx context.Context, partition partitionReceiver, onEvent func([]byte) error) error {
	for {
		events, err := partition.ReceiveEvents(ctx, 100, nil)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return errs.E(errs.KindVendor, "eventhub.receive_checkpointed", err)
		}
		for _, event := range events {
			if err := onEvent(event.Body); err != nil {
				return err
			}
			if err := partition.UpdateCheckpoint(ctx, event, nil); err != nil {
				return errs.E(errs.KindVendor, "eventhub.receive_checkpointed", err)
			}
		}
	}
}
