// Package eventhub wraps the Azure Event Hubs SDK for producing and
// consuming events.
package eventhub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

type Producer struct {
	log    log.FieldLogger
	hub    string
	client *azeventhubs.ProducerClient
}

// NewProducer connects to an event hub. A non-empty connection string
// takes precedence; otherwise the namespace is used with the given
// credential.
func NewProducer(namespace, eventHub, connectionString string, cred azcore.TokenCredential, logger log.FieldLogger) (*Producer, error) {
	var (
		client *azeventhubs.ProducerClient
		err    error
	)

	if connectionString != "" {
		client, err = azeventhubs.NewProducerClientFromConnectionString(connectionString, eventHub, nil)
	} else {
		client, err = azeventhubs.NewProducerClient(namespace, eventHub, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("building event hub producer: %w", err)
	}

	logger = logger.WithField("eventhub", eventHub)
	logger.Infof("initialized event hub producer for: %s", eventHub)

	return &Producer{log: logger, hub: eventHub, client: client}, nil
}

// SendEvent sends a single event. Non-byte payloads are JSON encoded.
func (p *Producer) SendEvent(ctx context.Context, event any, partitionKey string) error {
	return p.SendBatch(ctx, []any{event}, partitionKey)
}

// SendBatch sends a batch of events with an optional partition key.
func (p *Producer) SendBatch(ctx context.Context, events []any, partitionKey string) error {
	op := logging.Begin(p.log, "eventhub.send_batch", log.Fields{"events": len(events)})

	opts := &azeventhubs.EventDataBatchOptions{}
	if partitionKey != "" {
		opts.PartitionKey = &partitionKey
	}

	batch, err := p.client.NewEventDataBatch(ctx, opts)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "eventhub.send_batch", err))
	}

	for _, event := range events {
		body, err := encodeBody(event)
		if err != nil {
			return op.Done(err)
		}
		if err := batch.AddEventData(&azeventhubs.EventData{Body: body}, nil); err != nil {
			return op.Done(errs.E(errs.KindVendor, "eventhub.send_batch", err))
		}
	}

	if err := p.client.SendEventDataBatch(ctx, batch, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "eventhub.send_batch", err))
	}
	return op.Done(nil)
}

func (p *Producer) Close(ctx context.Context) error {
	p.log.Info("closing event hub producer")
	return p.client.Close(ctx)
}

func encodeBody(event any) ([]byte, error) {
	switch v := event.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		body, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding event body: %w", err)
		}
		return body, nil
	}
}
