package main

import (
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/spf13/cobra"

	"github.com/datakraft/azurekit/pkg/azure"
	"github.com/datakraft/azurekit/pkg/config"
	"github.com/datakraft/azurekit/pkg/eventhub"
)

// eventHubSettings resolves connection settings: a connection string wins
// when present, otherwise namespace plus default credential.
func eventHubSettings() (namespace, hub, connectionString string, cred azcore.TokenCredential, err error) {
	hub, err = cfg.Require(config.AzureEventHubName)
	if err != nil {
		return "", "", "", nil, err
	}

	connectionString = cfg.GetString(config.AzureEventHubConnectionString)
	if connectionString != "" {
		return "", hub, connectionString, nil, nil
	}

	namespace, err = cfg.Require(config.AzureEventHubNamespace)
	if err != nil {
		return "", "", "", nil, err
	}
	cred, err = azure.DefaultCredential()
	if err != nil {
		return "", "", "", nil, err
	}
	return namespace, hub, "", cred, nil
}

func eventhubCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eventhub",
		Short: "Event Hub operations",
	}

	var partitionKey string
	send := &cobra.Command{
		Use:   "send <json-event>...",
		Short: "Send one or more JSON events",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace, hub, connectionString, cred, err := eventHubSettings()
			if err != nil {
				return err
			}
			producer, err := eventhub.NewProducer(namespace, hub, connectionString, cred, logger)
			if err != nil {
				return err
			}
			defer producer.Close(cmd.Context())

			events := make([]any, 0, len(args))
			for _, arg := range args {
				var event map[string]any
				if err := json.Unmarshal([]byte(arg), &event); err != nil {
					return err
				}
				events = append(events, event)
			}
			return producer.SendBatch(cmd.Context(), events, partitionKey)
		},
	}
	send.Flags().StringVar(&partitionKey, "partition-key", "", "partition key for the batch")

	var (
		consumerGroup       string
		checkpointContainer string
	)
	receive := &cobra.Command{
		Use:   "receive",
		Short: "Print event bodies until interrupted, checkpointing to blob storage when a container is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace, hub, connectionString, cred, err := eventHubSettings()
			if err != nil {
				return err
			}
			consumer, err := eventhub.NewConsumer(namespace, hub, consumerGroup, connectionString, cred, logger)
			if err != nil {
				return err
			}
			defer consumer.Close(cmd.Context())

			onEvent := func(body []byte) error {
				fmt.Println(string(body))
				return nil
			}

			if checkpointContainer == "" {
				return consumer.Receive(cmd.Context(), "0", onEvent)
			}

			accountURL, err := cfg.StorageAccountURL("")
			if err != nil {
				return err
			}
			storageCred, err := azure.DefaultCredential()
			if err != nil {
				return err
			}
			store, err := eventhub.NewCheckpointStore(accountURL+"/"+checkpointContainer, "", checkpointContainer, storageCred, logger)
			if err != nil {
				return err
			}
			return consumer.ReceiveCheckpointed(cmd.Context(), store, onEvent)
		},
	}
	receive.Flags().StringVar(&consumerGroup, "consumer-group", "", "consumer group (defaults to $Default)")
	receive.Flags().StringVar(&checkpointContainer, "checkpoint-container", "", "blob container for checkpoints")

	cmd.AddCommand(send, receive)
	return cmd
}
