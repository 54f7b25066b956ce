package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/datakraft/azurekit/pkg/azure"
	"github.com/datakraft/azurekit/pkg/config"
	"github.com/datakraft/azurekit/pkg/datafactory"
)

func newDataFactoryClient() (*datafactory.Client, error) {
	subscriptionID, err := cfg.Require(config.AzureSubscriptionID)
	if err != nil {
		return nil, err
	}
	resourceGroup, err := cfg.Require(config.AzureDataFactoryResourceGroup)
	if err != nil {
		return nil, err
	}
	factoryName, err := cfg.Require(config.AzureDataFactoryName)
	if err != nil {
		return nil, err
	}

	cred, err := azure.DefaultCredential()
	if err != nil {
		return nil, err
	}
	return datafactory.New(cred, subscriptionID, resourceGroup, factoryName, logger)
}

func adfCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adf",
		Short: "Data Factory pipeline operations",
	}

	var parameters map[string]string
	var wait bool
	var interval time.Duration

	run := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Start a pipeline run, optionally waiting for a terminal status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newDataFactoryClient()
			if err != nil {
				return err
			}

			params := make(map[string]any, len(parameters))
			for k, v := range parameters {
				params[k] = v
			}

			runID, err := client.CreatePipelineRun(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			fmt.Println(runID)

			if !wait {
				return nil
			}
			status, err := client.WaitForPipelineRun(cmd.Context(), runID, interval)
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	}
	run.Flags().StringToStringVarP(&parameters, "param", "p", nil, "pipeline parameter (key=value)")
	run.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the run to reach a terminal status")
	run.Flags().DurationVar(&interval, "interval", 10*time.Second, "polling interval when waiting")

	status := &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show the status of a pipeline run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newDataFactoryClient()
			if err != nil {
				return err
			}
			run, err := client.GetPipelineRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run.Status != nil {
				fmt.Println(*run.Status)
			}
			return nil
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <run-id>",
		Short: "Cancel a pipeline run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newDataFactoryClient()
			if err != nil {
				return err
			}
			return client.CancelPipelineRun(cmd.Context(), args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List pipelines in the factory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newDataFactoryClient()
			if err != nil {
				return err
			}
			pipelines, err := client.ListPipelines(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range pipelines {
				if p.Name != nil {
					fmt.Println(*p.Name)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(run, status, cancel, list)
	return cmd
}
