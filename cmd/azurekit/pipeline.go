package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/datakraft/azurekit/pkg/config"
	"github.com/datakraft/azurekit/pkg/databricks"
	"github.com/datakraft/azurekit/pkg/datafactory"
	"github.com/datakraft/azurekit/pkg/powerbi"
)

// pipelineCommand runs the full ingestion sequence: a Data Factory
// pipeline, a Databricks processing notebook, and a Power BI dataset
// refresh. Each stage must finish before the next starts.
func pipelineCommand() *cobra.Command {
	var (
		adfPipeline  string
		notebookPath string
		clusterID    string
		datasetID    string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the end-to-end ingestion pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			date := time.Now().Format("2006-01-02")

			adf, err := newDataFactoryClient()
			if err != nil {
				return err
			}

			logger.Info("step 1: running ingestion pipeline")
			runID, err := adf.CreatePipelineRun(ctx, adfPipeline, map[string]any{"date": date})
			if err != nil {
				return err
			}
			status, err := adf.WaitForPipelineRun(ctx, runID, 10*time.Second)
			if err != nil {
				return err
			}
			if status != datafactory.StatusSucceeded {
				return fmt.Errorf("ingestion pipeline %s finished with status %s", runID, status)
			}

			logger.Info("step 2: processing with databricks notebook")
			workspaceURL, err := cfg.Require(config.AzureDatabricksWorkspaceURL)
			if err != nil {
				return err
			}
			dbx, err := databricks.New(workspaceURL, cfg.GetString(config.AzureDatabricksToken), logger)
			if err != nil {
				return err
			}

			cluster := clusterID
			if cluster == "" {
				clusters, err := dbx.ListClusters(ctx)
				if err != nil {
					return err
				}
				if len(clusters) == 0 {
					return fmt.Errorf("no databricks clusters available")
				}
				cluster = clusters[0].ClusterId
			}

			result, err := dbx.ExecuteNotebook(ctx, notebookPath, cluster, map[string]string{
				"date":   date,
				"source": "ingestion",
			}, timeout)
			if err != nil {
				return err
			}
			if result.Status != "TERMINATED" {
				return fmt.Errorf("notebook run %d finished with status %s", result.RunID, result.Status)
			}

			logger.Info("step 3: refreshing powerbi dataset")
			creds, err := cfg.PowerBICredentials()
			if err != nil {
				return err
			}
			pbi, err := powerbi.New(ctx, powerbi.Credentials{
				ClientID:     creds.ClientID,
				ClientSecret: creds.ClientSecret,
				TenantID:     creds.TenantID,
				Username:     creds.Username,
				Password:     creds.Password,
			}, logger)
			if err != nil {
				return err
			}
			requestID, err := pbi.RefreshDataset(ctx, datasetID, "MailOnFailure")
			if err != nil {
				return err
			}

			logger.WithField("refresh_request_id", requestID).Info("pipeline complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&adfPipeline, "adf-pipeline", "IngestionPipeline", "Data Factory pipeline name")
	cmd.Flags().StringVar(&notebookPath, "notebook", "/Shared/ProcessingNotebook", "Databricks notebook path")
	cmd.Flags().StringVar(&clusterID, "cluster", "", "Databricks cluster id (defaults to the first cluster)")
	cmd.Flags().StringVar(&datasetID, "dataset", "", "Power BI dataset id to refresh")
	cmd.Flags().DurationVar(&timeout, "notebook-timeout", 30*time.Minute, "budget for the notebook run")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
