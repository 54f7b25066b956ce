// Package databricks wraps the Databricks workspace SDK for cluster, job,
// and notebook operations.
package databricks

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/databricks/databricks-sdk-go"
	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/databricks/databricks-sdk-go/service/jobs"
	"github.com/databricks/databricks-sdk-go/service/workspace"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

const runPollInterval = 10 * time.Second

type clustersAPI interface {
	Create(ctx context.Context, request compute.CreateCluster) (*compute.WaitGetClusterRunning[compute.CreateClusterResponse], error)
	Start(ctx context.Context, request compute.StartCluster) (*compute.WaitGetClusterRunning[struct{}], error)
	Delete(ctx context.Context, request compute.DeleteCluster) (*compute.WaitGetClusterTerminated[struct{}], error)
	Get(ctx context.Context, request compute.GetClusterRequest) (*compute.ClusterDetails, error)
	ListAll(ctx context.Context, request compute.ListClustersRequest) ([]compute.ClusterDetails, error)
}

type jobsAPI interface {
	Create(ctx context.Context, request jobs.CreateJob) (*jobs.CreateResponse, error)
	RunNow(ctx context.Context, request jobs.RunNow) (*jobs.WaitGetRunJobTerminatedOrSkipped[jobs.RunNowResponse], error)
	GetRun(ctx context.Context, request jobs.GetRunRequest) (*jobs.Run, error)
	CancelRun(ctx context.Context, request jobs.CancelRun) (*jobs.WaitGetRunJobTerminatedOrSkipped[struct{}], error)
	Submit(ctx context.Context, request jobs.SubmitRun) (*jobs.WaitGetRunJobTerminatedOrSkipped[jobs.SubmitRunResponse], error)
}

type workspaceAPI interface {
	Import(ctx context.Context, request workspace.Import) error
}

type Client struct {
	log          log.FieldLogger
	workspaceURL string
	pollInterval time.Duration

	clusters  clustersAPI
	jobs      jobsAPI
	workspace workspaceAPI
}

// New builds a client for the given workspace. An empty token selects
// Azure AD authentication resolved from the environment.
func New(workspaceURL, token string, logger log.FieldLogger) (*Client, error) {
	cfg := &databricks.Config{Host: workspaceURL}
	if token != "" {
		cfg.Token = token
	}

	w, err := databricks.NewWorkspaceClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("building databricks workspace client: %w", err)
	}

	logger = logger.WithField("workspace", workspaceURL)
	logger.Infof("initialized databricks client for workspace: %s", workspaceURL)

	return &Client{
		log:          logger,
		workspaceURL: workspaceURL,
		pollInterval: runPollInterval,
		clusters:     w.Clusters,
		jobs:         w.Jobs,
		workspace:    w.Workspace,
	}, nil
}

// CreateCluster creates a cluster and returns its ID without waiting for
// it to reach RUNNING.
func (c *Client) CreateCluster(ctx context.Context, name, sparkVersion, nodeTypeID string, numWorkers, autoterminationMinutes int) (string, error) {
	op := logging.Begin(c.log, "databricks.create_cluster", log.Fields{"cluster": name})

	wait, err := c.clusters.Create(ctx, compute.CreateCluster{
		ClusterName:            name,
		SparkVersion:           sparkVersion,
		NodeTypeId:             nodeTypeID,
		NumWorkers:             numWorkers,
		AutoterminationMinutes: autoterminationMinutes,
	})
	if err != nil {
		return "", op.Done(errs.E(errs.KindVendor, "databricks.create_cluster", err))
	}

	_ = op.Done(nil)
	return wait.ClusterId, nil
}

func (c *Client) StartCluster(ctx context.Context, clusterID string) error {
	op := logging.Begin(c.log, "databricks.start_cluster", log.Fields{"cluster_id": clusterID})

	if _, err := c.clusters.Start(ctx, compute.StartCluster{ClusterId: clusterID}); err != nil {
		return op.Done(errs.E(errs.KindVendor, "databricks.start_cluster", err))
	}
	return op.Done(nil)
}

func (c *Client) TerminateCluster(ctx context.Context, clusterID string) error {
	op := logging.Begin(c.log, "databricks.terminate_cluster", log.Fields{"cluster_id": clusterID})

	if _, err := c.clusters.Delete(ctx, compute.DeleteCluster{ClusterId: clusterID}); err != nil {
		return op.Done(errs.E(errs.KindVendor, "databricks.terminate_cluster", err))
	}
	return op.Done(nil)
}

// GetClusterStatus returns the cluster state (PENDING, RUNNING,
// TERMINATED, ...).
func (c *Client) GetClusterStatus(ctx context.Context, clusterID string) (string, error) {
	op := logging.Begin(c.log, "databricks.get_cluster_status", log.Fields{"cluster_id": clusterID})

	details, err := c.clusters.Get(ctx, compute.GetClusterRequest{ClusterId: clusterID})
	if err != nil {
		return "", op.Done(errs.E(errs.KindVendor, "databricks.get_cluster_status", err))
	}

	_ = op.Done(nil)
	return string(details.State), nil
}

func (c *Client) ListClusters(ctx context.Context) ([]compute.ClusterDetails, error) {
	op := logging.Begin(c.log, "databricks.list_clusters", nil)

	clusters, err := c.clusters.ListAll(ctx, compute.ListClustersRequest{})
	if err != nil {
		return nil, op.Done(errs.E(errs.KindVendor, "databricks.list_clusters", err))
	}

	_ = op.Done(nil)
	return clusters, nil
}

// CreateJob creates a job with a single task and returns the job ID.
func (c *Client) CreateJob(ctx context.Context, name string, task jobs.Task) (int64, error) {
	op := logging.Begin(c.log, "databricks.create_job", log.Fields{"job": name})

	resp, err := c.jobs.Create(ctx, jobs.CreateJob{
		Name:  name,
		Tasks: []jobs.Task{task},
	})
	if err != nil {
		return 0, op.Done(errs.E(errs.KindVendor, "databricks.create_job", err))
	}

	_ = op.Done(nil)
	return resp.JobId, nil
}

// RunJob starts a job run and returns the run ID without waiting.
func (c *Client) RunJob(ctx context.Context, jobID int64, parameters map[string]string) (int64, error) {
	op := logging.Begin(c.log, "databricks.run_job", log.Fields{"job_id": jobID})

	wait, err := c.jobs.RunNow(ctx, jobs.RunNow{
		JobId:          jobID,
		NotebookParams: parameters,
	})
	if err != nil {
		return 0, op.Done(errs.E(errs.KindVendor, "databricks.run_job", err))
	}

	_ = op.Done(nil)
	return wait.RunId, nil
}

// GetRunStatus returns the run's life-cycle state (PENDING, RUNNING,
// TERMINATED, ...).
func (c *Client) GetRunStatus(ctx context.Context, runID int64) (string, error) {
	op := logging.Begin(c.log, "databricks.get_run_status", log.Fields{"run_id": runID})

	run, err := c.jobs.GetRun(ctx, jobs.GetRunRequest{RunId: runID})
	if err != nil {
		return "", op.Done(errs.E(errs.KindVendor, "databricks.get_run_status", err))
	}

	_ = op.Done(nil)
	return lifeCycleState(run), nil
}

func (c *Client) CancelRun(ctx context.Context, runID int64) error {
	op := logging.Begin(c.log, "databricks.cancel_run", log.Fields{"run_id": runID})

	if _, err := c.jobs.CancelRun(ctx, jobs.CancelRun{RunId: runID}); err != nil {
		return op.Done(errs.E(errs.KindVendor, "databricks.cancel_run", err))
	}
	return op.Done(nil)
}

// UploadNotebook imports notebook source into the workspace.
func (c *Client) UploadNotebook(ctx context.Context, notebookPath, content string, language workspace.Language) error {
	op := logging.Begin(c.log, "databricks.upload_notebook", log.Fields{"path": notebookPath})

	err := c.workspace.Import(ctx, workspace.Import{
		Path:      notebookPath,
		Content:   base64.StdEncoding.EncodeToString([]byte(content)),
		Language:  language,
		Format:    workspace.ImportFormatSource,
		Overwrite: true,
	})
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "databricks.upload_notebook", err))
	}
	return op.Done(nil)
}

func lifeCycleState(run *jobs.Run) string {
	if run == nil || run.State == nil {
		return "UNKNOWN"
	}
	return string(run.State.LifeCycleState)
}
