// Package streamanalytics wraps the Azure Stream Analytics control-plane
// SDK.
package streamanalytics

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/streamanalytics/armstreamanalytics/v2"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

type Client struct {
	log           log.FieldLogger
	resourceGroup string

	jobs    *armstreamanalytics.StreamingJobsClient
	inputs  *armstreamanalytics.InputsClient
	outputs *armstreamanalytics.OutputsClient
}

func New(cred azcore.TokenCredential, subscriptionID, resourceGroup string, logger log.FieldLogger) (*Client, error) {
	jobs, err := armstreamanalytics.NewStreamingJobsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building streaming jobs client: %w", err)
	}
	inputs, err := armstreamanalytics.NewInputsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building inputs client: %w", err)
	}
	outputs, err := armstreamanalytics.NewOutputsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building outputs client: %w", err)
	}

	logger = logger.WithField("resource_group", resourceGroup)
	logger.Infof("initialized stream analytics client for resource group: %s", resourceGroup)

	return &Client{
		log:           logger,
		resourceGroup: resourceGroup,
		jobs:          jobs,
		inputs:        inputs,
		outputs:       outputs,
	}, nil
}

// CreateJob creates a Standard-sku job with a single transformation of
// one streaming unit.
func (c *Client) CreateJob(ctx context.Context, jobName, location, query string) (armstreamanalytics.StreamingJob, error) {
	op := logging.Begin(c.log, "streamanalytics.create_job", log.Fields{"job": jobName})

	job := armstreamanalytics.StreamingJob{
		Location: &location,
		Properties: &armstreamanalytics.StreamingJobProperties{
			SKU: &armstreamanalytics.SKU{Name: to.Ptr(armstreamanalytics.SKUNameStandard)},
			Transformation: &armstreamanalytics.Transformation{
				Name: to.Ptr("Transformation"),
				Properties: &armstreamanalytics.TransformationProperties{
					Query:          &query,
					StreamingUnits: to.Ptr[int32](1),
				},
			},
		},
	}

	poller, err := c.jobs.BeginCreateOrReplace(ctx, c.resourceGroup, jobName, job, nil)
	if err != nil {
		return armstreamanalytics.StreamingJob{}, op.Done(errs.E(errs.KindVendor, "streamanalytics.create_job", err))
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return armstreamanalytics.StreamingJob{}, op.Done(errs.E(errs.KindVendor, "streamanalytics.create_job", err))
	}

	_ = op.Done(nil)
	return resp.StreamingJob, nil
}

// StartJob starts a job with the given output start mode (JobStartTime,
// CustomTime, LastOutputEventTime).
func (c *Client) StartJob(ctx context.Context, jobName string, outputStartMode string) error {
	op := logging.Begin(c.log, "streamanalytics.start_job", log.Fields{"job": jobName})

	if outputStartMode == "" {
		outputStartMode = string(armstreamanalytics.OutputStartModeJobStartTime)
	}

	poller, err := c.jobs.BeginStart(ctx, c.resourceGroup, jobName, &armstreamanalytics.StreamingJobsClientBeginStartOptions{
		StartJobParameters: &armstreamanalytics.StartStreamingJobParameters{
			OutputStartMode: to.Ptr(armstreamanalytics.OutputStartMode(outputStartMode)),
		},
	})
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "streamanalytics.start_job", err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "streamanalytics.start_job", err))
	}
	return op.Done(nil)
}

func (c *Client) StopJob(ctx context.Context, jobName string) error {
	op := logging.Begin(c.log, "streamanalytics.stop_job", log.Fields{"job": jobName})

	poller, err := c.jobs.BeginStop(ctx, c.resourceGroup, jobName, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "streamanalytics.stop_job", err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "streamanalytics.stop_job", err))
	}
	return op.Done(nil)
}

func (c *Client) GetJob(ctx context.Context, jobName string) (armstreamanalytics.StreamingJob, error) {
	op := logging.Begin(c.log, "streamanalytics.get_job", log.Fields{"job": jobName})

	resp, err := c.jobs.Get(ctx, c.resourceGroup, jobName, nil)
	if err != nil {
		return armstreamanalytics.StreamingJob{}, op.Done(errs.E(errs.KindVendor, "streamanalytics.get_job", err))
	}

	_ = op.Done(nil)
	return resp.StreamingJob, nil
}

// GetJobState returns the job state (Created, Starting, Running,
// Stopping, Stopped, ...).
func (c *Client) GetJobState(ctx context.Context, jobName string) (string, error) {
	job, err := c.GetJob(ctx, jobName)
	if err != nil {
		return "", err
	}
	if job.Properties == nil || job.Properties.JobState == nil {
		return "Unknown", nil
	}
	return *job.Properties.JobState, nil
}

func (c *Client) ListJobs(ctx context.Context) ([]*armstreamanalytics.StreamingJob, error) {
	op := logging.Begin(c.log, "streamanalytics.list_jobs", nil)

	var jobs []*armstreamanalytics.StreamingJob
	pager := c.jobs.NewListByResourceGroupPager(c.resourceGroup, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, op.Done(errs.E(errs.KindVendor, "streamanalytics.list_jobs", err))
		}
		jobs = append(jobs, page.Value...)
	}

	_ = op.Done(nil)
	return jobs, nil
}

func (c *Client) DeleteJob(ctx context.Context, jobName string) error {
	op := logging.Begin(c.log, "streamanalytics.delete_job", log.Fields{"job": jobName})

	poller, err := c.jobs.BeginDelete(ctx, c.resourceGroup, jobName, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "streamanalytics.delete_job", err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "streamanalytics.delete_job", err))
	}
	return op.Done(nil)
}

// ScaleJob changes the streaming units on the job's transformation and
// replaces the job definition.
func (c *Client) ScaleJob(ctx context.Context, jobName string, streamingUnits int32) error {
	op := logging.Begin(c.log, "streamanalytics.scale_job", log.Fields{"job": jobName, "streaming_units": streamingUnits})

	job, err := c.GetJob(ctx, jobName)
	if err != nil {
		return op.Done(err)
	}
	if job.Properties == nil || job.Properties.Transformation == nil || job.Properties.Transformation.Properties == nil {
		return op.Done(errs.Errorf(errs.KindVendor, "streamanalytics.scale_job", "job %s has no transformation", jobName))
	}
	job.Properties.Transformation.Properties.StreamingUnits = &streamingUnits

	poller, err := c.jobs.BeginCreateOrReplace(ctx, c.resourceGroup, jobName, job, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "streamanalytics.scale_job", err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "streamanalytics.scale_job", err))
	}
	return op.Done(nil)
}

func (c *Client) CreateInput(ctx context.Context, jobName, inputName string, input armstreamanalytics.Input) (armstreamanalytics.Input, error) {
	op := logging.Begin(c.log, "streamanalytics.create_input", log.Fields{"job": jobName, "input": inputName})

	resp, err := c.inputs.CreateOrReplace(ctx, c.resourceGroup, jobName, inputName, input, nil)
	if err != nil {
		return armstreamanalytics.Input{}, op.Done(errs.E(errs.KindVendor, "streamanalytics.create_input", err))
	}

	_ = op.Done(nil)
	return resp.Input, nil
}

func (c *Client) CreateOutput(ctx context.Context, jobName, outputName string, output armstreamanalytics.Output) (armstreamanalytics.Output, error) {
	op := logging.Begin(c.log, "streamanalytics.create_output", log.Fields{"job": jobName, "output": outputName})

	resp, err := c.outputs.CreateOrReplace(ctx, c.resourceGroup, jobName, outputName, output, nil)
	if err != nil {
		return armstreamanalytics.Output{}, op.Done(errs.E(errs.KindVendor, "streamanalytics.create_output", err))
	}

	_ = op.Done(nil)
	return resp.Output, nil
}

// TestInput tests an input connection and reports success.
func (c *Client) TestInput(ctx context.Context, jobName, inputName string) (bool, error) {
	op := logging.Begin(c.log, "streamanalytics.test_input", log.Fields{"job": jobName, "input": inputName})

	poller, err := c.inputs.BeginTest(ctx, c.resourceGroup, jobName, inputName, nil)
	if err != nil {
		return false, op.Done(errs.E(errs.KindVendor, "streamanalytics.test_input", err))
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return false, op.Done(errs.E(errs.KindVendor, "streamanalytics.test_input", err))
	}

	_ = op.Done(nil)
	return testSucceeded(resp.Status), nil
}

// TestOutput tests an output connection and reports success.
func (c *Client) TestOutput(ctx context.Context, jobName, outputName string) (bool, error) {
	op := logging.Begin(c.log, "streamanalytics.test_output", log.Fields{"job": jobName, "output": outputName})

	poller, err := c.outputs.BeginTest(ctx, c.resourceGroup, jobName, outputName, nil)
	if err != nil {
		return false, op.Done(errs.E(errs.KindVendor, "streamanalytics.test_output", err))
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return false, op.Done(errs.E(errs.KindVendor, "streamanalytics.test_output", err))
	}

	_ = op.Done(nil)
	return testSucceeded(resp.Status), nil
}

func testSucceeded(status *string) bool {
	return status != nil && *status == "TestSucceeded"
}
