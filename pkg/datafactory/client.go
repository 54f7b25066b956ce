// Package datafactory wraps the Azure Data Factory control-plane SDK.
// Methods map one-to-one to vendor operations; vendor errors are wrapped
// but never translated.
package datafactory

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v9"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

const defaultPollInterval = 10 * time.Second

type pipelinesAPI interface {
	CreateRun(ctx context.Context, resourceGroupName string, factoryName string, pipelineName string, options *armdatafactory.PipelinesClientCreateRunOptions) (armdatafactory.PipelinesClientCreateRunResponse, error)
	Get(ctx context.Context, resourceGroupName string, factoryName string, pipelineName string, options *armdatafactory.PipelinesClientGetOptions) (armdatafactory.PipelinesClientGetResponse, error)
	NewListByFactoryPager(resourceGroupName string, factoryName string, options *armdatafactory.PipelinesClientListByFactoryOptions) *runtime.Pager[armdatafactory.PipelinesClientListByFactoryResponse]
}

type pipelineRunsAPI interface {
	Get(ctx context.Context, resourceGroupName string, factoryName string, runID string, options *armdatafactory.PipelineRunsClientGetOptions) (armdatafactory.PipelineRunsClientGetResponse, error)
	Cancel(ctx context.Context, resourceGroupName string, factoryName string, runID string, options *armdatafactory.PipelineRunsClientCancelOptions) (armdatafactory.PipelineRunsClientCancelResponse, error)
}

type triggersAPI interface {
	CreateOrUpdate(ctx context.Context, resourceGroupName string, factoryName string, triggerName string, trigger armdatafactory.TriggerResource, options *armdatafactory.TriggersClientCreateOrUpdateOptions) (armdatafactory.TriggersClientCreateOrUpdateResponse, error)
	BeginStart(ctx context.Context, resourceGroupName string, factoryName string, triggerName string, options *armdatafactory.TriggersClientBeginStartOptions) (*runtime.Poller[armdatafactory.TriggersClientStartResponse], error)
	BeginStop(ctx context.Context, resourceGroupName string, factoryName string, triggerName string, options *armdatafactory.TriggersClientBeginStopOptions) (*runtime.Poller[armdatafactory.TriggersClientStopResponse], error)
}

type activityRunsAPI interface {
	QueryByPipelineRun(ctx context.Context, resourceGroupName string, factoryName string, runID string, filterParameters armdatafactory.RunFilterParameters, options *armdatafactory.ActivityRunsClientQueryByPipelineRunOptions) (armdatafactory.ActivityRunsClientQueryByPipelineRunResponse, error)
}

type Client struct {
	log           log.FieldLogger
	resourceGroup string
	factoryName   string

	pipelines    pipelinesAPI
	pipelineRuns pipelineRunsAPI
	triggers     triggersAPI
	activityRuns activityRunsAPI
}

func New(cred azcore.TokenCredential, subscriptionID, resourceGroup, factoryName string, logger log.FieldLogger) (*Client, error) {
	factory, err := armdatafactory.NewClientFactory(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building data factory clients: %w", err)
	}

	logger = logger.WithField("factory", factoryName)
	logger.Infof("initialized data factory client for factory: %s", factoryName)

	return &Client{
		log:           logger,
		resourceGroup: resourceGroup,
		factoryName:   factoryName,
		pipelines:     factory.NewPipelinesClient(),
		pipelineRuns:  factory.NewPipelineRunsClient(),
		triggers:      factory.NewTriggersClient(),
		activityRuns:  factory.NewActivityRunsClient(),
	}, nil
}

// CreatePipelineRun starts a pipeline run and returns its run ID.
func (c *Client) CreatePipelineRun(ctx context.Context, pipelineName string, parameters map[string]any) (string, error) {
	op := logging.Begin(c.log, "datafactory.create_pipeline_run", log.Fields{"pipeline": pipelineName})

	opts := &armdatafactory.PipelinesClientCreateRunOptions{}
	if len(parameters) > 0 {
		opts.Parameters = parameters
	}

	resp, err := c.pipelines.CreateRun(ctx, c.resourceGroup, c.factoryName, pipelineName, opts)
	if err != nil {
		return "", op.Done(errs.E(errs.KindVendor, "datafactory.create_pipeline_run", err))
	}

	runID := deref(resp.RunID)
	_ = op.Done(nil)
	return runID, nil
}

// GetPipelineRun returns the status and details of a pipeline run.
func (c *Client) GetPipelineRun(ctx context.Context, runID string) (armdatafactory.PipelineRun, error) {
	op := logging.Begin(c.log, "datafactory.get_pipeline_run", log.Fields{"run_id": runID})

	resp, err := c.pipelineRuns.Get(ctx, c.resourceGroup, c.factoryName, runID, nil)
	if err != nil {
		return armdatafactory.PipelineRun{}, op.Done(errs.E(errs.KindVendor, "datafactory.get_pipeline_run", err))
	}

	_ = op.Done(nil)
	return resp.PipelineRun, nil
}

func (c *Client) CancelPipelineRun(ctx context.Context, runID string) error {
	op := logging.Begin(c.log, "datafactory.cancel_pipeline_run", log.Fields{"run_id": runID})

	_, err := c.pipelineRuns.Cancel(ctx, c.resourceGroup, c.factoryName, runID, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "datafactory.cancel_pipeline_run", err))
	}
	return op.Done(nil)
}

func (c *Client) ListPipelines(ctx context.Context) ([]*armdatafactory.PipelineResource, error) {
	op := logging.Begin(c.log, "datafactory.list_pipelines", nil)

	var pipelines []*armdatafactory.PipelineResource
	pager := c.pipelines.NewListByFactoryPager(c.resourceGroup, c.factoryName, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, op.Done(errs.E(errs.KindVendor, "datafactory.list_pipelines", err))
		}
		pipelines = append(pipelines, page.Value...)
	}

	_ = op.Done(nil)
	return pipelines, nil
}

func (c *Client) GetPipeline(ctx context.Context, pipelineName string) (armdatafactory.PipelineResource, error) {
	op := logging.Begin(c.log, "datafactory.get_pipeline", log.Fields{"pipeline": pipelineName})

	resp, err := c.pipelines.Get(ctx, c.resourceGroup, c.factoryName, pipelineName, nil)
	if err != nil {
		return armdatafactory.PipelineResource{}, op.Done(errs.E(errs.KindVendor, "datafactory.get_pipeline", err))
	}

	_ = op.Done(nil)
	return resp.PipelineResource, nil
}

func (c *Client) CreateTrigger(ctx context.Context, triggerName string, trigger armdatafactory.TriggerResource) (armdatafactory.TriggerResource, error) {
	op := logging.Begin(c.log, "datafactory.create_trigger", log.Fields{"trigger": triggerName})

	resp, err := c.triggers.CreateOrUpdate(ctx, c.resourceGroup, c.factoryName, triggerName, trigger, nil)
	if err != nil {
		return armdatafactory.TriggerResource{}, op.Done(errs.E(errs.KindVendor, "datafactory.create_trigger", err))
	}

	_ = op.Done(nil)
	return resp.TriggerResource, nil
}

func (c *Client) StartTrigger(ctx context.Context, triggerName string) error {
	op := logging.Begin(c.log, "datafactory.start_trigger", log.Fields{"trigger": triggerName})

	poller, err := c.triggers.BeginStart(ctx, c.resourceGroup, c.factoryName, triggerName, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "datafactory.start_trigger", err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "datafactory.start_trigger", err))
	}
	return op.Done(nil)
}

func (c *Client) StopTrigger(ctx context.Context, triggerName string) error {
	op := logging.Begin(c.log, "datafactory.stop_trigger", log.Fields{"trigger": triggerName})

	poller, err := c.triggers.BeginStop(ctx, c.resourceGroup, c.factoryName, triggerName, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "datafactory.stop_trigger", err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "datafactory.stop_trigger", err))
	}
	return op.Done(nil)
}

// QueryActivityRuns returns the activity runs for a pipeline run. When no
// filter is given, the last 24 hours are queried.
func (c *Client) QueryActivityRuns(ctx context.Context, runID string, filter *armdatafactory.RunFilterParameters) ([]*armdatafactory.ActivityRun, error) {
	op := logging.Begin(c.log, "datafactory.query_activity_runs", log.Fields{"run_id": runID})

	if filter == nil {
		now := time.Now().UTC()
		yesterday := now.Add(-24 * time.Hour)
		filter = &armdatafactory.RunFilterParameters{
			LastUpdatedAfter:  &yesterday,
			LastUpdatedBefore: &now,
		}
	}

	resp, err := c.activityRuns.QueryByPipelineRun(ctx, c.resourceGroup, c.factoryName, runID, *filter, nil)
	if err != nil {
		return nil, op.Done(errs.E(errs.KindVendor, "datafactory.query_activity_runs", err))
	}

	_ = op.Done(nil)
	return resp.Value, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
