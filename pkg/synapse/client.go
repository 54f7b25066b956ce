// Package synapse wraps the Azure Synapse control plane and the workspace
// artifacts data plane. Artifacts operations go over REST against the
// workspace dev endpoint; there is no stable Go SDK for that surface.
package synapse

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/synapse/armsynapse"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

type Client struct {
	log           log.FieldLogger
	resourceGroup string
	workspaceName string

	sqlPools     *armsynapse.SQLPoolsClient
	bigDataPools *armsynapse.BigDataPoolsClient
	workspaces   *armsynapse.WorkspacesClient

	artifacts *artifactsClient
}

func New(cred azcore.TokenCredential, subscriptionID, resourceGroup, workspaceName, synapseEndpoint string, logger log.FieldLogger) (*Client, error) {
	sqlPools, err := armsynapse.NewSQLPoolsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building sql pools client: %w", err)
	}
	bigDataPools, err := armsynapse.NewBigDataPoolsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building big data pools client: %w", err)
	}
	workspaces, err := armsynapse.NewWorkspacesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building workspaces client: %w", err)
	}

	logger = logger.WithField("workspace", workspaceName)
	logger.Infof("initialized synapse client for workspace: %s", workspaceName)

	return &Client{
		log:           logger,
		resourceGroup: resourceGroup,
		workspaceName: workspaceName,
		sqlPools:      sqlPools,
		bigDataPools:  bigDataPools,
		workspaces:    workspaces,
		artifacts:     newArtifactsClient(synapseEndpoint, cred, http.DefaultClient, logger),
	}, nil
}

// CreateSQLPool creates a dedicated SQL pool with the given sku (DW100c,
// DW200c, ...).
func (c *Client) CreateSQLPool(ctx context.Context, sqlPoolName, skuName string) (armsynapse.SQLPool, error) {
	op := logging.Begin(c.log, "synapse.create_sql_pool", log.Fields{"sql_pool": sqlPoolName})

	location, err := c.GetWorkspaceLocation(ctx)
	if err != nil {
		return armsynapse.SQLPool{}, op.Done(err)
	}

	pool := armsynapse.SQLPool{
		Location: &location,
		SKU:      &armsynapse.SKU{Name: &skuName},
	}

	poller, err := c.sqlPools.BeginCreate(ctx, c.resourceGroup, c.workspaceName, sqlPoolName, pool, nil)
	if err != nil {
		return armsynapse.SQLPool{}, op.Done(errs.E(errs.KindVendor, "synapse.create_sql_pool", err))
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return armsynapse.SQLPool{}, op.Done(errs.E(errs.KindVendor, "synapse.create_sql_pool", err))
	}

	_ = op.Done(nil)
	return resp.SQLPool, nil
}

func (c *Client) PauseSQLPool(ctx context.Context, sqlPoolName string) error {
	op := logging.Begin(c.log, "synapse.pause_sql_pool", log.Fields{"sql_pool": sqlPoolName})

	poller, err := c.sqlPools.BeginPause(ctx, c.resourceGroup, c.workspaceName, sqlPoolName, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "synapse.pause_sql_pool", err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "synapse.pause_sql_pool", err))
	}
	return op.Done(nil)
}

func (c *Client) ResumeSQLPool(ctx context.Context, sqlPoolName string) error {
	op := logging.Begin(c.log, "synapse.resume_sql_pool", log.Fields{"sql_pool": sqlPoolName})

	poller, err := c.sqlPools.BeginResume(ctx, c.resourceGroup, c.workspaceName, sqlPoolName, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "synapse.resume_sql_pool", err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return op.Done(errs.E(errs.KindVendor, "synapse.resume_sql_pool", err))
	}
	return op.Done(nil)
}

// CreateSparkPool creates a big data pool. With auto-scale enabled the
// pool scales between nodeCount and twice nodeCount.
func (c *Client) CreateSparkPool(ctx context.Context, sparkPoolName, nodeSize string, nodeCount int32, autoScale bool) (armsynapse.BigDataPoolResourceInfo, error) {
	op := logging.Begin(c.log, "synapse.create_spark_pool", log.Fields{"spark_pool": sparkPoolName})

	location, err := c.GetWorkspaceLocation(ctx)
	if err != nil {
		return armsynapse.BigDataPoolResourceInfo{}, op.Done(err)
	}

	properties := &armsynapse.BigDataPoolResourceProperties{
		NodeSize:       to.Ptr(armsynapse.NodeSize(nodeSize)),
		NodeSizeFamily: to.Ptr(armsynapse.NodeSizeFamilyMemoryOptimized),
	}
	if autoScale {
		properties.AutoScale = &armsynapse.AutoScaleProperties{
			Enabled:      to.Ptr(true),
			MinNodeCount: &nodeCount,
			MaxNodeCount: to.Ptr(nodeCount * 2),
		}
	} else {
		properties.NodeCount = &nodeCount
	}

	pool := armsynapse.BigDataPoolResourceInfo{
		Location:   &location,
		Properties: properties,
	}

	poller, err := c.bigDataPools.BeginCreateOrUpdate(ctx, c.resourceGroup, c.workspaceName, sparkPoolName, pool, nil)
	if err != nil {
		return armsynapse.BigDataPoolResourceInfo{}, op.Done(errs.E(errs.KindVendor, "synapse.create_spark_pool", err))
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return armsynapse.BigDataPoolResourceInfo{}, op.Done(errs.E(errs.KindVendor, "synapse.create_spark_pool", err))
	}

	_ = op.Done(nil)
	return resp.BigDataPoolResourceInfo, nil
}

func (c *Client) ListSQLPools(ctx context.Context) ([]*armsynapse.SQLPool, error) {
	op := logging.Begin(c.log, "synapse.list_sql_pools", nil)

	var pools []*armsynapse.SQLPool
	pager := c.sqlPools.NewListByWorkspacePager(c.resourceGroup, c.workspaceName, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, op.Done(errs.E(errs.KindVendor, "synapse.list_sql_pools", err))
		}
		pools = append(pools, page.Value...)
	}

	_ = op.Done(nil)
	return pools, nil
}

func (c *Client) ListSparkPools(ctx context.Context) ([]*armsynapse.BigDataPoolResourceInfo, error) {
	op := logging.Begin(c.log, "synapse.list_spark_pools", nil)

	var pools []*armsynapse.BigDataPoolResourceInfo
	pager := c.bigDataPools.NewListByWorkspacePager(c.resourceGroup, c.workspaceName, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, op.Done(errs.E(errs.KindVendor, "synapse.list_spark_pools", err))
		}
		pools = append(pools, page.Value...)
	}

	_ = op.Done(nil)
	return pools, nil
}

// GetWorkspaceLocation returns the Azure region of the workspace.
func (c *Client) GetWorkspaceLocation(ctx context.Context) (string, error) {
	resp, err := c.workspaces.Get(ctx, c.resourceGroup, c.workspaceName, nil)
	if err != nil {
		return "", errs.E(errs.KindVendor, "synapse.get_workspace_location", err)
	}
	if resp.Location == nil {
		return "", errs.Errorf(errs.KindVendor, "synapse.get_workspace_location", "workspace %s has no location", c.workspaceName)
	}
	return *resp.Location, nil
}
