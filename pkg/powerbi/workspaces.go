package powerbi

import (
	"context"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/logging"
)

// Workspace is a Power BI workspace (group).
type Workspace struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	IsOnDedicatedCapacity bool   `json:"isOnDedicatedCapacity"`
	CapacityID            string `json:"capacityId"`
}

// GetWorkspaces lists the workspaces the caller has access to.
func (c *Client) GetWorkspaces(ctx context.Context) ([]Workspace, error) {
	op := logging.Begin(c.log, "powerbi.get_workspaces", nil)

	var result struct {
		Value []Workspace `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, "groups", nil, nil, &result); err != nil {
		return nil, op.Done(err)
	}

	_ = op.Done(nil)
	return result.Value, nil
}

// CreateWorkspace creates a new workspace.
func (c *Client) CreateWorkspace(ctx context.Context, name string) (Workspace, error) {
	op := logging.Begin(c.log, "powerbi.create_workspace", log.Fields{"name": name})

	var workspace Workspace
	if err := c.do(ctx, http.MethodPost, "groups", nil, map[string]string{"name": name}, &workspace); err != nil {
		return Workspace{}, op.Done(err)
	}

	_ = op.Done(nil)
	return workspace, nil
}

// DeleteWorkspace deletes a workspace.
func (c *Client) DeleteWorkspace(ctx context.Context, groupID string) error {
	op := logging.Begin(c.log, "powerbi.delete_workspace", log.Fields{"group_id": groupID})

	return op.Done(c.do(ctx, http.MethodDelete, "groups/"+url.PathEscape(groupID), nil, nil, nil))
}
