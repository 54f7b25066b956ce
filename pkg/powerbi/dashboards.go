package powerbi

import (
	"context"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/logging"
)

// Dashboard is a Power BI dashboard as returned by the dashboards
// endpoints.
type Dashboard struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	EmbedURL    string `json:"embedUrl"`
	IsReadOnly  bool   `json:"isReadOnly"`
	WebURL      string `json:"webUrl"`
}

// Tile is a single visual pinned to a dashboard.
type Tile struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	EmbedURL  string `json:"embedUrl"`
	RowSpan   int    `json:"rowSpan"`
	ColSpan   int    `json:"colSpan"`
	ReportID  string `json:"reportId"`
	DatasetID string `json:"datasetId"`
}

// GetDashboards lists dashboards in the given workspace, or in the
// personal workspace when groupID is empty.
func (c *Client) GetDashboards(ctx context.Context, groupID string) ([]Dashboard, error) {
	op := logging.Begin(c.log, "powerbi.get_dashboards", log.Fields{"group_id": groupID})

	var result struct {
		Value []Dashboard `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, groupScoped(groupID, "dashboards"), nil, nil, &result); err != nil {
		return nil, op.Done(err)
	}

	_ = op.Done(nil)
	return result.Value, nil
}

// GetDashboard returns a single dashboard.
func (c *Client) GetDashboard(ctx context.Context, dashboardID, groupID string) (Dashboard, error) {
	op := logging.Begin(c.log, "powerbi.get_dashboard", log.Fields{"dashboard_id": dashboardID})

	var dashboard Dashboard
	endpoint := groupScoped(groupID, "dashboards/"+url.PathEscape(dashboardID))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &dashboard); err != nil {
		return Dashboard{}, op.Done(err)
	}

	_ = op.Done(nil)
	return dashboard, nil
}

// GetDashboardTiles lists the tiles pinned to a dashboard.
func (c *Client) GetDashboardTiles(ctx context.Context, dashboardID, groupID string) ([]Tile, error) {
	op := logging.Begin(c.log, "powerbi.get_dashboard_tiles", log.Fields{"dashboard_id": dashboardID})

	var result struct {
		Value []Tile `json:"value"`
	}
	endpoint := groupScoped(groupID, "dashboards/"+url.PathEscape(dashboardID)+"/tiles")
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &result); err != nil {
		return nil, op.Done(err)
	}

	_ = op.Done(nil)
	return result.Value, nil
}
