package powerbi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/logging"
)

// Dataset is a Power BI dataset as returned by the datasets endpoints.
type Dataset struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	WebURL            string `json:"webUrl"`
	IsRefreshable     bool   `json:"isRefreshable"`
	ConfiguredBy      string `json:"configuredBy"`
	TargetStorageMode string `json:"targetStorageMode"`
}

// Refresh is one entry in a dataset's refresh history.
type Refresh struct {
	RequestID            string     `json:"requestId"`
	ID                   int64      `json:"id"`
	RefreshType          string     `json:"refreshType"`
	StartTime            *time.Time `json:"startTime"`
	EndTime              *time.Time `json:"endTime"`
	Status               string     `json:"status"`
	ServiceExceptionJSON string     `json:"serviceExceptionJson"`
}

// RefreshDataset triggers a dataset refresh and returns the request id for
// tracking it. notifyOption is one of NoNotification, MailOnFailure or
// MailOnCompletion; empty means NoNotification.
func (c *Client) RefreshDataset(ctx context.Context, datasetID, notifyOption string) (string, error) {
	op := logging.Begin(c.log, "powerbi.refresh_dataset", log.Fields{"dataset_id": datasetID})

	if notifyOption == "" {
		notifyOption = "NoNotification"
	}
	var result struct {
		RequestID string `json:"requestId"`
	}
	endpoint := fmt.Sprintf("datasets/%s/refreshes", url.PathEscape(datasetID))
	if err := c.do(ctx, http.MethodPost, endpoint, nil, map[string]string{"notifyOption": notifyOption}, &result); err != nil {
		return "", op.Done(err)
	}

	_ = op.Done(nil)
	return result.RequestID, nil
}

// GetRefreshHistory returns the most recent refreshes of a dataset, newest
// first, limited to top entries.
func (c *Client) GetRefreshHistory(ctx context.Context, datasetID string, top int) ([]Refresh, error) {
	op := logging.Begin(c.log, "powerbi.get_refresh_history", log.Fields{"dataset_id": datasetID})

	if top <= 0 {
		top = 10
	}
	var result struct {
		Value []Refresh `json:"value"`
	}
	endpoint := fmt.Sprintf("datasets/%s/refreshes", url.PathEscape(datasetID))
	params := url.Values{"$top": {strconv.Itoa(top)}}
	if err := c.do(ctx, http.MethodGet, endpoint, params, nil, &result); err != nil {
		return nil, op.Done(err)
	}

	_ = op.Done(nil)
	return result.Value, nil
}

// CancelRefresh cancels an in-progress dataset refresh.
func (c *Client) CancelRefresh(ctx context.Context, datasetID, refreshID string) error {
	op := logging.Begin(c.log, "powerbi.cancel_refresh", log.Fields{
		"dataset_id": datasetID,
		"refresh_id": refreshID,
	})

	endpoint := fmt.Sprintf("datasets/%s/refreshes/%s", url.PathEscape(datasetID), url.PathEscape(refreshID))
	return op.Done(c.do(ctx, http.MethodDelete, endpoint, nil, nil, nil))
}

// GetDatasets lists datasets in the given workspace, or in the personal
// workspace when groupID is empty.
func (c *Client) GetDatasets(ctx context.Context, groupID string) ([]Dataset, error) {
	op := logging.Begin(c.log, "powerbi.get_datasets", log.Fields{"group_id": groupID})

	var result struct {
		Value []Dataset `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, groupScoped(groupID, "datasets"), nil, nil, &result); err != nil {
		return nil, op.Done(err)
	}

	_ = op.Done(nil)
	return result.Value, nil
}

// GetDataset returns a single dataset.
func (c *Client) GetDataset(ctx context.Context, datasetID, groupID string) (Dataset, error) {
	op := logging.Begin(c.log, "powerbi.get_dataset", log.Fields{"dataset_id": datasetID})

	var dataset Dataset
	endpoint := groupScoped(groupID, "datasets/"+url.PathEscape(datasetID))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &dataset); err != nil {
		return Dataset{}, op.Done(err)
	}

	_ = op.Done(nil)
	return dataset, nil
}
