package powerbi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
	"github.com/datakraft/azurekit/pkg/retry"
)

// Report is a Power BI report as returned by the reports endpoints.
type Report struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	WebURL    string `json:"webUrl"`
	EmbedURL  string `json:"embedUrl"`
	DatasetID string `json:"datasetId"`
}

// Export statuses reported by the exportTo job.
const (
	ExportStatusSucceeded = "Succeeded"
	ExportStatusFailed    = "Failed"
)

var errExportRunning = errors.New("export still running")

// GetReports lists reports in the given workspace, or in the personal
// workspace when groupID is empty.
func (c *Client) GetReports(ctx context.Context, groupID string) ([]Report, error) {
	op := logging.Begin(c.log, "powerbi.get_reports", log.Fields{"group_id": groupID})

	var result struct {
		Value []Report `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, groupScoped(groupID, "reports"), nil, nil, &result); err != nil {
		return nil, op.Done(err)
	}

	_ = op.Done(nil)
	return result.Value, nil
}

// GetReport returns a single report.
func (c *Client) GetReport(ctx context.Context, reportID, groupID string) (Report, error) {
	op := logging.Begin(c.log, "powerbi.get_report", log.Fields{"report_id": reportID})

	var report Report
	endpoint := groupScoped(groupID, "reports/"+url.PathEscape(reportID))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &report); err != nil {
		return Report{}, op.Done(err)
	}

	_ = op.Done(nil)
	return report, nil
}

// CloneReport copies a report under a new name, optionally into another
// workspace and bound to another dataset.
func (c *Client) CloneReport(ctx context.Context, reportID, name, targetWorkspaceID, targetModelID string) (Report, error) {
	op := logging.Begin(c.log, "powerbi.clone_report", log.Fields{
		"report_id": reportID,
		"name":      name,
	})

	body := map[string]string{"name": name}
	if targetWorkspaceID != "" {
		body["targetWorkspaceId"] = targetWorkspaceID
	}
	if targetModelID != "" {
		body["targetModelId"] = targetModelID
	}

	var report Report
	endpoint := fmt.Sprintf("reports/%s/Clone", url.PathEscape(reportID))
	if err := c.do(ctx, http.MethodPost, endpoint, nil, body, &report); err != nil {
		return Report{}, op.Done(err)
	}

	_ = op.Done(nil)
	return report, nil
}

// ExportReport exports a report to the given format (PDF, PPTX or PNG) and
// returns the file contents. The export job is polled at a fixed interval
// for up to 60 attempts; exhausting the budget yields an export-timeout
// error, a failed job an export-failed error.
func (c *Client) ExportReport(ctx context.Context, reportID, format, groupID string) ([]byte, error) {
	op := logging.Begin(c.log, "powerbi.export_report", log.Fields{
		"report_id": reportID,
		"format":    format,
	})

	endpoint := groupScoped(groupID, "reports/"+url.PathEscape(reportID)+"/Export")

	var export struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, endpoint, nil, map[string]string{"format": format}, &export); err != nil {
		return nil, op.Done(err)
	}

	statusEndpoint := endpoint + "/" + url.PathEscape(export.ID)

	err := retry.Constant(c.pollInterval).WithMaxRetries(uint64(c.exportAttempts-1)).Do(ctx, func(ctx context.Context) error {
		var status struct {
			Status string `json:"status"`
			Error  any    `json:"error"`
		}
		if err := c.do(ctx, http.MethodGet, statusEndpoint, nil, nil, &status); err != nil {
			return err
		}
		switch status.Status {
		case ExportStatusSucceeded:
			return nil
		case ExportStatusFailed:
			return errs.Errorf(errs.KindExportFailed, "powerbi.export_report", "export %s failed: %v", export.ID, status.Error)
		default:
			return retry.RetryableError(errExportRunning)
		}
	})
	if err != nil {
		if errors.Is(err, errExportRunning) {
			err = errs.Errorf(errs.KindExportTimeout, "powerbi.export_report", "export %s did not finish after %d polls", export.ID, c.exportAttempts)
		}
		return nil, op.Done(err)
	}

	content, err := c.doRaw(ctx, http.MethodGet, statusEndpoint+"/file", nil, nil)
	if err != nil {
		return nil, op.Done(err)
	}

	_ = op.Done(nil)
	return content, nil
}
