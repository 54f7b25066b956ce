package datafactory

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/retry"
)

// Terminal pipeline run statuses.
const (
	StatusSucceeded = "Succeeded"
	StatusFailed    = "Failed"
	StatusCancelled = "Cancelled"
)

var errStillRunning = errs.Errorf(errs.KindVendor, "datafactory.wait_for_pipeline_run", "pipeline run not in a terminal state")

// WaitForPipelineRun polls a pipeline run at a fixed interval until it
// reaches a terminal status, and returns that status. The wait has no
// upper bound of its own; cancel the context to stop early.
func (c *Client) WaitForPipelineRun(ctx context.Context, runID string, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	var status string
	err := retry.Constant(interval).Do(ctx, func(ctx context.Context) error {
		run, err := c.GetPipelineRun(ctx, runID)
		if err != nil {
			return err
		}

		status = deref(run.Status)
		c.log.WithFields(log.Fields{"run_id": runID, "status": status}).
			Debug("polled pipeline run")

		switch status {
		case StatusSucceeded, StatusFailed, StatusCancelled:
			return nil
		default:
			return retry.RetryableError(errStillRunning)
		}
	})
	if err != nil {
		return status, err
	}
	return status, nil
}
