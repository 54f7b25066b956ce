package databricks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/databricks/databricks-sdk-go/service/jobs"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
	"github.com/datakraft/azurekit/pkg/retry"
)

// ExecutionResult describes a one-time notebook run.
type ExecutionResult struct {
	RunID  int64
	Status string
	Run    *jobs.Run
}

var errRunNotTerminal = errors.New("run not in a terminal state")

// ExecuteNotebook submits a one-time run of a workspace notebook on an
// existing cluster and polls at a fixed 10s interval until the run's
// life-cycle state is terminal or the timeout budget is spent. When the
// budget runs out the last observed status is returned without a distinct
// timeout error.
func (c *Client) ExecuteNotebook(ctx context.Context, notebookPath, clusterID string, parameters map[string]string, timeout time.Duration) (ExecutionResult, error) {
	op := logging.Begin(c.log, "databricks.execute_notebook", log.Fields{"path": notebookPath, "cluster_id": clusterID})

	wait, err := c.jobs.Submit(ctx, jobs.SubmitRun{
		RunName: fmt.Sprintf("Execute %s", notebookPath),
		Tasks: []jobs.SubmitTask{
			{
				TaskKey:           "notebook_task",
				ExistingClusterId: clusterID,
				NotebookTask: &jobs.NotebookTask{
					NotebookPath:   notebookPath,
					BaseParameters: parameters,
				},
			},
		},
	})
	if err != nil {
		return ExecutionResult{}, op.Done(errs.E(errs.KindVendor, "databricks.execute_notebook", err))
	}

	runID := wait.RunId
	c.log.WithField("run_id", runID).Info("submitted notebook execution")

	var status string
	err = retry.Constant(c.pollInterval).WithMaxDuration(timeout).Do(ctx, func(ctx context.Context) error {
		status, err = c.GetRunStatus(ctx, runID)
		if err != nil {
			return err
		}
		if isTerminal(status) {
			return nil
		}
		return retry.RetryableError(errRunNotTerminal)
	})
	if err != nil && !errors.Is(err, errRunNotTerminal) {
		return ExecutionResult{RunID: runID, Status: status}, op.Done(err)
	}

	run, err := c.jobs.GetRun(ctx, jobs.GetRunRequest{RunId: runID})
	if err != nil {
		return ExecutionResult{RunID: runID, Status: status}, op.Done(errs.E(errs.KindVendor, "databricks.execute_notebook", err))
	}

	_ = op.Done(nil)
	return ExecutionResult{RunID: runID, Status: status, Run: run}, nil
}

func isTerminal(lifeCycleState string) bool {
	switch jobs.RunLifeCycleState(lifeCycleState) {
	case jobs.RunLifeCycleStateTerminated, jobs.RunLifeCycleStateSkipped, jobs.RunLifeCycleStateInternalError:
		return true
	}
	return false
}
