package datafactory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakraft/azurekit/pkg/errs"
)

type fakePipelineRuns struct {
	statuses []string
	calls    int
	err      error
}

func (f *fakePipelineRuns) Get(_ context.Context, _, _, runID string, _ *armdatafactory.PipelineRunsClientGetOptions) (armdatafactory.PipelineRunsClientGetResponse, error) {
	if f.err != nil {
		return armdatafactory.PipelineRunsClientGetResponse{}, f.err
	}

	status := f.statuses[f.calls]
	if f.calls < len(f.statuses)-1 {
		f.calls++
	}
	return armdatafactory.PipelineRunsClientGetResponse{
		PipelineRun: armdatafactory.PipelineRun{
			RunID:  &runID,
			Status: &status,
		},
	}, nil
}

func (f *fakePipelineRuns) Cancel(_ context.Context, _, _, _ string, _ *armdatafactory.PipelineRunsClientCancelOptions) (armdatafactory.PipelineRunsClientCancelResponse, error) {
	return armdatafactory.PipelineRunsClientCancelResponse{}, f.err
}

func newTestClient(runs pipelineRunsAPI) *Client {
	logger, _ := test.NewNullLogger()
	return &Client{
		log:           logger,
		resourceGroup: "rg",
		factoryName:   "factory",
		pipelineRuns:  runs,
	}
}

func TestWaitForPipelineRun(t *testing.T) {
	t.Run("polls until terminal status", func(t *testing.T) {
		fake := &fakePipelineRuns{statuses: []string{"Queued", "InProgress", "Succeeded"}}
		c := newTestClient(fake)

		status, err := c.WaitForPipelineRun(context.Background(), "run-1", time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, StatusSucceeded, status)
		assert.Equal(t, 2, fake.calls)
	})

	t.Run("returns failed status without error", func(t *testing.T) {
		fake := &fakePipelineRuns{statuses: []string{"InProgress", "Failed"}}
		c := newTestClient(fake)

		status, err := c.WaitForPipelineRun(context.Background(), "run-2", time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, status)
	})

	t.Run("vendor error stops the poll", func(t *testing.T) {
		boom := errors.New("boom")
		fake := &fakePipelineRuns{err: boom}
		c := newTestClient(fake)

		_, err := c.WaitForPipelineRun(context.Background(), "run-3", time.Millisecond)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindVendor))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("context cancellation stops an unbounded wait", func(t *testing.T) {
		fake := &fakePipelineRuns{statuses: []string{"InProgress"}}
		c := newTestClient(fake)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := c.WaitForPipelineRun(ctx, "run-4", time.Millisecond)
		require.Error(t, err)
	})
}

func TestCancelPipelineRun(t *testing.T) {
	fake := &fakePipelineRuns{}
	c := newTestClient(fake)

	assert.NoError(t, c.CancelPipelineRun(context.Background(), "run-5"))
}
