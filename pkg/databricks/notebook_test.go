package databricks

import (
	"context"
	"testing"
	"time"

	"github.com/databricks/databricks-sdk-go/service/jobs"
	"github.com/databricks/databricks-sdk-go/service/workspace"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobs struct {
	states  []jobs.RunLifeCycleState
	getRuns int
}

func (f *fakeJobs) Create(context.Context, jobs.CreateJob) (*jobs.CreateResponse, error) {
	return &jobs.CreateResponse{JobId: 42}, nil
}

func (f *fakeJobs) RunNow(context.Context, jobs.RunNow) (*jobs.WaitGetRunJobTerminatedOrSkipped[jobs.RunNowResponse], error) {
	return &jobs.WaitGetRunJobTerminatedOrSkipped[jobs.RunNowResponse]{RunId: 7}, nil
}

func (f *fakeJobs) GetRun(context.Context, jobs.GetRunRequest) (*jobs.Run, error) {
	state := f.states[min(f.getRuns, len(f.states)-1)]
	f.getRuns++
	return &jobs.Run{
		RunId: 7,
		State: &jobs.RunState{LifeCycleState: state},
	}, nil
}

func (f *fakeJobs) CancelRun(context.Context, jobs.CancelRun) (*jobs.WaitGetRunJobTerminatedOrSkipped[struct{}], error) {
	return &jobs.WaitGetRunJobTerminatedOrSkipped[struct{}]{RunId: 7}, nil
}

func (f *fakeJobs) Submit(context.Context, jobs.SubmitRun) (*jobs.WaitGetRunJobTerminatedOrSkipped[jobs.SubmitRunResponse], error) {
	return &jobs.WaitGetRunJobTerminatedOrSkipped[jobs.SubmitRunResponse]{RunId: 7}, nil
}

type fakeWorkspace struct {
	imports []workspace.Import
}

func (f *fakeWorkspace) Import(_ context.Context, req workspace.Import) error {
	f.imports = append(f.imports, req)
	return nil
}

func newFakeClient(j jobsAPI, w workspaceAPI) *Client {
	logger, _ := test.NewNullLogger()
	return &Client{
		log:          logger,
		workspaceURL: "https://adb.example.net",
		pollInterval: time.Millisecond,
		jobs:         j,
		workspace:    w,
	}
}

func TestExecuteNotebook(t *testing.T) {
	t.Run("polls until the run terminates", func(t *testing.T) {
		fake := &fakeJobs{states: []jobs.RunLifeCycleState{
			jobs.RunLifeCycleStatePending,
			jobs.RunLifeCycleStateRunning,
			jobs.RunLifeCycleStateTerminated,
		}}
		c := newFakeClient(fake, nil)

		result, err := c.ExecuteNotebook(context.Background(), "/Shared/etl", "cluster-1", nil, time.Second)
		require.NoError(t, err)
		assert.Equal(t, int64(7), result.RunID)
		assert.Equal(t, string(jobs.RunLifeCycleStateTerminated), result.Status)
	})

	t.Run("budget exhaustion returns the last status without error", func(t *testing.T) {
		fake := &fakeJobs{states: []jobs.RunLifeCycleState{jobs.RunLifeCycleStateRunning}}
		c := newFakeClient(fake, nil)

		result, err := c.ExecuteNotebook(context.Background(), "/Shared/etl", "cluster-1", nil, 20*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, string(jobs.RunLifeCycleStateRunning), result.Status)
	})
}

func TestUploadNotebook(t *testing.T) {
	ws := &fakeWorkspace{}
	c := newFakeClient(nil, ws)

	err := c.UploadNotebook(context.Background(), "/Shared/etl", "print('hello')", workspace.LanguagePython)
	require.NoError(t, err)
	require.Len(t, ws.imports, 1)
	assert.Equal(t, "/Shared/etl", ws.imports[0].Path)
	assert.True(t, ws.imports[0].Overwrite)
	assert.NotEqual(t, "print('hello')", ws.imports[0].Content) // base64 encoded
}
