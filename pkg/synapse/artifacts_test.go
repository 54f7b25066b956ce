package synapse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakraft/azurekit/pkg/errs"
)

type staticCredential struct {
	token string
}

func (s staticCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: s.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func newArtifactsTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := test.NewNullLogger()
	return &Client{
		log:       logger,
		artifacts: newArtifactsClient(server.URL, staticCredential{token: "test-token"}, server.Client(), logger),
	}, server
}

func TestCreatePipelineRun(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	client, _ := newArtifactsTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		assert.Equal(t, artifactsAPIVersion, r.URL.Query().Get("api-version"))
		_ = json.NewEncoder(w).Encode(map[string]string{"runId": "run-123"})
	}))

	runID, err := client.CreatePipelineRun(context.Background(), "nightly-load", map[string]any{"day": "monday"})
	require.NoError(t, err)
	assert.Equal(t, "run-123", runID)
	assert.Equal(t, "/pipelines/nightly-load/createRun", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, map[string]any{"day": "monday"}, gotBody)
}

func TestGetPipelineRun(t *testing.T) {
	client, _ := newArtifactsTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pipelineruns/run-123", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"runId":        "run-123",
			"pipelineName": "nightly-load",
			"status":       "Succeeded",
		})
	}))

	run, err := client.GetPipelineRun(context.Background(), "run-123")
	require.NoError(t, err)
	assert.Equal(t, "Succeeded", run.Status)
	assert.Equal(t, "nightly-load", run.PipelineName)
}

func TestListPipelines(t *testing.T) {
	client, _ := newArtifactsTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]string{
				{"name": "nightly-load", "type": "Microsoft.Synapse/workspaces/pipelines"},
				{"name": "weekly-rollup", "type": "Microsoft.Synapse/workspaces/pipelines"},
			},
		})
	}))

	pipelines, err := client.ListPipelines(context.Background())
	require.NoError(t, err)
	require.Len(t, pipelines, 2)
	assert.Equal(t, "nightly-load", pipelines[0].Name)
}

func TestArtifactsErrorStatus(t *testing.T) {
	client, _ := newArtifactsTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
	}))

	_, err := client.GetPipelineRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindVendor))
}
