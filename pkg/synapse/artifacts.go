package synapse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	log "github.com/sirupsen/logrus"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

const (
	artifactsScope      = "https://dev.azuresynapse.net/.default"
	artifactsAPIVersion = "2020-12-01"
)

// PipelineRun is the data-plane view of a pipeline run in the workspace.
type PipelineRun struct {
	RunID        string         `json:"runId"`
	PipelineName string         `json:"pipelineName"`
	Status       string         `json:"status"`
	Parameters   map[string]any `json:"parameters"`
	RunStart     *time.Time     `json:"runStart"`
	RunEnd       *time.Time     `json:"runEnd"`
	Message      string         `json:"message"`
}

// PipelineResource is a pipeline definition as listed by the workspace.
type PipelineResource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// artifactsClient speaks the Synapse artifacts REST API on the workspace
// dev endpoint, authenticating with a bearer token from the credential.
type artifactsClient struct {
	endpoint   string
	credential azcore.TokenCredential
	httpClient *http.Client
	log        log.FieldLogger
}

func newArtifactsClient(endpoint string, cred azcore.TokenCredential, httpClient *http.Client, logger log.FieldLogger) *artifactsClient {
	return &artifactsClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		credential: cred,
		httpClient: httpClient,
		log:        logger,
	}
}

func (a *artifactsClient) do(ctx context.Context, method, path string, body, out any) error {
	token, err := a.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{artifactsScope}})
	if err != nil {
		return errs.E(errs.KindAuthentication, "synapse.artifacts", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	u := fmt.Sprintf("%s%s?%s", a.endpoint, path, url.Values{"api-version": {artifactsAPIVersion}}.Encode())
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return errs.E(errs.KindVendor, "synapse.artifacts", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.E(errs.KindVendor, "synapse.artifacts", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.Errorf(errs.KindVendor, "synapse.artifacts", "%s %s: status %d: %s", method, path, resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errs.E(errs.KindVendor, "synapse.artifacts", fmt.Errorf("decoding response: %w", err))
		}
	}
	return nil
}

// CreatePipelineRun starts a run of a workspace pipeline and returns the
// run id.
func (c *Client) CreatePipelineRun(ctx context.Context, pipelineName string, parameters map[string]any) (string, error) {
	op := logging.Begin(c.log, "synapse.create_pipeline_run", log.Fields{"pipeline": pipelineName})

	var result struct {
		RunID string `json:"runId"`
	}
	path := fmt.Sprintf("/pipelines/%s/createRun", url.PathEscape(pipelineName))
	if err := c.artifacts.do(ctx, http.MethodPost, path, parameters, &result); err != nil {
		return "", op.Done(err)
	}

	_ = op.Done(nil)
	return result.RunID, nil
}

func (c *Client) GetPipelineRun(ctx context.Context, runID string) (PipelineRun, error) {
	op := logging.Begin(c.log, "synapse.get_pipeline_run", log.Fields{"run_id": runID})

	var run PipelineRun
	path := fmt.Sprintf("/pipelineruns/%s", url.PathEscape(runID))
	if err := c.artifacts.do(ctx, http.MethodGet, path, nil, &run); err != nil {
		return PipelineRun{}, op.Done(err)
	}

	_ = op.Done(nil)
	return run, nil
}

func (c *Client) CancelPipelineRun(ctx context.Context, runID string) error {
	op := logging.Begin(c.log, "synapse.cancel_pipeline_run", log.Fields{"run_id": runID})

	path := fmt.Sprintf("/pipelineruns/%s/cancel", url.PathEscape(runID))
	return op.Done(c.artifacts.do(ctx, http.MethodPost, path, nil, nil))
}

func (c *Client) ListPipelines(ctx context.Context) ([]PipelineResource, error) {
	op := logging.Begin(c.log, "synapse.list_pipelines", nil)

	var result struct {
		Value []PipelineResource `json:"value"`
	}
	if err := c.artifacts.do(ctx, http.MethodGet, "/pipelines", nil, &result); err != nil {
		return nil, op.Done(err)
	}

	_ = op.Done(nil)
	return result.Value, nil
}
