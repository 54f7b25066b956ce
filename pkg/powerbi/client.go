// Package powerbi implements a client for the Power BI REST API. There is
// no official Go SDK for this surface, so the client carries its own HTTP
// layer: bearer-token auth via Azure AD, JSON request/response handling,
// continuation-token pagination for the admin activity feed, and polling
// for asynchronous report exports.
package powerbi

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
	"golang.org/x/time/rate"

	"github.com/datakraft/azurekit/pkg/errs"
)

const (
	defaultBaseURL = "https://api.powerbi.com/v1.0/myorg"
	tokenScope     = "https://analysis.windows.net/powerbi/api/.default"

	// Power BI throttles at roughly 120 requests per minute per user.
	requestsPerSecond = 2
)

// Client talks to the Power BI REST API. The access token is acquired once
// at construction and reused for the lifetime of the client; it is not
// refreshed on expiry.
type Client struct {
	log         log.FieldLogger
	baseURL     string
	httpClient  *http.Client
	accessToken string
	limiter     *rate.Limiter

	pollInterval   time.Duration
	exportAttempts int
}

// Option overrides a client default, mostly for tests.
type Option func(*options)

type options struct {
	baseURL      string
	httpClient   *http.Client
	credential   azcore.TokenCredential
	pollInterval time.Duration
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) { o.httpClient = httpClient }
}

// WithCredential bypasses credential selection and uses the given
// credential for token acquisition.
func WithCredential(cred azcore.TokenCredential) Option {
	return func(o *options) { o.credential = cred }
}

// WithPollInterval changes the export polling interval.
func WithPollInterval(interval time.Duration) Option {
	return func(o *options) { o.pollInterval = interval }
}

// New builds a Power BI client, selecting an auth flow from the supplied
// credentials and acquiring an access token before returning.
func New(ctx context.Context, creds Credentials, logger log.FieldLogger, opts ...Option) (*Client, error) {
	o := options{
		baseURL:      defaultBaseURL,
		httpClient:   http.DefaultClient,
		pollInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cred := o.credential
	if cred == nil {
		var err error
		cred, err = selectCredential(creds)
		if err != nil {
			return nil, err
		}
	}

	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{tokenScope}})
	if err != nil {
		return nil, errs.E(errs.KindAuthentication, "powerbi.new", err)
	}
	if token.Token == "" {
		return nil, errs.Errorf(errs.KindAuthentication, "powerbi.new", "token response contained no access token")
	}

	logger.Info("initialized powerbi client")

	return &Client{
		log:            logger,
		baseURL:        strings.TrimRight(o.baseURL, "/"),
		httpClient:     o.httpClient,
		accessToken:    token.Token,
		limiter:        rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		pollInterval:   o.pollInterval,
		exportAttempts: 60,
	}, nil
}

// do issues a single API request, decoding the JSON response into out when
// out is non-nil and the body is non-empty. Non-2xx responses become
// vendor errors carrying the response body.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body, out any) error {
	data, err := c.doRaw(ctx, method, endpoint, params, body)
	if err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errs.E(errs.KindVendor, "powerbi."+endpoint, fmt.Errorf("decoding response: %w", err))
		}
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, endpoint string, params url.Values, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.E(errs.KindVendor, "powerbi."+endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.E(errs.KindVendor, "powerbi."+endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.Errorf(errs.KindVendor, "powerbi."+endpoint, "%s %s: status %d: %s", method, endpoint, resp.StatusCode, data)
	}
	return data, nil
}

// groupScoped prefixes the endpoint with the workspace path when a group id
// is given.
func groupScoped(groupID, endpoint string) string {
	if groupID == "" {
		return endpoint
	}
	return fmt.Sprintf("groups/%s/%s", url.PathEscape(groupID), endpoint)
}
