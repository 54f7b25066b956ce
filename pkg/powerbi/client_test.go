package powerbi

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
	"golang.org/x/time/rate"

	"github.com/datakraft/azurekit/pkg/errs"
)

type staticCredential struct {
	token string
}

func (s staticCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: s.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := test.NewNullLogger()
	client, err := New(context.Background(), Credentials{ClientID: "test-client"}, logger,
		WithCredential(staticCredential{token: "test-token"}),
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithPollInterval(time.Millisecond),
	)
	require.NoError(t, err)

	// Throttling is not under test here.
	client.limiter = rate.NewLimiter(rate.Inf, 1)
	return client
}

func TestNewRejectsEmptyToken(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := New(context.Background(), Credentials{ClientID: "test-client"}, logger,
		WithCredential(staticCredential{token: ""}),
	)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindAuthentication))
}

func TestRefreshDataset(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"requestId": "req-42"})
	}))

	requestID, err := client.RefreshDataset(context.Background(), "ds-1", "")
	require.NoError(t, err)
	assert.Equal(t, "req-42", requestID)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "/datasets/ds-1/refreshes", gotPath)
	assert.Equal(t, map[string]string{"notifyOption": "NoNotification"}, gotBody)
}

func TestGetDatasetsGroupScoped(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/ws-1/datasets", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]string{{"id": "ds-1", "name": "sales"}},
		})
	}))

	datasets, err := client.GetDatasets(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "sales", datasets[0].Name)
}

func TestErrorStatusBecomesVendorError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": "ItemNotFound"}}`, http.StatusNotFound)
	}))

	_, err := client.GetDataset(context.Background(), "missing", "")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindVendor))
	assert.Contains(t, err.Error(), "ItemNotFound")
}

func TestGetActivityEventsPagination(t *testing.T) {
	var calls int
	var secondCallToken string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/admin/activityevents", r.URL.Path)
		switch calls {
		case 1:
			assert.Equal(t, "'2026-08-29T00:00:00'", r.URL.Query().Get("startDateTime"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"activityEventEntities": []map[string]string{{"Id": "e1"}, {"Id": "e2"}},
				"continuationToken":     "next-page",
			})
		default:
			secondCallToken = r.URL.Query().Get("continuationToken")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"activityEventEntities": []map[string]string{{"Id": "e3"}},
				"continuationToken":     nil,
			})
		}
	}))

	start := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	events, err := client.GetActivityEvents(context.Background(), start, start.Add(8*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, "next-page", secondCallToken)
	require.Len(t, events, 3)
	assert.Equal(t, "e1", events[0]["Id"])
	assert.Equal(t, "e3", events[2]["Id"])
}
