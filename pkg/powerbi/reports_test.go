package powerbi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakraft/azurekit/pkg/errs"
)

// exportHandler serves the three-phase export flow: start, status polls,
// file download. statuses is consumed one entry per status poll; the last
// entry repeats once exhausted.
type exportHandler struct {
	statuses    []string
	statusPolls int
	fileContent []byte
}

func (h *exportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/Export"):
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "export-1"})
	case strings.HasSuffix(r.URL.Path, "/file"):
		_, _ = w.Write(h.fileContent)
	default:
		i := h.statusPolls
		if i >= len(h.statuses) {
			i = len(h.statuses) - 1
		}
		h.statusPolls++
		_ = json.NewEncoder(w).Encode(map[string]string{"status": h.statuses[i]})
	}
}

func TestExportReportPollsUntilSucceeded(t *testing.T) {
	handler := &exportHandler{
		statuses:    []string{"Running", "Running", "Succeeded"},
		fileContent: []byte("%PDF-1.7 fake"),
	}
	client := newTestClient(t, handler)

	content, err := client.ExportReport(context.Background(), "rep-1", "PDF", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 fake"), content)
	assert.Equal(t, 3, handler.statusPolls)
}

func TestExportReportTimesOutAfterAttemptBudget(t *testing.T) {
	handler := &exportHandler{statuses: []string{"Running"}}
	client := newTestClient(t, handler)

	_, err := client.ExportReport(context.Background(), "rep-1", "PDF", "")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindExportTimeout))
	assert.Equal(t, 60, handler.statusPolls)
}

func TestExportReportFailedJob(t *testing.T) {
	handler := &exportHandler{statuses: []string{"Running", "Failed"}}
	client := newTestClient(t, handler)

	_, err := client.ExportReport(context.Background(), "rep-1", "PDF", "")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindExportFailed))
	assert.Equal(t, 2, handler.statusPolls)
}

func TestCloneReport(t *testing.T) {
	var gotBody map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/rep-1/Clone", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "rep-2", "name": gotBody["name"]})
	}))

	report, err := client.CloneReport(context.Background(), "rep-1", "copy", "ws-2", "")
	require.NoError(t, err)
	assert.Equal(t, "rep-2", report.ID)
	assert.Equal(t, map[string]string{"name": "copy", "targetWorkspaceId": "ws-2"}, gotBody)
}
