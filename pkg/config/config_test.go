package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakraft/azurekit/pkg/errs"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	logger, _ := test.NewNullLogger()
	manager, err := New(append(opts, WithLogger(logger))...)
	require.NoError(t, err)
	return manager
}

func TestEnvironmentShadowsFile(t *testing.T) {
	path := writeConfigFile(t, "azure:\n  subscription_id: from-file\n")
	t.Setenv("AZURE_SUBSCRIPTION_ID", "from-env")

	manager := newTestManager(t, WithConfigFile(path))
	assert.Equal(t, "from-env", manager.GetString(AzureSubscriptionID))
}

func TestFileValueWithoutEnvironment(t *testing.T) {
	path := writeConfigFile(t, "azure:\n  sql:\n    server: db.example.com\n")

	manager := newTestManager(t, WithConfigFile(path))
	assert.Equal(t, "db.example.com", manager.GetString(AzureSQLServer))
}

func TestGetOrReturnsDefault(t *testing.T) {
	manager := newTestManager(t)
	assert.Equal(t, "fallback", manager.GetOr("missing.key", "fallback"))
}

func TestRequireMissingKey(t *testing.T) {
	manager := newTestManager(t)

	_, err := manager.Require("missing.key")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestSetCreatesIntermediateLevels(t *testing.T) {
	manager := newTestManager(t)

	manager.Set("a.b.c", "deep")
	assert.Equal(t, "deep", manager.GetString("a.b.c"))
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	manager := newTestManager(t)

	err := manager.Save(filepath.Join(t.TempDir(), "config.toml"))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestSaveAndReload(t *testing.T) {
	manager := newTestManager(t)
	manager.Set("azure.sql.database", "analytics")

	path := filepath.Join(t.TempDir(), "saved", "config.yaml")
	require.NoError(t, manager.Save(path))

	reloaded := newTestManager(t, WithConfigFile(path))
	assert.Equal(t, "analytics", reloaded.GetString(AzureSQLDatabase))
}

func TestUnmarshalUsesJSONTags(t *testing.T) {
	path := writeConfigFile(t, "powerbi:\n  client_id: app-1\n  tenant_id: tenant-1\n")
	manager := newTestManager(t, WithConfigFile(path))

	var out struct {
		ClientID string `json:"client_id"`
		TenantID string `json:"tenant_id"`
	}
	require.NoError(t, manager.Unmarshal("powerbi", &out))
	assert.Equal(t, "app-1", out.ClientID)
	assert.Equal(t, "tenant-1", out.TenantID)
}
