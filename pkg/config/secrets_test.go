package config

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakraft/azurekit/pkg/errs"
)

func newTestSecrets() *Secrets {
	logger, _ := test.NewNullLogger()
	return NewSecrets(logger)
}

func TestSecretsMemoryShadowsEnvironment(t *testing.T) {
	t.Setenv("API_KEY", "from-env")

	secrets := newTestSecrets()
	secrets.Set("api.key", "from-memory")

	value, ok := secrets.Get("api.key")
	require.True(t, ok)
	assert.Equal(t, "from-memory", value)
}

func TestSecretsEnvironmentFallback(t *testing.T) {
	t.Setenv("API_KEY", "from-env")

	secrets := newTestSecrets()

	value, ok := secrets.Get("api.key")
	require.True(t, ok)
	assert.Equal(t, "from-env", value)
}

func TestSecretsRequireMissing(t *testing.T) {
	secrets := newTestSecrets()

	_, err := secrets.Require("absent.secret")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindSecret))
}

func TestSecretsClear(t *testing.T) {
	secrets := newTestSecrets()
	secrets.Set("one", "1")
	secrets.Set("two", "2")
	require.Equal(t, 2, secrets.Len())

	secrets.Clear()
	assert.Equal(t, 0, secrets.Len())

	_, ok := secrets.Get("one")
	assert.False(t, ok)
}
