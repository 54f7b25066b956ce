package logging

import (
	"testing"

	dbxlog "github.com/databricks/databricks-sdk-go/logger"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	logger, err := New(Options{})
	require.NoError(t, err)

	assert.Equal(t, log.InfoLevel, logger.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)
}

func TestNewJSONFormat(t *testing.T) {
	logger, err := New(Options{Level: "debug", Format: FormatJSON})
	require.NoError(t, err)

	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Options{Level: "shout"})
	require.Error(t, err)
}

func TestNewQuietsDatabricksSDKLogger(t *testing.T) {
	_, err := New(Options{})
	require.NoError(t, err)

	simple, ok := dbxlog.DefaultLogger.(*dbxlog.SimpleLogger)
	require.True(t, ok)
	assert.Equal(t, dbxlog.Level(dbxlog.LevelWarn), simple.Level)
}
