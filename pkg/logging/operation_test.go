package logging

import (
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationSuccess(t *testing.T) {
	logger, hook := test.NewNullLogger()

	op := Begin(logger, "test.operation", log.Fields{"resource": "thing-1"})
	err := op.Done(nil)
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)

	start := entries[0]
	assert.Equal(t, log.InfoLevel, start.Level)
	assert.Equal(t, "test.operation", start.Data["operation"])
	assert.Equal(t, "thing-1", start.Data["resource"])
	assert.NotEmpty(t, start.Data["operation_id"])

	done := entries[1]
	assert.Equal(t, log.InfoLevel, done.Level)
	assert.Equal(t, "success", done.Data["status"])
	assert.Contains(t, done.Data, "duration_seconds")
}

func TestOperationFailurePropagatesError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	boom := errors.New("boom")

	op := Begin(logger, "test.operation", nil)
	err := op.Done(boom)
	assert.Same(t, boom, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)

	done := entries[1]
	assert.Equal(t, log.ErrorLevel, done.Level)
	assert.Equal(t, "failed", done.Data["status"])
	assert.EqualError(t, done.Data[log.ErrorKey].(error), "boom")
}

func TestOperationIDsAreUnique(t *testing.T) {
	logger, hook := test.NewNullLogger()

	_ = Begin(logger, "test.operation", nil)
	_ = Begin(logger, "test.operation", nil)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].Data["operation_id"], entries[1].Data["operation_id"])
}
