package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredMetricsAreGatherable(t *testing.T) {
	registry := prometheus.NewRegistry()
	Register(registry)

	ObserveOperation("test.operation", 0.25, false)
	ObserveOperation("test.operation", 1.5, true)

	families, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]bool, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = true
	}
	assert.True(t, byName["azurekit_operations_total"])
	assert.True(t, byName["azurekit_operation_duration_seconds"])
}

func TestObserveOperationCountsByStatus(t *testing.T) {
	failed := OperationsTotal.WithLabelValues("test.counted", StatusFailed)
	success := OperationsTotal.WithLabelValues("test.counted", StatusSuccess)

	before := testutil.ToFloat64(failed)
	ObserveOperation("test.counted", 0.1, true)

	assert.Equal(t, before+1, testutil.ToFloat64(failed))
	assert.Equal(t, float64(0), testutil.ToFloat64(success))
}
