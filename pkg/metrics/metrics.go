package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	LabelOperation = "operation"
	LabelStatus    = "status"

	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azurekit_operations_total",
			Help: "Number of client operations performed, by operation and outcome",
		},
		[]string{LabelOperation, LabelStatus},
	)
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "azurekit_operation_duration_seconds",
			Help:    "Duration of client operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{LabelOperation},
	)
)

func AllMetrics() []prometheus.Collector {
	return []prometheus.Collector{
		OperationsTotal,
		OperationDuration,
	}
}

func Register(registry prometheus.Registerer) {
	registry.MustRegister(AllMetrics()...)
}

func ObserveOperation(operation string, seconds float64, failed bool) {
	status := StatusSuccess
	if failed {
		status = StatusFailed
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(seconds)
}
