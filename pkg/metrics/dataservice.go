package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DataServiceMetrics records calls made against the data/auth backend.
type DataServiceMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
}

// NewDataServiceMetrics registers the data-service metrics on the provided registerer.
func NewDataServiceMetrics(reg prometheus.Registerer) *DataServiceMetrics {
	if reg == nil {
		return &DataServiceMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dataservice_call_duration_seconds",
		Help:    "Duration of data service calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataservice_call_failures_total",
		Help: "Failed data service calls by error code.",
	}, []string{"operation", "table", "code"})
	reg.MustRegister(duration, failure)
	return &DataServiceMetrics{duration: duration, failure: failure}
}

// ObserveCall records the latency of one call.
func (m *DataServiceMetrics) ObserveCall(operation, table string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation), normalizeLabel(table)).Observe(elapsed.Seconds())
}

// IncFailure counts a failed call under its error code.
func (m *DataServiceMetrics) IncFailure(operation, table, code string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(operation), normalizeLabel(table), normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
