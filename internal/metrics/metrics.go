// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidtube_pipeline_duration_seconds",
			Help:    "Duration of aggregation pipeline executions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection", "outcome"},
	)

	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_store_operations_total",
			Help: "Document store operations by collection, operation and outcome",
		},
		[]string{"collection", "operation", "outcome"},
	)

	Toggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_toggles_total",
			Help: "Toggle operations by kind and resulting state",
		},
		[]string{"kind", "state"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidtube_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	ViewQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidtube_view_queue_depth",
			Help: "Pending view recordings waiting for a worker",
		},
	)

	ViewRecordings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_view_recordings_total",
			Help: "View recordings by outcome",
		},
		[]string{"outcome"},
	)

	MediaBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidtube_media_breaker_state",
			Help: "Media store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordPipeline observes one pipeline execution.
func RecordPipeline(collection string, duration time.Duration, err error) {
	PipelineDuration.WithLabelValues(collection, outcome(err)).Observe(duration.Seconds())
}

// RecordStoreOp counts one store operation.
func RecordStoreOp(collection, operation string, err error) {
	StoreOperations.WithLabelValues(collection, operation, outcome(err)).Inc()
}

// RecordToggle counts a toggle landing in the given state.
func RecordToggle(kind string, present bool) {
	Toggles.WithLabelValues(kind, strconv.FormatBool(present)).Inc()
}

// RecordHTTPRequest observes one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
