package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bunkhouse_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bunkhouse_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	assignmentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bunkhouse_assignment_duration_seconds",
		Help:    "Duration of allocation transactions",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})

	versionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bunkhouse_version_conflicts_total",
		Help: "Count of optimistic concurrency conflicts on room writes",
	})

	rollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bunkhouse_rollbacks_total",
		Help: "Count of compensating releases after a failed bulk commit",
	}, []string{"result"})

	occupiedBeds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bunkhouse_occupied_beds",
		Help: "Number of currently occupied beds (logical state)",
	})

	holdsReaped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bunkhouse_holds_reaped_total",
		Help: "Count of expired reservation holds processed by the reaper",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAssignment records the duration of one allocation transaction with a
// result label.
func ObserveAssignment(operation, result string, duration time.Duration) {
	assignmentDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// ObserveVersionConflict increments the concurrency conflict counter.
func ObserveVersionConflict() {
	versionConflicts.Inc()
}

// ObserveRollback increments the rollback counter for the given result.
func ObserveRollback(result string) {
	rollbacks.WithLabelValues(result).Inc()
}

// ObserveHoldReaped increments the hold reaper counter.
func ObserveHoldReaped(result string) {
	holdsReaped.WithLabelValues(result).Inc()
}

// AddOccupiedBeds moves the occupied-bed gauge by delta (negative to release).
func AddOccupiedBeds(delta int) {
	occupiedBeds.Add(float64(delta))
}
