package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"method", "route", "status"},
	)

	transformsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridshift_transforms_total",
			Help: "Point transformations by format, direction and outcome.",
		},
		[]string{"format", "op", "outcome"},
	)

	transformDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridshift_transform_duration_seconds",
			Help:    "Latency of a single point transformation.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
		[]string{"format", "op"},
	)

	backwardIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridshift_backward_iterations",
			Help:    "Fixed-point iterations spent by backward transformations.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
		[]string{"format"},
	)

	gridLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridshift_grid_loads_total",
			Help: "Parameter grid resolutions by source (memory, snapshot, parse) and result.",
		},
		[]string{"format", "source", "result"},
	)

	gridLoadDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridshift_grid_load_duration_seconds",
			Help:    "Time to obtain a parameter grid.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"format", "source"},
	)

	gridEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridshift_grid_entries",
			Help: "Published meshcodes held by the loaded grid.",
		},
		[]string{"format"},
	)

	snapshotOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridshift_snapshot_ops_total",
			Help: "Snapshot store operations by result.",
		},
		[]string{"op", "result"},
	)

	snapshotOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridshift_snapshot_op_duration_seconds",
			Help:    "Latency of snapshot store operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	reloadEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridshift_reload_events_total",
			Help: "Parameter reload events by result.",
		},
		[]string{"result"},
	)
)

// Collectors returns every collector owned by this package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		transformsTotal,
		transformDurationSeconds,
		backwardIterations,
		gridLoadsTotal,
		gridLoadDurationSeconds,
		gridEntries,
		snapshotOpsTotal,
		snapshotOpDurationSeconds,
		reloadEventsTotal,
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveTransform(format, op, outcome string, durationSeconds float64) {
	transformsTotal.WithLabelValues(format, op, outcome).Inc()
	transformDurationSeconds.WithLabelValues(format, op).Observe(durationSeconds)
}

func ObserveBackwardIterations(format string, n int) {
	if n <= 0 {
		return
	}
	backwardIterations.WithLabelValues(format).Observe(float64(n))
}

func ObserveGridLoad(format, source string, err error, durationSeconds float64) {
	gridLoadsTotal.WithLabelValues(format, source, result(err)).Inc()
	gridLoadDurationSeconds.WithLabelValues(format, source).Observe(durationSeconds)
}

func SetGridEntries(format string, n int) {
	gridEntries.WithLabelValues(format).Set(float64(n))
}

func ObserveSnapshotOp(op string, err error, durationSeconds float64) {
	snapshotOpsTotal.WithLabelValues(op, result(err)).Inc()
	snapshotOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

// IncSnapshotMiss counts a lookup that found no stored snapshot.
func IncSnapshotMiss() {
	snapshotOpsTotal.WithLabelValues("get", "miss").Inc()
}

func IncReloadEvent(result string) {
	reloadEventsTotal.WithLabelValues(result).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
