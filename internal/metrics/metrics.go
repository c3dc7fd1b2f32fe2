package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocapture_backend_requests_total",
			Help: "Requests sent to the snapshots backend",
		},
		[]string{"operation", "outcome"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photocapture_backend_request_duration_seconds",
			Help:    "Duration of snapshots backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocapture_cache_lookups_total",
			Help: "Cache lookups by result (hit, stale, miss)",
		},
		[]string{"key", "result"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocapture_cache_invalidations_total",
			Help: "Cache entries marked stale",
		},
		[]string{"key"},
	)

	CameraSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocapture_camera_sessions_total",
			Help: "Camera sessions by outcome (captured, cancelled, failed)",
		},
		[]string{"slot", "outcome"},
	)

	PreviewHandles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocapture_preview_handles",
			Help: "Outstanding local preview handles",
		},
	)

	PreviewViewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocapture_preview_viewers",
			Help: "Connected live preview websocket clients",
		},
	)
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
