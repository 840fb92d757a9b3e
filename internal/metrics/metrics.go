// Package metrics provides Prometheus metrics for catalog backends and playback sessions.
// Labels stay low-cardinality: backend names, provider ids and outcomes only.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequestsTotal counts metadata backend calls by backend, operation and outcome (ok/error).
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zetflix_backend_requests_total",
		Help: "Total number of metadata backend calls, by backend, operation and outcome.",
	}, []string{"backend", "op", "outcome"})

	// BackendRequestDuration observes backend call latency as seen by the aggregator.
	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zetflix_backend_request_duration_seconds",
		Help:    "Latency of metadata backend calls, by backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	// PlaybackAttemptsTotal counts finished provider attempts by provider and outcome.
	PlaybackAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zetflix_playback_attempts_total",
		Help: "Total number of finished playback attempts, by provider and outcome.",
	}, []string{"provider", "outcome"})

	// PlaybackExhaustedTotal counts playback requests where every provider failed.
	PlaybackExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zetflix_playback_exhausted_total",
		Help: "Total number of playback requests that exhausted every provider.",
	})

	// ActiveSessions tracks playback sessions held by the HTTP API.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zetflix_active_sessions",
		Help: "Number of playback sessions currently held by the API server.",
	})
)

// Outcome maps an error to the "ok"/"error" outcome label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
