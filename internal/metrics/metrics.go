// Package metrics holds the Prometheus collectors of the service.
// They are package-level so any layer can record without plumbing; main
// registers them once with RegisterCollectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "editorialchain"

// Reconciliation outcome labels beyond the streak decisions.
const (
	OutcomeFallback = "fallback" // store failed, identity-only view
	OutcomeSignOut  = "sign_out"
)

var (
	Reconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "reconciliations_total", Help: "Session reconciliations by outcome."},
		[]string{"outcome"},
	)
	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: namespace, Name: "reconcile_duration_seconds", Help: "Time spent reconciling one identity event.", Buckets: prometheus.DefBuckets},
	)
	NewsRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "news_requests_total", Help: "Outbound news API requests by result."},
		[]string{"result"},
	)
	NewsCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "news_cache_total", Help: "News cache lookups by result (hit, miss, error)."},
		[]string{"result"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(Reconciliations)
	reg.MustRegister(ReconcileDuration)
	reg.MustRegister(NewsRequests)
	reg.MustRegister(NewsCache)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
