package metrics

import "github.com/prometheus/client_golang/prometheus"

// Routing Prometheus metrics.
var (
	RoutingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carpool",
			Name:      "routing_requests_total",
			Help:      "Total number of routing API requests",
		},
		[]string{"provider", "operation", "outcome"},
	)

	RoutingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carpool",
			Name:      "routing_request_duration_seconds",
			Help:      "Routing API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "operation"},
	)

	RouteCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carpool",
			Name:      "route_cache_total",
			Help:      "Route cache hits, misses and errors",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	RankedCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carpool",
			Name:      "ranked_candidates_total",
			Help:      "Candidates evaluated while ranking riders",
		},
		[]string{"outcome"}, // "scored" / "skipped"
	)
)

func init() {
	prometheus.MustRegister(RoutingRequestsTotal)
	prometheus.MustRegister(RoutingRequestDuration)
	prometheus.MustRegister(RouteCacheTotal)
	prometheus.MustRegister(RankedCandidatesTotal)
}
