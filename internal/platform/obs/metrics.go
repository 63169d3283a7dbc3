package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "courier_route"

var (
	OpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Time taken by named internal operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	OpErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_errors_total",
		Help:      "The total number of failed internal operations",
	}, []string{"op"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "The total number of HTTP requests served",
	}, []string{"method", "status"})

	RoutePlansComputed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_plans_computed_total",
		Help:      "The total number of route plans built",
	})

	ETAFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "eta_fallbacks_total",
		Help:      "The total number of ETA computations degraded to the heuristic",
	})
)
