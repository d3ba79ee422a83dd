// Package metrics holds Prometheus instruments that are used across the
// sign-in client and the development endpoint.  All collectors are
// registered with the global registry, so mounting promhttp.Handler() is
// enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signin_submit_total",
			Help: "Sign-in submit triggers by outcome (success, validation, transport, busy).",
		},
		[]string{"outcome"},
	)

	DispatchSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signin_dispatch_seconds",
			Help:    "Time spent waiting on the sign-in transport.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transport"},
	)

	EndpointRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signin_endpoint_requests_total",
			Help: "Requests served by the login endpoint, by HTTP status code.",
		},
		[]string{"code"},
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signin_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		})
)

func init() {
	prometheus.MustRegister(
		SubmitTotal,
		DispatchSeconds,
		EndpointRequestsTotal,
		RateLimitedTotal,
	)
}
