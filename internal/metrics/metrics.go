// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ShortLinkCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortlink_collisions_total",
		Help: "Short link tokens rejected by the unique constraint and regenerated.",
	})

	ShoppingListExports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopping_list_exports_total",
		Help: "Shopping list CSV files served.",
	})
)
