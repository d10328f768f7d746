package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Number of portal HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Portal HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_client_requests_total",
			Help: "Requests issued to upstream APIs.",
		},
		[]string{"method", "route", "status"},
	)

	ClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_client_request_duration_seconds",
			Help:    "Upstream request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ListFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_list_fetches_total",
			Help: "Page window fetches by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)
