package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_portal_gateway_requests_total",
		Help: "Requests sent to the REST backend, by operation and outcome",
	}, []string{"operation", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "events_portal_gateway_request_duration_seconds",
		Help:    "Latency of requests sent to the REST backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
