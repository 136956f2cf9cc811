package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankd_http_requests_total",
		Help: "HTTP requests handled, by method, route and status code.",
	}, []string{"method", "route", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bankd_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankd_transactions_total",
		Help: "Engine transactions recorded, by type and terminal state.",
	}, []string{"type", "state"})
)
