package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookspp_http_requests_total",
		Help: "Total number of HTTP requests served by the web UI",
	}, []string{"method", "route", "status"})

	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookspp_http_request_duration_seconds",
		Help:    "Duration of web UI requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookspp_upstream_requests_total",
		Help: "Calls made to the Open Library API by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookspp_upstream_request_duration_seconds",
		Help:    "Duration of Open Library API calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookspp_active_sessions",
		Help: "Number of browser sessions held in memory",
	})
)
