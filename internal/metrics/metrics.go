package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yamdb_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Domain Metrics
	ReviewMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_review_mutations_total",
			Help: "Review mutations that triggered a title rating recompute",
		},
		[]string{"kind"}, // created, updated, deleted
	)

	MailDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_mail_dispatches_total",
			Help: "Confirmation mail dispatch attempts by outcome",
		},
		[]string{"outcome"}, // sent, failed, suppressed
	)
)
