package central

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Central API client metrics
	collectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taxon_central_collect_duration_seconds",
			Help:    "Time taken to collect all collections from the central API",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taxon_central_request_duration_seconds",
			Help:    "Duration of individual central API requests",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"endpoint"}, // clusters, nodes, namespaces, deployments, pods
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxon_central_requests_total",
			Help: "Total number of central API requests",
		},
		[]string{"endpoint", "status"}, // status: success or error
	)

	requestRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taxon_central_request_retries_total",
			Help: "Total number of central API request retries",
		},
	)
)
