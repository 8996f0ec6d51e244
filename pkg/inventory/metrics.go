package inventory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Assembly metrics
	assembleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taxon_assemble_duration_seconds",
			Help:    "Duration of inventory assembly in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	assembleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxon_assemble_total",
			Help: "Total number of inventory assembly attempts",
		},
		[]string{"status"}, // success or error
	)

	skippedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxon_assemble_skipped_records_total",
			Help: "Total number of malformed input records skipped",
		},
		[]string{"entity"}, // cluster, node, namespace, deployment, pod
	)

	anomalyGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "taxon_assemble_anomalies",
			Help: "Anomaly counts from the last completed assembly",
		},
		[]string{"kind"}, // cluster_stubs, namespace_stubs, deployment_stubs, standalone_pods
	)
)
