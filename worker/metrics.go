package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settle_transitions_total",
		Help: "Number of transaction status transitions.",
	}, []string{"worker", "from", "to"})

	batchErrorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settle_batch_errors_total",
		Help: "Number of per transaction errors reported by worker batches.",
	}, []string{"worker"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settle_batch_duration_seconds",
		Help:    "Duration of worker batches.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"worker"})

	statusGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "settle_transactions",
		Help: "Number of transactions per status.",
	}, []string{"status"})
)
