package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ingestRecordsTotal.
const (
	outcomeAccepted    = "accepted"
	outcomeConflicting = "conflicting"
	outcomeMalformed   = "malformed"
)

var (
	ingestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hospitals_ingest_records_total",
			Help: "Total number of uploaded hospital records by outcome",
		},
		[]string{"outcome"},
	)

	ingestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hospitals_ingest_batch_size",
			Help:    "Number of records per upload batch",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		},
	)

	ingestBatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hospitals_ingest_batch_failures_total",
			Help: "Total number of upload batches aborted by a store failure",
		},
	)
)
