package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propside",
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "Total media uploads by type and outcome",
		},
		[]string{"media_type", "status"},
	)

	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propside",
			Subsystem: "media",
			Name:      "upload_bytes_total",
			Help:      "Total bytes ingested",
		},
		[]string{"media_type"},
	)

	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "propside",
			Subsystem: "media",
			Name:      "processing_duration_seconds",
			Help:      "Time spent decoding and generating variants for one item",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"media_type"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propside",
			Subsystem: "media",
			Name:      "storage_operations_total",
			Help:      "Blob backend operations by outcome",
		},
		[]string{"operation", "status"},
	)

	ScrapedItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propside",
			Subsystem: "media",
			Name:      "scraped_items_total",
			Help:      "Items produced by page scrapes",
		},
		[]string{"media_type", "status"},
	)

	ReconcileRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propside",
			Subsystem: "media",
			Name:      "reconcile_rows_total",
			Help:      "Ledger rows touched by reconciler jobs",
		},
		[]string{"job", "outcome"},
	)
)

// RecordUpload records one ingest attempt.
func RecordUpload(mediaType, status string, bytes int64) {
	UploadsTotal.WithLabelValues(mediaType, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(mediaType).Add(float64(bytes))
	}
}

// RecordProcessing records variant-generation time for one item.
func RecordProcessing(mediaType string, seconds float64) {
	ProcessingDuration.WithLabelValues(mediaType).Observe(seconds)
}

// RecordStorageOperation records a blob backend call.
func RecordStorageOperation(operation, status string) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordScrapedItem records a single scraped candidate outcome.
func RecordScrapedItem(mediaType, status string) {
	ScrapedItemsTotal.WithLabelValues(mediaType, status).Inc()
}

// RecordReconcileRow records a row outcome for a reconciler job.
func RecordReconcileRow(job, outcome string) {
	ReconcileRowsTotal.WithLabelValues(job, outcome).Inc()
}
