package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_exports_total",
			Help: "Total number of export attempts.",
		},
		[]string{"status"}, // success, failure, duplicate
	)

	ExportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archive_export_duration_seconds",
			Help:    "Duration of export operations.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_api_calls_total",
			Help: "Total number of calls to the remote content API.",
		},
		[]string{"op", "outcome"},
	)

	AttachmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_attachments_total",
			Help: "Attachments processed during exports.",
		},
		[]string{"status"}, // ok, empty, failed
	)

	ArchiveReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_reads_total",
			Help: "Archive entry lookups by outcome.",
		},
		[]string{"outcome"}, // served, not_found
	)

	MirrorUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_mirror_uploads_total",
			Help: "Archive uploads to the object storage mirror.",
		},
		[]string{"outcome"},
	)
)
