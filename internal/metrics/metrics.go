package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novel_downloader_jobs_started_total",
		Help: "Total number of download jobs started",
	})

	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novel_downloader_jobs_completed_total",
		Help: "Total number of download jobs that wrote an artifact",
	})

	JobsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novel_downloader_jobs_cancelled_total",
		Help: "Total number of download jobs cancelled",
	})

	JobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novel_downloader_jobs_failed_total",
		Help: "Total number of download jobs that ended in failure",
	})

	UnitAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novel_downloader_unit_attempts_total",
		Help: "Total number of chapter fetch attempts",
	})

	UnitRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novel_downloader_unit_retries_total",
		Help: "Total number of chapter fetch attempts that failed and were retried",
	})

	UnitPlaceholders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novel_downloader_unit_placeholders_total",
		Help: "Total number of chapters replaced by a failure placeholder",
	})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "novel_downloader_fetch_duration_seconds",
		Help:    "Chapter fetch duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	ArtifactBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novel_downloader_artifact_bytes_total",
		Help: "Total bytes written to artifacts",
	})
)
