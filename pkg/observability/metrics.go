package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClassificationsTotal counts pipeline outcomes by kind.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dinarko_classifications_total",
			Help: "Total number of classified notifications by outcome",
		},
		[]string{"outcome"},
	)

	// ClassifyDuration tracks how long one classification pass takes.
	ClassifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dinarko_classify_duration_seconds",
			Help:    "Classification pipeline duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	// ExtractionFailures counts Expense/Income classifications that
	// degraded to Unknown because no amount could be extracted.
	ExtractionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dinarko_amount_extraction_failures_total",
			Help: "Classified notifications with no extractable amount",
		},
	)

	// CapturesRecorded counts candidates committed to storage by type.
	CapturesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dinarko_captures_recorded_total",
			Help: "Total number of committed transaction candidates",
		},
		[]string{"type"},
	)

	// CapturesSuppressed counts candidates dropped by the dedup window.
	CapturesSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dinarko_captures_suppressed_total",
			Help: "Candidates suppressed as duplicates of a recent capture",
		},
	)

	// SourcesRejected counts notifications from non-whitelisted sources.
	SourcesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dinarko_sources_rejected_total",
			Help: "Notifications dropped because their source is not whitelisted",
		},
	)
)
