package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Push ingestion metrics
	PushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsight_push_pushes_total",
			Help: "Total number of pushes received",
		},
		[]string{"endpoint", "status"},
	)

	PushBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowsight_push_bytes_total",
			Help: "Total bytes of push payload data received",
		},
	)

	DecodeFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsight_push_decode_fallbacks_total",
			Help: "Pushes handled per decoder in the tolerant decode chain",
		},
		[]string{"decoder"},
	)

	// Blob store metrics
	StoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowsight_push_store_duration_seconds",
			Help:    "Duration of blob store writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowsight_push_store_errors_total",
			Help: "Total number of blob store failures",
		},
	)

	RecordsListedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowsight_push_records_listed_total",
			Help: "Total number of records returned by the listing endpoint",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowsight_push_rate_limit_hits_total",
			Help: "Total number of pushes rejected by the rate limiter",
		},
	)

	// Readings mirror metrics
	MirrorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowsight_push_mirror_errors_total",
			Help: "Total number of failed readings-mirror writes",
		},
	)
)
