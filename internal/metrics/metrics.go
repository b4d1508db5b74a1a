package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "psesync_runs_total",
			Help: "Total number of pipeline runs by terminal status",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "psesync_run_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "psesync_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed pipeline run",
		},
	)

	// Feed metrics
	FeedSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "psesync_feed_syncs_total",
			Help: "Total number of per-feed sync attempts",
		},
		[]string{"feed", "result"},
	)

	RowsTransformed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "psesync_rows_transformed_total",
			Help: "Total number of hourly rows transformed",
		},
		[]string{"feed"},
	)

	// Storage metrics
	SnapshotsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "psesync_snapshots_inserted_total",
			Help: "Day snapshot documents created (first write of a day)",
		},
	)

	SnapshotsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "psesync_snapshots_updated_total",
			Help: "Day snapshot documents updated (newest overwritten)",
		},
	)
)
