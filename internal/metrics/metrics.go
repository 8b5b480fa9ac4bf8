// Package metrics holds the Prometheus collectors for backup runs and retention.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dir_archiver"

// Trigger label values.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// RunsTotal counts finished backup runs.
	// Labels: trigger (manual, scheduled), outcome (success, failure)
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "runs_total",
		Help:      "Total backup runs by trigger and outcome",
	}, []string{"trigger", "outcome"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "run_duration_seconds",
		Help:      "Backup run duration in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 3600},
	})

	LastRunBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "last_run_bytes",
		Help:      "Bytes listed in the manifest of the last successful run",
	})

	LastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run",
	})

	CopiedFiles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "copy_files_total",
		Help:      "Files copied into snapshots",
	})

	Snapshots = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshots",
		Help:      "Complete snapshots present under the backups root",
	})

	RetentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retention",
		Name:      "deleted_total",
		Help:      "Snapshots deleted by retention",
	})

	RetentionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retention",
		Name:      "failures_total",
		Help:      "Snapshots retention failed to delete",
	})
)
