// Package metrics exposes Prometheus instrumentation for the scan, merge,
// and commit paths.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScanPlanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strata_scan_plan_duration_seconds",
			Help:    "Time taken to resolve a scan request into a plan",
			Buckets: prometheus.DefBuckets,
		},
	)

	ManifestsRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strata_manifests_read_total",
			Help: "Total number of manifest files read while planning scans",
		},
	)

	ManifestsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strata_manifests_pruned_total",
			Help: "Total number of manifest files skipped by partition stats pruning",
		},
	)

	ManifestEntriesFolded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_manifest_entries_folded_total",
			Help: "Total number of manifest entries folded into a scan plan, by kind",
		},
		[]string{"kind"},
	)

	CorruptManifestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strata_corrupt_manifests_total",
			Help: "Total number of manifests rejected for violating the add/delete fold invariant",
		},
	)

	MergeReadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strata_merge_read_duration_seconds",
			Help:    "Time taken to stream a merge-tree read to completion",
			Buckets: prometheus.DefBuckets,
		},
	)

	RowsEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strata_rows_emitted_total",
			Help: "Total number of rows emitted by the merge-tree reader",
		},
	)

	CommitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strata_commit_duration_seconds",
			Help:    "Time taken to commit a new snapshot, by commit kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	CommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_commits_total",
			Help: "Total number of snapshots committed, by commit kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		ScanPlanDuration,
		ManifestsRead,
		ManifestsPruned,
		ManifestEntriesFolded,
		CorruptManifestsTotal,
		MergeReadDuration,
		RowsEmitted,
		CommitDuration,
		CommitsTotal,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed wall-clock time for a single operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
