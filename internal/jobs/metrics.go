package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs            *prometheus.CounterVec
	failures        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	snapshotRecords prometheus.Gauge
	snapshotVersion prometheus.Gauge
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// SetSnapshotRecords records the size of the last warmed users snapshot.
func (m *Metrics) SetSnapshotRecords(count int) {
	if m == nil || count < 0 {
		return
	}
	m.snapshotRecords.Set(float64(count))
}

// SetSnapshotVersion records the latest snapshot version seen on the
// invalidation channel.
func (m *Metrics) SetSnapshotVersion(ver int64) {
	if m == nil {
		return
	}
	m.snapshotVersion.Set(float64(ver))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "useradmin_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "useradmin_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "useradmin_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	records := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "useradmin_users_snapshot_records",
		Help: "Number of user records in the last warmed snapshot.",
	})
	version := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "useradmin_users_snapshot_version",
		Help: "Latest users snapshot version announced by a mutation.",
	})
	registerer.MustRegister(runs, failures, duration, records, version)
	return &Metrics{
		runs:            runs,
		failures:        failures,
		duration:        duration,
		snapshotRecords: records,
		snapshotVersion: version,
	}
}
