package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	require.NoError(t, metrics.Track("users:snapshot:warmup").End(nil))
	failure := errors.New("backend down")
	assert.Same(t, failure, metrics.Track("users:snapshot:warmup").End(failure))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("users:snapshot:warmup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("users:snapshot:warmup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("users:snapshot:warmup")))
}

func TestSnapshotRecordsGauge(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.SetSnapshotRecords(47)
	assert.Equal(t, 47.0, testutil.ToFloat64(metrics.snapshotRecords))
	metrics.SetSnapshotRecords(-1)
	assert.Equal(t, 47.0, testutil.ToFloat64(metrics.snapshotRecords))
}

func TestSnapshotVersionGauge(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.SetSnapshotVersion(9)
	assert.Equal(t, 9.0, testutil.ToFloat64(metrics.snapshotVersion))
}

func TestNilMetricsTrackerIsNoop(t *testing.T) {
	var metrics *Metrics
	err := errors.New("boom")
	assert.Same(t, err, metrics.Track("any").End(err))
	metrics.SetSnapshotRecords(3)
	metrics.SetSnapshotVersion(3)
}
