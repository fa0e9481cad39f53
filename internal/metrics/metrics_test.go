package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestManifestEntriesFoldedCounter(t *testing.T) {
	ManifestEntriesFolded.WithLabelValues("add").Inc()
	ManifestEntriesFolded.WithLabelValues("add").Inc()
	ManifestEntriesFolded.WithLabelValues("delete").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(ManifestEntriesFolded.WithLabelValues("add")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ManifestEntriesFolded.WithLabelValues("delete")))
}

func TestTimerObservesPositiveDuration(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	assert.Greater(t, timer.Duration(), time.Duration(0))
	timer.ObserveDuration(MergeReadDuration)
}

func TestCommitsTotalByKind(t *testing.T) {
	before := testutil.ToFloat64(CommitsTotal.WithLabelValues("append"))
	CommitsTotal.WithLabelValues("append").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CommitsTotal.WithLabelValues("append")))
}
