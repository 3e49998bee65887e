package engine

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsStartsAtZero(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.filesTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.samples))
}

func TestRecordFileAccumulatesAcrossCalls(t *testing.T) {
	m := NewMetrics()
	m.RecordFile(100, 2*time.Second)
	m.RecordFile(50, time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.filesTotal))
	assert.Equal(t, float64(150), testutil.ToFloat64(m.samples))
	families, err := m.registry.Gather()
	require.NoError(t, err)
	var observed uint64
	for _, mf := range families {
		if mf.GetName() == "visioncolocate_file_duration_seconds" {
			observed = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), observed)
}

func TestPushIsNoOpWithoutURL(t *testing.T) {
	m := NewMetrics()
	m.RecordFile(10, time.Millisecond)
	require.NoError(t, m.Push("", "visioncolocate"))
}
