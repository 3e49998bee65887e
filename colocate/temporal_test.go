package colocate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metoffice/visiontoolkit/internal/lazyarray"
)

func TestTemporalInterpolatesMidpoint(t *testing.T) {
	modelT := []float64{0, 1, 2}
	// 3 time steps x 2 locations (time-major).
	spatial := lazyarray.NewEager([]float64{
		10, 20, // t=0
		30, 40, // t=1
		50, 60, // t=2
	}, []int{3, 2})
	obsT := []float64{0.5, 1.5}

	out, err := Temporal(modelT, spatial, obsT)
	require.NoError(t, err)
	data, err := out.Data()
	require.NoError(t, err)

	assert.InDelta(t, 20.0, data[0], 1e-9) // midway between 10 and 30
	assert.InDelta(t, 50.0, data[1], 1e-9) // midway between 40 and 60
}

func TestTemporalExactSampleHitGetsFullWeight(t *testing.T) {
	modelT := []float64{0, 1, 2}
	spatial := lazyarray.NewEager([]float64{
		10, 30, 50,
	}, []int{3, 1})
	obsT := []float64{1}

	out, err := Temporal(modelT, spatial, obsT)
	require.NoError(t, err)
	data, err := out.Data()
	require.NoError(t, err)
	assert.InDelta(t, 30.0, data[0], 1e-9)
}

func TestTemporalRejectsMismatchedLocationCount(t *testing.T) {
	modelT := []float64{0, 1}
	spatial := lazyarray.NewEager([]float64{1, 2, 3, 4}, []int{2, 2})
	_, err := Temporal(modelT, spatial, []float64{0, 0.5, 1})
	require.Error(t, err)
}

func TestSegmentWeightsSumToOne(t *testing.T) {
	modelT := []float64{100, 103, 107, 110}
	for _, v := range []float64{99, 100, 101.5, 105, 109.2, 110, 111} {
		_, _, w0, w1, err := segmentWeights(modelT, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, w0+w1, 1e-10)
	}
}

func TestSegmentWeightsDescendingAxis(t *testing.T) {
	modelT := []float64{110, 107, 103, 100}
	t0, t1, w0, w1, err := segmentWeights(modelT, 105)
	require.NoError(t, err)
	assert.Equal(t, 1, t0)
	assert.Equal(t, 2, t1)
	assert.InDelta(t, 1.0, w0+w1, 1e-10)
}

func TestSegmentWeightsSingleSample(t *testing.T) {
	t0, t1, w0, w1, err := segmentWeights([]float64{42}, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, t0)
	assert.Equal(t, 0, t1)
	assert.Equal(t, 1.0, w0)
	assert.Equal(t, 0.0, w1)
}
