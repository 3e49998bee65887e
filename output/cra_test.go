package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/internal/lazyarray"
)

func trajectoryFeature(n int, startTime float64, values []float64, trajID string) *cf.Field {
	f := cf.NewField()
	f.AxisOrder = []string{"sample"}
	f.AxisSize = map[string]int{"sample": n}
	f.Data = lazyarray.NewEager(values, []int{n})
	times := make([]float64, n)
	for i := range times {
		times[i] = startTime + float64(i)
	}
	f.AuxCoords["time"] = &cf.Construct{
		Identity: "time",
		Calendar: "standard",
		Axes:     []string{"sample"},
		Data:     lazyarray.NewEager(times, []int{n}),
	}
	if trajID != "" {
		f.Properties["trajectory_id"] = trajID
	}
	return f
}

func TestCRAAddRejectsWrongLeadingAxis(t *testing.T) {
	c := NewCRA("sample", "time")
	f := cf.NewField()
	f.AxisOrder = []string{"other"}
	err := c.Add(f)
	require.Error(t, err)
}

func TestCRAAddRejectsMissingTimeCoordinate(t *testing.T) {
	c := NewCRA("sample", "time")
	f := cf.NewField()
	f.AxisOrder = []string{"sample"}
	err := c.Add(f)
	require.Error(t, err)
}

func TestCRACompressOrdersByStartTimeAndConcatenates(t *testing.T) {
	c := NewCRA("sample", "time")
	later := trajectoryFeature(2, 10, []float64{10, 11}, "traj-b")
	earlier := trajectoryFeature(3, 0, []float64{0, 1, 2}, "traj-a")

	require.NoError(t, c.Add(later))
	require.NoError(t, c.Add(earlier))

	res, err := c.Compress()
	require.NoError(t, err)

	assert.Equal(t, []string{"traj-a", "traj-b"}, res.TrajectoryIDs)
	assert.Equal(t, []int{3, 2}, res.RowSizes)

	data, err := res.Field.Data.Data()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 10, 11}, data)
	assert.Equal(t, 5, res.Field.AxisSize["sample"])
	assert.Equal(t, "trajectory", res.Field.Properties["featureType"])
}

func TestCRACompressSynthesizesTrajectoryIDWhenAbsent(t *testing.T) {
	c := NewCRA("sample", "time")
	f := trajectoryFeature(1, 0, []float64{42}, "")
	require.NoError(t, c.Add(f))

	res, err := c.Compress()
	require.NoError(t, err)
	require.Len(t, res.TrajectoryIDs, 1)
	assert.NotEmpty(t, res.TrajectoryIDs[0])
}

func TestCRACompressWithNoFeaturesErrors(t *testing.T) {
	c := NewCRA("sample", "time")
	_, err := c.Compress()
	require.Error(t, err)
}
