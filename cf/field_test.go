package cf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metoffice/visiontoolkit/internal/lazyarray"
)

func sampleField() *Field {
	f := NewField()
	f.AxisOrder = []string{"time", "lat", "lon"}
	f.AxisSize = map[string]int{"time": 3, "lat": 2, "lon": 2}
	f.DimCoords["time"] = &Construct{Identity: "time", Calendar: "standard", Axes: []string{"time"}, Data: lazyarray.NewEager([]float64{0, 1, 2}, []int{3})}
	f.DimCoords["lat"] = &Construct{Identity: "latitude", Axes: []string{"lat"}, Data: lazyarray.NewEager([]float64{-1, 1}, []int{2})}
	f.DimCoords["lon"] = &Construct{Identity: "longitude", Axes: []string{"lon"}, Data: lazyarray.NewEager([]float64{0, 1}, []int{2})}
	f.Data = lazyarray.NewEager(seq12(), []int{3, 2, 2})
	return f
}

func seq12() []float64 {
	out := make([]float64, 12)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestFieldCopyIsIndependentOfOriginalMaps(t *testing.T) {
	f := sampleField()
	cp := f.Copy()
	cp.DimCoords["lat"] = &Construct{Identity: "mutated"}

	assert.Equal(t, "latitude", f.DimCoords["lat"].Identity)
	assert.Equal(t, "mutated", cp.DimCoords["lat"].Identity)
}

func TestFieldSubspaceSlicesDataAndMatchingCoords(t *testing.T) {
	f := sampleField()
	out := f.Subspace(map[string]lazyarray.Range{"time": {Start: 1, End: 3}})

	assert.Equal(t, 2, out.AxisSize["time"])
	assert.Equal(t, 2, out.AxisSize["lat"]) // untouched axis passes through whole
	td, err := out.DimCoords["time"].Data.Data()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, td)

	data, err := out.Data.Data()
	require.NoError(t, err)
	assert.Len(t, data, 2*2*2)
	assert.Equal(t, seq12()[4:], data)
}

func TestFieldSubspaceLeavesUnrelatedConstructUntouched(t *testing.T) {
	f := sampleField()
	out := f.Subspace(map[string]lazyarray.Range{"time": {Start: 0, End: 1}})
	// lat/lon dim coords don't span "time", so they should be the same
	// pointer (no copy needed) per sliceConstruct's changed-axis check.
	assert.Same(t, f.DimCoords["lat"], out.DimCoords["lat"])
}

func TestFieldAppendHistoryCreatesThenAppends(t *testing.T) {
	f := NewField()
	f.AppendHistory("first")
	assert.Equal(t, "first", f.Properties["history"])
	f.AppendHistory("second")
	assert.Equal(t, "first\nsecond", f.Properties["history"])
}

func TestFieldRestShapeRequiresLeadAxis(t *testing.T) {
	f := sampleField()
	assert.Equal(t, []int{2, 2}, f.RestShape("time"))
	assert.Nil(t, f.RestShape("lat"))
}

func TestFieldAxisIndex(t *testing.T) {
	f := sampleField()
	assert.Equal(t, 0, f.AxisIndex("time"))
	assert.Equal(t, 2, f.AxisIndex("lon"))
	assert.Equal(t, -1, f.AxisIndex("nope"))
}
