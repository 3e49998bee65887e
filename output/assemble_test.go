package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/internal/lazyarray"
)

func simpleField(axis string, n int) *cf.Field {
	f := cf.NewField()
	f.AxisOrder = []string{axis}
	f.AxisSize = map[string]int{axis: n}
	f.Data = lazyarray.NewEager(make([]float64, n), []int{n})
	f.Properties["source"] = "obs"
	return f
}

func TestAssembleCopiesModelIdentityOntoObsDomain(t *testing.T) {
	obs := simpleField("sample", 3)
	model := cf.NewField()
	model.StandardName = "air_temperature"
	model.Units = "K"
	model.CellMethods = "time: point"
	model.Properties["institution"] = "Met Office"
	model.Properties["history"] = "read from model_file.nc"

	result := lazyarray.NewEager([]float64{1, 2, 3}, []int{3})
	out := Assemble(result, obs, model, "co-located")

	assert.Equal(t, "air_temperature", out.StandardName)
	assert.Equal(t, "K", out.Units)
	assert.Equal(t, "time: point", out.CellMethods)
	assert.Equal(t, "Met Office", out.Properties["institution"])
	assert.Equal(t, "read from model_file.nc\nco-located", out.Properties["history"])
	assert.Equal(t, []string{"sample"}, out.AxisOrder)

	data, err := out.Data.Data()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, data)
}

func TestAssembleDoesNotMutateObsOrModel(t *testing.T) {
	obs := simpleField("sample", 2)
	model := cf.NewField()
	model.StandardName = "x"

	Assemble(lazyarray.NewEager([]float64{9, 9}, []int{2}), obs, model, "msg")

	assert.Equal(t, "", obs.StandardName)
	assert.Equal(t, "obs", obs.Properties["source"])
}
