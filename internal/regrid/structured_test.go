package regrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatGrid2D() SourceGrid {
	// 2x2 horizontal grid, values chosen so bilinear interpolation at the
	// centre is easy to check by hand.
	return SourceGrid{
		X:    []float64{0, 10},
		Y:    []float64{0, 10},
		Data: []float64{0, 10, 10, 20}, // row-major: (y0,x0)=0 (y0,x1)=10 (y1,x0)=10 (y1,x1)=20
		NZ:   1,
	}
}

func TestRegridBilinearAtCentre(t *testing.T) {
	src := flatGrid2D()
	dst := []Point{{X: 5, Y: 5}}
	vals, err := Structured{}.Regrid(src, dst, Linear)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, vals[0], 1e-9)
}

func TestRegridBilinearAtCorner(t *testing.T) {
	src := flatGrid2D()
	dst := []Point{{X: 0, Y: 0}, {X: 10, Y: 10}}
	vals, err := Structured{}.Regrid(src, dst, Linear)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, vals[0], 1e-9)
	assert.InDelta(t, 20.0, vals[1], 1e-9)
}

func TestRegridNearestPicksClosestCorner(t *testing.T) {
	src := flatGrid2D()
	dst := []Point{{X: 1, Y: 1}}
	vals, err := Structured{}.Regrid(src, dst, Nearest)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vals[0])
}

func TestRegridRejectsMismatchedDataLength(t *testing.T) {
	src := SourceGrid{X: []float64{0, 1}, Y: []float64{0, 1}, Data: []float64{1, 2, 3}, NZ: 1}
	_, err := Structured{}.Regrid(src, []Point{{X: 0, Y: 0}}, Linear)
	require.Error(t, err)
}

func TestRegridRejectsEmptyAxes(t *testing.T) {
	src := SourceGrid{Data: []float64{1}}
	_, err := Structured{}.Regrid(src, []Point{{X: 0, Y: 0}}, Linear)
	require.Error(t, err)
}

func TestRegridCyclicXWrapsAcrossSeam(t *testing.T) {
	src := SourceGrid{
		X:      []float64{0, 350}, // ascending, seam between the last and first column
		Y:      []float64{0, 10},
		Data:   []float64{100, 200, 100, 200},
		NZ:     1,
		Cyclic: true,
	}
	// x=355 lies between the x=350 column and the wrapped-around x=0
	// column, not at either edge.
	dst := []Point{{X: 355, Y: 0}}
	vals, err := Structured{}.Regrid(src, dst, Linear)
	require.NoError(t, err)
	assert.Greater(t, vals[0], 100.0)
	assert.Less(t, vals[0], 200.0)
}

func TestRegridLinearVerticalInterpolation(t *testing.T) {
	// Single horizontal point (1x1), two vertical levels, altitude-like (no lnZ).
	src := SourceGrid{
		X:    []float64{0},
		Y:    []float64{0},
		Z:    []float64{0, 100},
		Data: []float64{10, 30}, // level 0 -> 10, level 1 -> 30
		NZ:   2,
	}
	dst := []Point{{X: 0, Y: 0, Z: 50, HasZ: true}}
	vals, err := Structured{}.Regrid(src, dst, Linear)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, vals[0], 1e-9)
}

func TestRegridLnZVerticalInterpolation(t *testing.T) {
	src := SourceGrid{
		X:    []float64{0},
		Y:    []float64{0},
		Z:    []float64{1000, 100}, // pressure decreasing with height
		Data: []float64{0, 100},
		NZ:   2,
		LnZ:  true,
	}
	// Geometric midpoint in ln-space.
	mid := math.Sqrt(1000.0 * 100.0)
	dst := []Point{{X: 0, Y: 0, Z: mid, HasZ: true}}
	vals, err := Structured{}.Regrid(src, dst, Linear)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, vals[0], 1e-6)
}
