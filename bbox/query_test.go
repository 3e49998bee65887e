package bbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexRangeAscending(t *testing.T) {
	coord := []float64{0, 1, 2, 3, 4, 5}
	start, end, ok := indexRange(coord, 1.5, 3.5)
	assert.True(t, ok)
	assert.Equal(t, 2, start)
	assert.Equal(t, 4, end)
}

func TestIndexRangeNoQualifyingPoint(t *testing.T) {
	coord := []float64{0, 1, 2, 3}
	_, _, ok := indexRange(coord, 1.25, 1.75)
	assert.False(t, ok)
}

func TestCountOutside(t *testing.T) {
	coord := []float64{0, 1, 2, 3, 4}
	assert.Equal(t, 4, countOutside(coord, 1, 3))
}

func TestBetweenCellsAscending(t *testing.T) {
	coord := []float64{0, 1, 2, 3, 4, 5}
	start, end := betweenCells(coord, 1.25, 1.75, true)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)
}

func TestBetweenCellsDescending(t *testing.T) {
	coord := []float64{5, 4, 3, 2, 1, 0}
	start, end := betweenCells(coord, 1.25, 1.75, false)
	assert.LessOrEqual(t, start, end)
}

func TestApplyHaloClampsToBounds(t *testing.T) {
	start, end := applyHalo(1, 3, 4, 2)
	assert.Equal(t, 0, start)
	assert.Equal(t, 4, end)
}
