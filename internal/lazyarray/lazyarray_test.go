package lazyarray

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEagerIsAlreadyPersisted(t *testing.T) {
	a := NewEager([]float64{1, 2, 3, 4}, []int{2, 2})
	assert.True(t, a.IsPersisted())
	d, err := a.Data()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, d)
}

func TestLazyComputesOnceAndCaches(t *testing.T) {
	calls := 0
	a := NewLazy([]int{3}, func() ([]float64, error) {
		calls++
		return []float64{10, 20, 30}, nil
	})
	assert.False(t, a.IsPersisted())

	d1, err := a.Data()
	require.NoError(t, err)
	d2, err := a.Data()
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Equal(t, 1, calls)
	assert.True(t, a.IsPersisted())
}

func TestPersistRejectsShapeMismatch(t *testing.T) {
	a := NewLazy([]int{4}, func() ([]float64, error) {
		return []float64{1, 2, 3}, nil
	})
	err := a.Persist()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape wants 4")
}

func TestPersistPropagatesComputeError(t *testing.T) {
	a := NewLazy([]int{1}, func() ([]float64, error) {
		return nil, fmt.Errorf("boom")
	})
	_, err := a.Data()
	require.ErrorContains(t, err, "boom")
}

func TestMapAppliesElementwise(t *testing.T) {
	a := NewEager([]float64{1, 2, 3}, []int{3})
	doubled := a.Map(func(v float64) float64 { return v * 2 })
	d, err := doubled.Data()
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6}, d)
}

func TestSliceExtractsSubrange(t *testing.T) {
	// 3x4 row-major
	data := []float64{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	}
	a := NewEager(data, []int{3, 4})
	s := Slice(a, []Range{{Start: 1, End: 3}, {Start: 1, End: 3}})
	assert.Equal(t, []int{2, 2}, s.Shape())
	d, err := s.Data()
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6, 9, 10}, d)
}

func TestSliceRejectsWrongRangeCount(t *testing.T) {
	a := NewEager([]float64{1, 2, 3, 4}, []int{2, 2})
	s := Slice(a, []Range{{Start: 0, End: 2}})
	_, err := s.Data()
	require.Error(t, err)
}

func TestConcatJoinsAlongLeadingAxis(t *testing.T) {
	a := NewEager([]float64{1, 2}, []int{1, 2})
	b := NewEager([]float64{3, 4, 5, 6}, []int{2, 2})
	c := Concat([]*Array{a, b})
	assert.Equal(t, []int{3, 2}, c.Shape())
	d, err := c.Data()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, d)
}

func TestConcatOfNothingIsEmpty(t *testing.T) {
	c := Concat(nil)
	assert.Equal(t, []int{0}, c.Shape())
}
