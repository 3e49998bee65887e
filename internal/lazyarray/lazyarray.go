// Package lazyarray implements the graph-of-array-operations discipline the
// engine relies on: data stays lazy (unevaluated) until a Persist call forces
// materialisation, at which point the result is cached. This mirrors the
// bounded "persist" checkpoints the engine takes after CF normalisation,
// after parametric vertical computation, and after bounding-box reduction.
package lazyarray

import (
	"fmt"
	"sync"
)

// Array is an N-D numeric array that may or may not have been materialised
// yet. Shape is row-major; len(Data) == product(Shape) once persisted.
type Array struct {
	shape []int

	mu       sync.Mutex
	data     []float64
	computed bool
	compute  func() ([]float64, error)
}

// NewEager wraps already-materialised data; Persist is a no-op on it.
func NewEager(data []float64, shape []int) *Array {
	return &Array{shape: shape, data: data, computed: true}
}

// NewLazy wraps a deferred computation. compute is invoked at most once.
func NewLazy(shape []int, compute func() ([]float64, error)) *Array {
	return &Array{shape: shape, compute: compute}
}

// Shape returns the array's dimension sizes.
func (a *Array) Shape() []int {
	out := make([]int, len(a.shape))
	copy(out, a.shape)
	return out
}

// Size returns the total element count implied by Shape.
func (a *Array) Size() int {
	n := 1
	for _, s := range a.shape {
		n *= s
	}
	return n
}

// IsPersisted reports whether Data has already been materialised.
func (a *Array) IsPersisted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.computed
}

// Persist forces materialisation and caches the result. Safe to call
// repeatedly; only the first call does work.
func (a *Array) Persist() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.computed {
		return nil
	}
	if a.compute == nil {
		a.data = make([]float64, a.Size())
		a.computed = true
		return nil
	}
	d, err := a.compute()
	if err != nil {
		return fmt.Errorf("lazyarray: persist: %w", err)
	}
	if len(d) != a.Size() {
		return fmt.Errorf("lazyarray: persist: computed %d elements, shape wants %d", len(d), a.Size())
	}
	a.data = d
	a.compute = nil
	a.computed = true
	return nil
}

// Data persists (if needed) and returns the backing slice. Callers must not
// mutate the returned slice in place; it is the array's cached storage.
func (a *Array) Data() ([]float64, error) {
	if err := a.Persist(); err != nil {
		return nil, err
	}
	return a.data, nil
}

// Map derives a new lazily-computed Array of the same shape by applying f
// element-wise to the (eventually) persisted data of a.
func (a *Array) Map(f func(float64) float64) *Array {
	return NewLazy(a.Shape(), func() ([]float64, error) {
		src, err := a.Data()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(src))
		for i, v := range src {
			out[i] = f(v)
		}
		return out, nil
	})
}

// Range is a half-open [Start, End) index range along one axis.
type Range struct{ Start, End int }

// Slice derives a new lazily-computed Array restricted to ranges (one per
// axis of a, in order). The parent is only persisted when the child is
// persisted, preserving the engine's lazy-until-needed discipline (spec.md
// §5b: "data arrays remain lazy until the bounding-box reduction is
// complete").
func Slice(a *Array, ranges []Range) *Array {
	parentShape := a.Shape()
	if len(ranges) != len(parentShape) {
		return NewLazy(nil, func() ([]float64, error) {
			return nil, fmt.Errorf("lazyarray: slice: %d ranges for %d-D array", len(ranges), len(parentShape))
		})
	}
	newShape := make([]int, len(ranges))
	for i, r := range ranges {
		newShape[i] = r.End - r.Start
	}
	return NewLazy(newShape, func() ([]float64, error) {
		src, err := a.Data()
		if err != nil {
			return nil, err
		}
		strides := stridesOf(parentShape)
		n := 1
		for _, s := range newShape {
			n *= s
		}
		out := make([]float64, n)
		idx := make([]int, len(newShape))
		for outPos := 0; outPos < n; outPos++ {
			srcPos := 0
			for axis, ri := range idx {
				srcPos += (ranges[axis].Start + ri) * strides[axis]
			}
			out[outPos] = src[srcPos]
			for axis := len(idx) - 1; axis >= 0; axis-- {
				idx[axis]++
				if idx[axis] < newShape[axis] {
					break
				}
				idx[axis] = 0
			}
		}
		return out, nil
	})
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// Concat joins arrays along axis 0; all must share the remaining shape.
func Concat(arrays []*Array) *Array {
	if len(arrays) == 0 {
		return NewEager(nil, []int{0})
	}
	tailShape := arrays[0].Shape()[1:]
	total := 0
	for _, a := range arrays {
		total += a.Shape()[0]
	}
	newShape := append([]int{total}, tailShape...)
	return NewLazy(newShape, func() ([]float64, error) {
		out := make([]float64, 0, product(newShape))
		for _, a := range arrays {
			d, err := a.Data()
			if err != nil {
				return nil, err
			}
			out = append(out, d...)
		}
		return out, nil
	})
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
