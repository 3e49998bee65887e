// Package bbox implements the C3 Bounding-Box Reducer (spec.md §4.3): 4-D
// spatio-temporal subspacing of the model field onto the minimal
// hyper-rectangle enclosing an observational path, plus an index-space halo.
package bbox

// indexRange computes the half-open interval query wi(lo, hi) on a 1-D
// monotone coordinate (ascending or descending): the contiguous index
// range [start, end) of grid points whose value falls in [lo, hi). ok is
// false when no grid point qualifies, signalling that the primary envelope
// strategy must fall back (spec.md §4.3).
func indexRange(coord []float64, lo, hi float64) (start, end int, ok bool) {
	n := len(coord)
	start, end = n, 0
	for i, v := range coord {
		if v >= lo && v < hi {
			if i < start {
				start = i
			}
			if i+1 > end {
				end = i + 1
			}
		}
	}
	if start >= end {
		return 0, 0, false
	}
	return start, end, true
}

// countOutside counts grid points whose value lies outside the open
// interval (lo, hi), used by the horizontal-axis fallback to distinguish a
// genuine between-cells case from a near-full cyclic-coverage no-op
// (spec.md §4.3 step 2).
func countOutside(coord []float64, lo, hi float64) int {
	n := 0
	for _, v := range coord {
		if v <= lo || v >= hi {
			n++
		}
	}
	return n
}

// betweenCells answers "give me the two enclosing cells" when no cell
// centre falls inside (lo, hi): spec.md §4.3's between-cells query.
func betweenCells(coord []float64, lo, hi float64, ascending bool) (start, end int) {
	n := len(coord)
	var lowerIdx, upperIdx int
	if ascending {
		lowerIdx = argFirst(coord, func(v float64) bool { return v >= lo }, n)
		upperIdx = argFirst(coord, func(v float64) bool { return v > hi }, n)
	} else {
		// Descending: the range starts at the first value <= hi and ends at
		// the first value < lo.
		lowerIdx = argFirst(coord, func(v float64) bool { return v <= hi }, n)
		upperIdx = argFirst(coord, func(v float64) bool { return v < lo }, n)
	}
	if lowerIdx > 0 {
		lowerIdx--
	}
	if upperIdx < n {
		upperIdx++
	}
	if lowerIdx > upperIdx {
		lowerIdx, upperIdx = upperIdx, lowerIdx
	}
	return lowerIdx, upperIdx
}

// argFirst returns the index of the first element satisfying pred, or
// dflt if none does. This is the Go rendering of spec.md's
// argmin(c < lo) / argmax(c > hi) ("first false" / "first true").
func argFirst(coord []float64, pred func(float64) bool, dflt int) int {
	for i, v := range coord {
		if pred(v) {
			return i
		}
	}
	return dflt
}

func applyHalo(start, end, size, halo int) (int, int) {
	start -= halo
	if start < 0 {
		start = 0
	}
	end += halo
	if end > size {
		end = size
	}
	return start, end
}
