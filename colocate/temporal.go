package colocate

import (
	"math"

	"github.com/metoffice/visiontoolkit/internal/lazyarray"
	"github.com/metoffice/visiontoolkit/verrors"
)

// Temporal interpolates spatial (a [model-time x location] array, the
// Spatial Co-locator's output) onto obsT, one value per location, via the
// pairwise-segment linear weighting of spec.md §4.5:
//
//	w0 = (delta - d0) / delta,  w1 = d0 / delta,  w0 + w1 == 1
//
// where delta is the spacing between the bracketing model time samples and
// d0 is the offset of the observation time from the earlier one. modelT
// must be strictly monotone (ascending or descending) and reconciled to
// obsT's units/calendar already (C1, cf.ReconcileTime).
func Temporal(modelT []float64, spatial *lazyarray.Array, obsT []float64) (*lazyarray.Array, error) {
	shape := spatial.Shape()
	if len(shape) != 2 {
		return nil, verrors.Internal("colocate: temporal co-location expects a 2-D [time x location] array, got shape %v", shape)
	}
	nTime, nObs := shape[0], shape[1]
	if len(modelT) != nTime {
		return nil, verrors.Internal("colocate: model time axis length %d != spatial array's time extent %d", len(modelT), nTime)
	}
	if len(obsT) != nObs {
		return nil, verrors.IncompatibleInputs("colocate: observation time length %d != spatial array's location extent %d", len(obsT), nObs)
	}

	compute := func() ([]float64, error) {
		data, err := spatial.Data()
		if err != nil {
			return nil, err
		}
		out := make([]float64, nObs)
		for j := 0; j < nObs; j++ {
			t0, t1, w0, w1, err := segmentWeights(modelT, obsT[j])
			if err != nil {
				return nil, err
			}
			v0 := data[t0*nObs+j]
			v1 := data[t1*nObs+j]
			out[j] = w0*v0 + w1*v1
		}
		return out, nil
	}

	return lazyarray.NewLazy([]int{nObs}, compute), nil
}

// segmentWeights finds the pair of model time samples bracketing v and
// returns their pairwise-segment linear weights (spec.md §4.5). When v
// coincides with a model sample, that sample's weight is 1 and the other's
// is 0. When modelT has one element, t0 == t1 == 0 with w0 == 1, w1 == 0.
func segmentWeights(modelT []float64, v float64) (t0, t1 int, w0, w1 float64, err error) {
	n := len(modelT)
	if n == 0 {
		return 0, 0, 0, 0, verrors.Internal("colocate: model time axis is empty")
	}
	if n == 1 {
		return 0, 0, 1, 0, nil
	}
	ascending := modelT[1] > modelT[0]

	idx := -1
	for i := 0; i < n-1; i++ {
		lo, hi := modelT[i], modelT[i+1]
		if !ascending {
			lo, hi = hi, lo
		}
		if v >= lo && v <= hi {
			idx = i
			break
		}
	}
	if idx < 0 {
		if (ascending && v < modelT[0]) || (!ascending && v > modelT[0]) {
			idx = 0
		} else {
			idx = n - 2
		}
	}

	t0, t1 = idx, idx+1
	delta := modelT[t1] - modelT[t0]
	if delta == 0 || math.IsNaN(delta) {
		return t0, t1, 1, 0, nil
	}
	d0 := v - modelT[t0]
	w0 = (delta - d0) / delta
	w1 = d0 / delta
	return t0, t1, w0, w1, nil
}
