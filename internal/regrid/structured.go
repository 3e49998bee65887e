package regrid

import (
	"fmt"
	"math"
	"sort"
)

// Structured is the concrete Locstream Regridder: bilinear (or nearest)
// interpolation across X/Y, composed with linear-in-Z (or ln(z) for
// pressure) vertical interpolation, in the manner of the teacher's
// Tec.InterpTec bilinear-corner-weight pattern (ionex.go).
type Structured struct{}

func (Structured) Regrid(src SourceGrid, dst []Point, method Method) ([]float64, error) {
	if len(src.X) == 0 || len(src.Y) == 0 {
		return nil, fmt.Errorf("regrid: source grid has no X/Y coordinates")
	}
	nx, ny := len(src.X), len(src.Y)
	nz := src.NZ
	if nz == 0 {
		nz = 1
	}
	if len(src.Data) != nz*ny*nx {
		return nil, fmt.Errorf("regrid: source data length %d != nz*ny*nx (%d*%d*%d)", len(src.Data), nz, ny, nx)
	}

	out := make([]float64, len(dst))
	for i, p := range dst {
		v, err := regridOne(src, p, method, nx, ny, nz)
		if err != nil {
			return nil, fmt.Errorf("regrid: location %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func regridOne(src SourceGrid, p Point, method Method, nx, ny, nz int) (float64, error) {
	ix0, ix1, fx := bracket(src.X, p.X, src.Cyclic, 360)
	iy0, iy1, fy := bracket(src.Y, p.Y, false, 0)

	if method == Nearest {
		ix := ix0
		if fx > 0.5 {
			ix = ix1
		}
		iy := iy0
		if fy > 0.5 {
			iy = iy1
		}
		if nz == 1 || !p.HasZ {
			return src.Data[iy*nx+ix], nil
		}
		iz0, iz1, fz := bracketZ(src, p.Z, nz, iy, ix, ny, nx)
		iz := iz0
		if fz > 0.5 {
			iz = iz1
		}
		return src.Data[(iz*ny+iy)*nx+ix], nil
	}

	at := func(iz, iy, ix int) float64 { return src.Data[(iz*ny+iy)*nx+ix] }
	bilinear := func(iz int) float64 {
		v00 := at(iz, iy0, ix0)
		v01 := at(iz, iy0, ix1)
		v10 := at(iz, iy1, ix0)
		v11 := at(iz, iy1, ix1)
		return (1-fx)*(1-fy)*v00 + fx*(1-fy)*v01 + (1-fx)*fy*v10 + fx*fy*v11
	}

	if nz == 1 || !p.HasZ {
		return bilinear(0), nil
	}

	iz0, iz1, fz := bracketZ(src, p.Z, nz, iy0, ix0, ny, nx)
	lo := bilinear(iz0)
	hi := bilinear(iz1)
	if src.LnZ {
		return lerpLn(lo, hi, fz), nil
	}
	return lo + fz*(hi-lo), nil
}

// bracket finds the bracketing index pair and fractional position of v
// within a monotone 1-D coordinate, honouring a cyclic period if requested.
func bracket(coord []float64, v float64, cyclic bool, period float64) (i0, i1 int, frac float64) {
	n := len(coord)
	if n == 1 {
		return 0, 0, 0
	}
	ascending := coord[1] > coord[0]
	vv := v
	if cyclic {
		vv = wrapInto(v, coord[0], period)
	}
	idx := sort.Search(n, func(i int) bool {
		if ascending {
			return coord[i] >= vv
		}
		return coord[i] <= vv
	})
	switch {
	case idx <= 0:
		if cyclic {
			return n - 1, 0, fracBetween(coord[n-1]-period, coord[0], vv, ascending)
		}
		return 0, 0, 0
	case idx >= n:
		if cyclic {
			return n - 1, 0, fracBetween(coord[n-1], coord[0]+period, vv, ascending)
		}
		return n - 1, n - 1, 0
	default:
		return idx - 1, idx, fracBetween(coord[idx-1], coord[idx], vv, ascending)
	}
}

func fracBetween(lo, hi, v float64, ascending bool) float64 {
	if hi == lo {
		return 0
	}
	f := (v - lo) / (hi - lo)
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return f
}

func wrapInto(v, origin, period float64) float64 {
	for v < origin {
		v += period
	}
	for v >= origin+period {
		v -= period
	}
	return v
}

// bracketZ resolves a vertical bracket; Z may be a shared 1-D profile
// (len(src.Z)==nz) or vary per horizontal location (4-D-minus-time case
// already flattened out by the caller iterating time steps, spec.md §4.4).
func bracketZ(src SourceGrid, z float64, nz, iy, ix, ny, nx int) (i0, i1 int, frac float64) {
	var col []float64
	if len(src.Z) == nz {
		col = src.Z
	} else {
		col = make([]float64, nz)
		for k := 0; k < nz; k++ {
			col[k] = src.Z[(k*ny+iy)*nx+ix]
		}
	}
	zz := z
	lnCol := col
	if src.LnZ {
		lnCol = make([]float64, nz)
		for i, c := range col {
			lnCol[i] = math.Log(c)
		}
		zz = math.Log(z)
	}
	return bracket(lnCol, zz, false, 0)
}

func lerpLn(lo, hi, frac float64) float64 {
	return lo + frac*(hi-lo)
}
