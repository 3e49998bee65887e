package bbox

import (
	"math"

	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/internal/lazyarray"
	"github.com/metoffice/visiontoolkit/internal/vlog"
)

// Bounds is the observational path's tight bounds in each of the four
// dimensions (spec.md §4.3).
type Bounds struct {
	XLo, XHi float64
	YLo, YHi float64
	ZLo, ZHi float64
	TLo, THi float64
	HasZ     bool
}

// ObsBounds computes the tight bounds of an obs field's auxiliary X/Y/Z/T
// coordinates. X/Y/Z are not assumed monotone (full scan); T is assumed
// strictly monotone, so its bounds are the first/last sample per spec.md
// §3's invariant.
func ObsBounds(obs *cf.Field, xKey, yKey, zKey, tKey string, hasVertical bool) (Bounds, error) {
	var b Bounds
	xd, err := obs.AuxCoords[xKey].Data.Data()
	if err != nil {
		return b, err
	}
	yd, err := obs.AuxCoords[yKey].Data.Data()
	if err != nil {
		return b, err
	}
	b.XLo, b.XHi = minMax(xd)
	b.YLo, b.YHi = minMax(yd)

	if hasVertical {
		zd, err := obs.AuxCoords[zKey].Data.Data()
		if err != nil {
			return b, err
		}
		b.ZLo, b.ZHi = minMax(zd)
		b.HasZ = true
	}

	td, err := obs.AuxCoords[tKey].Data.Data()
	if err != nil {
		return b, err
	}
	if len(td) == 0 {
		return b, nil
	}
	b.TLo, b.THi = td[0], td[len(td)-1]
	if b.TLo > b.THi {
		b.TLo, b.THi = b.THi, b.TLo
	}
	return b, nil
}

func minMax(d []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range d {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// AxisKeys names the domain-axis keys for the four canonical axes.
type AxisKeys struct {
	X, Y, Z, T string
}

// Reduce subspaces model to the minimal 4-D hyper-rectangle enclosing
// obsBounds, extended by haloSize cells in index space per axis
// (spec.md §4.3). verticalDescending should be true for pressure-like Z,
// false for altitude-like Z; it only matters when obsBounds.HasZ.
func Reduce(model *cf.Field, obsBounds Bounds, haloSize int, axes AxisKeys, verticalDescending bool) (*cf.Field, error) {
	if f, ok, err := tryPrimary(model, obsBounds, haloSize, axes); err != nil {
		return nil, err
	} else if ok {
		return f, nil
	}
	vlog.Debugf("bbox: primary envelope+halo subspace failed, falling back")
	return fallback(model, obsBounds, haloSize, axes, verticalDescending)
}

// tryPrimary attempts the single 4-axis subspace using half-open interval
// queries on every present axis at once (spec.md §4.3 "Primary strategy").
func tryPrimary(model *cf.Field, b Bounds, halo int, axes AxisKeys) (*cf.Field, bool, error) {
	ranges := map[string]lazyarray.Range{}

	apply := func(axisKey string, lo, hi float64) (bool, error) {
		c, ok := model.DimCoords[axisKey]
		if !ok {
			return false, nil
		}
		data, err := c.Data.Data()
		if err != nil {
			return false, err
		}
		start, end, ok := indexRange(data, lo, hi)
		if !ok {
			return false, nil
		}
		start, end = applyHalo(start, end, model.AxisSize[axisKey], halo)
		ranges[axisKey] = lazyarray.Range{Start: start, End: end}
		return true, nil
	}

	okX, err := apply(axes.X, b.XLo, b.XHi)
	if err != nil || !okX {
		return nil, false, err
	}
	okY, err := apply(axes.Y, b.YLo, b.YHi)
	if err != nil || !okY {
		return nil, false, err
	}
	okT, err := apply(axes.T, b.TLo, b.THi)
	if err != nil || !okT {
		return nil, false, err
	}
	if b.HasZ {
		okZ, err := apply(axes.Z, b.ZLo, b.ZHi)
		if err != nil || !okZ {
			return nil, false, err
		}
	}
	return model.Subspace(ranges), true, nil
}

// fallback decomposes the subspace axis-by-axis (spec.md §4.3 "Fallback
// strategy"), used when Z is multi-dimensional or an axis's obs bounds fall
// strictly between two adjacent model grid values.
func fallback(model *cf.Field, b Bounds, halo int, axes AxisKeys, verticalDescending bool) (*cf.Field, error) {
	ranges := map[string]lazyarray.Range{}

	// 1. Time axis.
	tCoord := model.DimCoords[axes.T]
	tData, err := tCoord.Data.Data()
	if err != nil {
		return nil, err
	}
	if start, end, ok := indexRange(tData, b.TLo, b.THi); ok {
		start, end = applyHalo(start, end, len(tData), halo)
		ranges[axes.T] = lazyarray.Range{Start: start, End: end}
	} else {
		start, end := betweenCells(tData, b.TLo, b.THi, true)
		start, end = applyHalo(start, end, len(tData), halo)
		ranges[axes.T] = lazyarray.Range{Start: start, End: end}
	}

	// 2. Horizontal axes X and Y, jointly then per-axis on failure.
	xCoord := model.DimCoords[axes.X]
	xData, err := xCoord.Data.Data()
	if err != nil {
		return nil, err
	}
	yCoord := model.DimCoords[axes.Y]
	yData, err := yCoord.Data.Data()
	if err != nil {
		return nil, err
	}
	xStart, xEnd, xOK := indexRange(xData, b.XLo, b.XHi)
	yStart, yEnd, yOK := indexRange(yData, b.YLo, b.YHi)

	resolveHorizontal := func(coord []float64, lo, hi float64, start, end int, ok bool, axisKey string) {
		if ok {
			s, e := applyHalo(start, end, len(coord), halo)
			ranges[axisKey] = lazyarray.Range{Start: s, End: e}
			return
		}
		count := countOutside(coord, lo, hi)
		if count < 3 {
			s, e := betweenCells(coord, lo, hi, true)
			s, e = applyHalo(s, e, len(coord), halo)
			ranges[axisKey] = lazyarray.Range{Start: s, End: e}
		}
		// else: near-full cyclic coverage, skip (axis stays unsliced).
	}
	resolveHorizontal(xData, b.XLo, b.XHi, xStart, xEnd, xOK, axes.X)
	resolveHorizontal(yData, b.YLo, b.YHi, yStart, yEnd, yOK, axes.Y)

	// 3. Vertical axis, only if present.
	if b.HasZ {
		if zCoord, ok := model.DimCoords[axes.Z]; ok {
			zData, err := zCoord.Data.Data()
			if err != nil {
				return nil, err
			}
			if start, end, ok := indexRange(zData, b.ZLo, b.ZHi); ok {
				start, end = applyHalo(start, end, len(zData), halo)
				ranges[axes.Z] = lazyarray.Range{Start: start, End: end}
			} else {
				ascending := !verticalDescending
				start, end := betweenCells(zData, b.ZLo, b.ZHi, ascending)
				start, end = applyHalo(start, end, len(zData), halo)
				ranges[axes.Z] = lazyarray.Range{Start: start, End: end}
			}
		}
		// else: Z is multi-dimensional (auxiliary), can't be subspaced as a
		// dimension coordinate; leave unsliced, the Spatial Co-locator
		// handles 4-D Z by iterating model time steps (spec.md §4.4).
	}

	return model.Subspace(ranges), nil
}
