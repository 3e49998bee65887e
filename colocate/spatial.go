// Package colocate implements the C4 Spatial Co-locator and C5 Temporal
// Co-locator (spec.md §4.4, §4.5): regridding a bounding-box-reduced model
// field onto an observational location stream, then interpolating the
// regridded values onto the observation's own time samples.
package colocate

import (
	"fmt"

	"github.com/metoffice/visiontoolkit/bbox"
	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/internal/lazyarray"
	"github.com/metoffice/visiontoolkit/internal/regrid"
	"github.com/metoffice/visiontoolkit/internal/vlog"
	"github.com/metoffice/visiontoolkit/verrors"
)

// Locations is an observational location stream: parallel X/Y(/Z) arrays,
// one entry per sample, the destination points the regridder interpolates
// onto (spec.md §4.4).
type Locations struct {
	X, Y []float64
	Z    []float64 // nil when the observation carries no vertical coordinate
}

func (l Locations) hasZ() bool { return len(l.Z) == len(l.X) && len(l.Z) > 0 }

// Spatial regrids model horizontally (and vertically, when present) onto
// loc for every model time step, returning a [model-time x location] lazy
// array. The C5 Temporal Co-locator consumes this to interpolate across
// model time (spec.md §4.4-§4.5).
//
// model must already be bounding-box reduced (bbox.Reduce). axes.Z may
// name either a dimension coordinate (time-invariant vertical, the primary
// strategy) or be empty/absent as a dimension coordinate, in which case Z
// is read per time step from model.AuxCoords[axes.Z] (the fallback
// strategy for a 4-D vertical coordinate, spec.md §4.4).
//
// level selects a single representative vertical index instead of
// interpolating in Z, collapsing the source grid to one level before the
// horizontal regrid runs (spec.md §4.5 "satellite special case"); pass -1
// to interpolate normally. Collapsing before the regrid rather than after
// is equivalent for a linear-family method (the discarded levels never
// enter the horizontal weights either way) and sidesteps needing the
// vertical axis identified by anything beyond its flat position.
func Spatial(model *cf.Field, axes bbox.AxisKeys, loc Locations, method regrid.Method, lnZ, cyclic bool, level int, rg regrid.Regridder) (*lazyarray.Array, error) {
	tCoord, ok := model.DimCoords[axes.T]
	if !ok {
		return nil, verrors.Internal("colocate: model field has no time dimension coordinate %q", axes.T)
	}
	nTime := model.AxisSize[axes.T]
	nObs := len(loc.X)

	dst := make([]regrid.Point, nObs)
	for i := range dst {
		p := regrid.Point{X: loc.X[i], Y: loc.Y[i]}
		if loc.hasZ() {
			p.Z, p.HasZ = loc.Z[i], true
		}
		dst[i] = p
	}

	compute := func() ([]float64, error) {
		_ = tCoord
		out := make([]float64, nTime*nObs)
		for t := 0; t < nTime; t++ {
			src, err := sourceGridAtTime(model, axes, t, lnZ, cyclic)
			if err != nil {
				return nil, fmt.Errorf("colocate: spatial regrid at model time step %d: %w", t, err)
			}
			if level >= 0 {
				collapseLevel(&src, level)
			}
			vals, err := rg.Regrid(src, dst, method)
			if err != nil {
				return nil, fmt.Errorf("colocate: spatial regrid at model time step %d: %w", t, err)
			}
			copy(out[t*nObs:(t+1)*nObs], vals)
		}
		return out, nil
	}

	vlog.Debugf("colocate: spatial regrid over %d model time steps, %d observation locations", nTime, nObs)
	return lazyarray.NewLazy([]int{nTime, nObs}, compute), nil
}

// sourceGridAtTime slices model.Data (and, if Z is an auxiliary coordinate,
// the matching vertical slice) at a single model time index, assembling
// the structured SourceGrid the regridder needs.
func sourceGridAtTime(model *cf.Field, axes bbox.AxisKeys, t int, lnZ, cyclic bool) (regrid.SourceGrid, error) {
	var src regrid.SourceGrid

	xData, err := model.DimCoords[axes.X].Data.Data()
	if err != nil {
		return src, err
	}
	yData, err := model.DimCoords[axes.Y].Data.Data()
	if err != nil {
		return src, err
	}
	src.X, src.Y, src.LnZ, src.Cyclic = xData, yData, lnZ, cyclic

	ranges := map[string]lazyarray.Range{axes.T: {Start: t, End: t + 1}}
	slice := model.Subspace(ranges)

	data, err := slice.Data.Data()
	if err != nil {
		return src, err
	}

	if zc, ok := model.DimCoords[axes.Z]; ok {
		// Time-invariant vertical: primary strategy.
		zData, err := zc.Data.Data()
		if err != nil {
			return src, err
		}
		src.Z = zData
		src.NZ = len(zData)
	} else if _, ok := model.AuxCoords[axes.Z]; ok {
		// 4-D vertical coordinate: fallback strategy, Z varies per time step.
		zSlice, err := slice.AuxCoords[axes.Z].Data.Data()
		if err != nil {
			return src, err
		}
		nxy := len(xData) * len(yData)
		if nxy == 0 || len(zSlice)%nxy != 0 {
			return src, verrors.Internal("colocate: auxiliary vertical coordinate %q has %d values, not a multiple of the %d-point horizontal grid", axes.Z, len(zSlice), nxy)
		}
		src.Z = zSlice
		src.NZ = len(zSlice) / nxy
	} else {
		src.NZ = 1
	}

	src.Data = data
	return src, nil
}

// collapseLevel discards every vertical level of src but the one named by
// level, in place, leaving a 1-level source grid the regridder interpolates
// horizontally only (spec.md §4.5 "satellite special case").
func collapseLevel(src *regrid.SourceGrid, level int) {
	if src.NZ <= 1 {
		return
	}
	nxy := len(src.X) * len(src.Y)
	if level < 0 || level >= src.NZ || len(src.Data) < (level+1)*nxy {
		level = 0
	}
	collapsed := make([]float64, nxy)
	copy(collapsed, src.Data[level*nxy:(level+1)*nxy])
	src.Data = collapsed
	src.Z = nil
	src.NZ = 1
}
