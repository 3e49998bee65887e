// Package regrid models the abstract Locstream Regridder capability
// (spec.md §4.4, §6): given a structured source field with horizontal X/Y
// and (optionally) vertical Z, compute interpolated values at a location
// stream of destination (x, y[, z]) triples.
package regrid

// Method names a regridding method; "linear" and "nearest" are the two
// spec.md names this engine exercises.
type Method string

const (
	Linear  Method = "linear"
	Nearest Method = "nearest"
)

// Point is one destination location in a location stream. HasZ is false
// for the satellite no-vertical mode (spec.md §4.4).
type Point struct {
	X, Y, Z float64
	HasZ    bool
}

// SourceGrid is the structured source the regridder interpolates from: flat
// row-major data over (len(Z) or 1) x len(Y) x len(X), with X/Y 1-D
// coordinates and an optional Z that may be 1-D (time-invariant) or as long
// as the flattened horizontal grid times the number of levels (3-D,
// time-invariant 4-D-minus-time).
type SourceGrid struct {
	X, Y   []float64 // len(X), len(Y)
	Z      []float64 // len(Z) or len(Z)*len(Y)*len(X), may be nil
	Data   []float64 // len(Z-or-1) * len(Y) * len(X)
	NZ     int        // number of vertical levels represented in Data/Z (1 if no vertical)
	LnZ    bool       // interpolate Z in ln(z) (pressure) vs linearly (altitude)
	Cyclic bool       // X wraps at 360 degrees
}

// Regridder is the Locstream Regridder capability (spec.md §6):
// regrid(source_field, dest_locations, method, src_z, dst_z, ln_z, src_axes)
// -> values at dest_locations. This implementation performs a structured
// trilinear/bilinear interpolation; it is the concrete adapter the engine's
// colocate package drives.
type Regridder interface {
	Regrid(src SourceGrid, dst []Point, method Method) ([]float64, error)
}
