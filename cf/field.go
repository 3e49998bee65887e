// Package cf implements the C1 CF Normaliser and the shared Field/Construct
// data model used throughout the co-location engine (spec.md §3, §4.1).
package cf

import (
	"fmt"

	"github.com/metoffice/visiontoolkit/internal/lazyarray"
)

// Role classifies a Construct's place in a Field's domain, mirroring CF's
// construct taxonomy (spec.md §3).
type Role int

const (
	RoleDimensionCoordinate Role = iota
	RoleAuxiliaryCoordinate
	RoleDomainAncillary
	RoleCoordinateReference
)

// Construct is a single coordinate-like object: a named, unit-bearing array
// attached to one or more of a Field's domain axes.
type Construct struct {
	Identity string // standard_name, or a synthesised key
	Role     Role
	Units    string
	Calendar string   // only meaningful when Identity is a time coordinate
	Axes     []string // domain-axis keys this construct spans, in Data order
	Data     *lazyarray.Array
}

// Shape returns the construct's data shape (same length as Axes).
func (c *Construct) Shape() []int { return c.Data.Shape() }

// RestShape returns the construct's shape with leadAxis's extent removed,
// assuming leadAxis is c.Axes[0] (the layout the Output Assembler's CRA
// compressor relies on). If leadAxis isn't the leading axis, the full
// shape is returned unchanged.
func (c *Construct) RestShape(leadAxis string) []int {
	shape := c.Shape()
	if len(c.Axes) == 0 || c.Axes[0] != leadAxis {
		return shape
	}
	return shape[1:]
}

// IsTime reports whether the construct carries a calendar (CF marks time
// coordinates this way: every time coordinate has a calendar, nothing else
// does).
func (c *Construct) IsTime() bool { return c.Calendar != "" }

// CoordinateReference names a parametric formula tying auxiliary/dimension
// coordinates together (spec.md §3, §4.1), e.g. hybrid height.
type CoordinateReference struct {
	StandardName  string
	Coefficients  map[string]*Construct // formula term name -> coordinate, e.g. "a","b","orog"
	CoordinateIDs []string              // keys of coordinates the formula computes from
}

// Field couples an N-D numeric array to CF constructs (spec.md §3).
type Field struct {
	StandardName string
	Units        string
	CellMethods  string
	Properties   map[string]string // arbitrary properties, including "history"

	AxisOrder []string       // order of domain axes as they appear in Data
	AxisSize  map[string]int // domain axis key -> size

	DimCoords  map[string]*Construct // axis key -> dimension coordinate
	AuxCoords  map[string]*Construct // identity -> auxiliary coordinate
	CoordRefs  map[string]*CoordinateReference
	Ancillary  map[string]*Construct // domain ancillaries, e.g. "orog"

	Data *lazyarray.Array
}

// NewField returns an empty Field ready to be populated by a reader/plugin.
func NewField() *Field {
	return &Field{
		Properties: map[string]string{},
		AxisSize:   map[string]int{},
		DimCoords:  map[string]*Construct{},
		AuxCoords:  map[string]*Construct{},
		CoordRefs:  map[string]*CoordinateReference{},
		Ancillary:  map[string]*Construct{},
	}
}

// Persist materialises the field's data array and every attached
// construct's data, per the engine's documented cache boundary (spec.md §5):
// metadata constructs are persisted early to stabilise identity lookups.
func (f *Field) Persist() error {
	for _, c := range f.DimCoords {
		if err := c.Data.Persist(); err != nil {
			return fmt.Errorf("cf: persist dim coord %s: %w", c.Identity, err)
		}
	}
	for _, c := range f.AuxCoords {
		if err := c.Data.Persist(); err != nil {
			return fmt.Errorf("cf: persist aux coord %s: %w", c.Identity, err)
		}
	}
	for _, c := range f.Ancillary {
		if err := c.Data.Persist(); err != nil {
			return fmt.Errorf("cf: persist ancillary %s: %w", c.Identity, err)
		}
	}
	return nil
}

// PersistData materialises only the N-D data array, leaving coordinates
// (already persisted) alone. Spec.md §5(b): "data arrays remain lazy until
// the bounding-box reduction is complete".
func (f *Field) PersistData() error {
	if f.Data == nil {
		return nil
	}
	return f.Data.Persist()
}

// Copy returns a shallow structural copy of f (new maps, same Construct
// pointers) suitable for the defensive-copy strategy in spec.md §5 around
// repeated parametric-vertical mutation.
func (f *Field) Copy() *Field {
	nf := NewField()
	nf.StandardName = f.StandardName
	nf.Units = f.Units
	nf.CellMethods = f.CellMethods
	for k, v := range f.Properties {
		nf.Properties[k] = v
	}
	nf.AxisOrder = append([]string(nil), f.AxisOrder...)
	for k, v := range f.AxisSize {
		nf.AxisSize[k] = v
	}
	for k, v := range f.DimCoords {
		nf.DimCoords[k] = v
	}
	for k, v := range f.AuxCoords {
		nf.AuxCoords[k] = v
	}
	for k, v := range f.CoordRefs {
		nf.CoordRefs[k] = v
	}
	for k, v := range f.Ancillary {
		nf.Ancillary[k] = v
	}
	nf.Data = f.Data
	return nf
}

// AppendHistory appends msg to the "history" property, creating it if
// absent, separated the way the Output Assembler requires (spec.md §4.6).
func (f *Field) AppendHistory(msg string) {
	const sep = "\n"
	if cur, ok := f.Properties["history"]; ok && cur != "" {
		f.Properties["history"] = cur + sep + msg
	} else {
		f.Properties["history"] = msg
	}
}

// RestShape returns the sizes of every domain axis other than leadAxis,
// in AxisOrder order, assuming leadAxis is AxisOrder[0]. Used by the
// Output Assembler's CRA compressor, which concatenates along a leading
// sample axis (spec.md §4.6).
func (f *Field) RestShape(leadAxis string) []int {
	if len(f.AxisOrder) == 0 || f.AxisOrder[0] != leadAxis {
		return nil
	}
	shape := make([]int, len(f.AxisOrder)-1)
	for i, a := range f.AxisOrder[1:] {
		shape[i] = f.AxisSize[a]
	}
	return shape
}

// AxisIndex returns the position of axisKey within AxisOrder, or -1.
func (f *Field) AxisIndex(axisKey string) int {
	for i, k := range f.AxisOrder {
		if k == axisKey {
			return i
		}
	}
	return -1
}

// Subspace slices f along the given index ranges (half-open, keyed by
// domain axis). Axes absent from ranges are passed through whole. Every
// construct spanning a sliced axis is sliced consistently; this is the
// primitive the C3 Bounding-Box Reducer composes into full 4-axis and
// decomposed subspacing (spec.md §4.3).
func (f *Field) Subspace(ranges map[string]lazyarray.Range) *Field {
	nf := f.Copy()
	full := func(axis string) lazyarray.Range {
		if r, ok := ranges[axis]; ok {
			return r
		}
		return lazyarray.Range{Start: 0, End: f.AxisSize[axis]}
	}

	dataRanges := make([]lazyarray.Range, len(f.AxisOrder))
	for i, axis := range f.AxisOrder {
		dataRanges[i] = full(axis)
		nf.AxisSize[axis] = dataRanges[i].End - dataRanges[i].Start
	}
	if f.Data != nil {
		nf.Data = lazyarray.Slice(f.Data, dataRanges)
	}

	sliceConstruct := func(c *Construct) *Construct {
		crRanges := make([]lazyarray.Range, len(c.Axes))
		changed := false
		for i, axis := range c.Axes {
			crRanges[i] = full(axis)
			if _, ok := ranges[axis]; ok {
				changed = true
			}
		}
		if !changed {
			return c
		}
		nc := &Construct{Identity: c.Identity, Role: c.Role, Units: c.Units, Calendar: c.Calendar, Axes: c.Axes}
		nc.Data = lazyarray.Slice(c.Data, crRanges)
		return nc
	}

	for k, c := range f.DimCoords {
		nf.DimCoords[k] = sliceConstruct(c)
	}
	for k, c := range f.AuxCoords {
		nf.AuxCoords[k] = sliceConstruct(c)
	}
	for k, c := range f.Ancillary {
		nf.Ancillary[k] = sliceConstruct(c)
	}
	return nf
}
