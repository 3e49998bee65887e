package cfio

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/internal/lazyarray"
	"github.com/metoffice/visiontoolkit/verrors"
)

// ReadField opens every file matching pattern (a glob per spec.md §6's
// "model/obs path accepts a glob"), reads varName from each, and returns a
// single cf.Field, concatenated along its leading axis when more than one
// file matches (spec.md §3's "multi-file concatenation, attributes
// equalised across files").
func ReadField(pattern, varName string) (*cf.Field, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, verrors.DataReading("cfio: invalid glob %q: %v", pattern, err)
	}
	if len(paths) == 0 {
		return nil, verrors.DataReading("cfio: no files matched %q", pattern)
	}
	sort.Strings(paths)

	fields := make([]*cf.Field, 0, len(paths))
	for _, p := range paths {
		f, err := readOneFile(p, varName)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	if len(fields) == 1 {
		return fields[0], nil
	}
	return concatFields(fields)
}

// readOneFile builds a cf.Field for varName from a single dataset: the
// variable's own data, its dimension coordinates, and any auxiliary
// coordinates named by its CF "coordinates" attribute.
func readOneFile(path, varName string) (*cf.Field, error) {
	d, err := Open(path)
	if err != nil {
		return nil, verrors.DataReading("%v", err)
	}
	defer d.Close()

	dims := d.Dims(varName)
	shape := d.Shape(varName)
	if len(dims) == 0 {
		return nil, verrors.CFCompliance("cfio: variable %q in %s has no declared dimensions", varName, path)
	}

	f := cf.NewField()
	f.StandardName = d.StringAttribute(varName, "standard_name")
	if f.StandardName == "" {
		f.StandardName = varName
	}
	f.Units = d.StringAttribute(varName, "units")
	f.CellMethods = d.StringAttribute(varName, "cell_methods")
	if h := d.StringAttribute(varName, "history"); h != "" {
		f.Properties["history"] = h
	}

	f.AxisOrder = dims
	for i, dim := range dims {
		f.AxisSize[dim] = shape[i]
	}

	begin := make([]int, len(dims))
	end := append([]int(nil), shape...)
	// d is closed via defer above; the lazy read needs its own handle
	// since it may run long after readOneFile has returned.
	d2, err := Open(path)
	if err != nil {
		return nil, verrors.DataReading("%v", err)
	}
	f.Data = lazyarray.NewLazy(shape, func() ([]float64, error) {
		defer d2.Close()
		return d2.ReadFloat64(varName, begin, end)
	})

	for _, dim := range dims {
		c, err := readCoordinate(path, dim, []string{dim})
		if err != nil {
			continue // not every dimension has a coordinate variable
		}
		f.DimCoords[dim] = c
	}

	if coordsAttr := d.StringAttribute(varName, "coordinates"); coordsAttr != "" {
		for _, name := range strings.Fields(coordsAttr) {
			c, err := readAuxCoordinate(path, name)
			if err != nil {
				return nil, err
			}
			f.AuxCoords[c.Identity] = c
		}
	}

	return f, nil
}

func readCoordinate(path, varName string, axes []string) (*cf.Construct, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	found := false
	for _, v := range d.Variables() {
		if v == varName {
			found = true
			break
		}
	}
	if !found {
		d.Close()
		return nil, fmt.Errorf("cfio: no coordinate variable %q", varName)
	}
	shape := d.Shape(varName)
	units := d.StringAttribute(varName, "units")
	calendar := d.StringAttribute(varName, "calendar")
	identity := d.StringAttribute(varName, "standard_name")
	if identity == "" {
		identity = varName
	}
	if calendar == "" && isTimeUnits(units) {
		calendar = cf.CalendarStandard
	}

	begin := make([]int, len(shape))
	end := append([]int(nil), shape...)
	c := &cf.Construct{
		Identity: identity,
		Role:     cf.RoleDimensionCoordinate,
		Units:    units,
		Calendar: calendar,
		Axes:     axes,
		Data: lazyarray.NewLazy(shape, func() ([]float64, error) {
			defer d.Close()
			return d.ReadFloat64(varName, begin, end)
		}),
	}
	return c, nil
}

func readAuxCoordinate(path, varName string) (*cf.Construct, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	dims := d.Dims(varName)
	shape := d.Shape(varName)
	units := d.StringAttribute(varName, "units")
	calendar := d.StringAttribute(varName, "calendar")
	identity := d.StringAttribute(varName, "standard_name")
	if identity == "" {
		identity = varName
	}

	begin := make([]int, len(shape))
	end := append([]int(nil), shape...)
	d2, err := Open(path)
	if err != nil {
		return nil, err
	}
	c := &cf.Construct{
		Identity: identity,
		Role:     cf.RoleAuxiliaryCoordinate,
		Units:    units,
		Calendar: calendar,
		Axes:     dims,
		Data: lazyarray.NewLazy(shape, func() ([]float64, error) {
			defer d2.Close()
			return d2.ReadFloat64(varName, begin, end)
		}),
	}
	return c, nil
}

// concatFields concatenates same-shaped fields along their leading axis
// (the convention for a multi-file model/obs time series), after
// equalising their non-varying attributes (spec.md §3).
func concatFields(fields []*cf.Field) (*cf.Field, error) {
	base := fields[0]
	for _, f := range fields[1:] {
		if f.StandardName != base.StandardName || f.Units != base.Units {
			return nil, verrors.CFCompliance("cfio: cannot concatenate files with mismatched standard_name/units (%q/%q vs %q/%q)",
				f.StandardName, f.Units, base.StandardName, base.Units)
		}
	}

	leading := base.AxisOrder[0]
	out := base.Copy()

	arrays := make([]*lazyarray.Array, len(fields))
	for i, f := range fields {
		arrays[i] = f.Data
	}
	out.Data = lazyarray.Concat(arrays)
	out.AxisSize[leading] = out.Data.Shape()[0]

	leadCoordArrays := make([]*lazyarray.Array, len(fields))
	for i, f := range fields {
		leadCoordArrays[i] = f.DimCoords[leading].Data
	}
	merged := *base.DimCoords[leading]
	merged.Data = lazyarray.Concat(leadCoordArrays)
	out.DimCoords[leading] = &merged

	out.AppendHistory(fmt.Sprintf("concatenated %d input files along %q", len(fields), leading))
	return out, nil
}

func isTimeUnits(units string) bool {
	return strings.Contains(units, "since")
}
