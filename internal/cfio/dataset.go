// Package cfio is the CF Dataset Reader (spec.md §6): it opens one or more
// NetCDF/CDF files, matching the teacher's file-handle-then-parse idiom
// (common.go's stream open/close pairs), and exposes CF-flavoured variable
// and attribute access on top of bitbucket.org/ctessum/cdf's classic
// NetCDF reader.
package cfio

import (
	"fmt"
	"os"

	"bitbucket.org/ctessum/cdf"
)

// Dataset is one open CDF file.
type Dataset struct {
	path string
	fh   *os.File
	file *cdf.File
}

// Open opens path as a CDF/NetCDF-classic dataset.
func Open(path string) (*Dataset, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cfio: open %s: %w", path, err)
	}
	f, err := cdf.Open(fh)
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("cfio: parse header of %s: %w", path, err)
	}
	return &Dataset{path: path, fh: fh, file: f}, nil
}

// Close releases the underlying file handle.
func (d *Dataset) Close() error {
	return d.fh.Close()
}

// Path returns the filesystem path this dataset was opened from.
func (d *Dataset) Path() string { return d.path }

// Variables lists every variable name in the dataset.
func (d *Dataset) Variables() []string {
	return d.file.Header.Variables()
}

// Dims returns the dimension names, in declared order, of a variable.
func (d *Dataset) Dims(name string) []string {
	return d.file.Header.Dimensions(name)
}

// Shape returns the lengths of a variable's dimensions, in declared order.
func (d *Dataset) Shape(name string) []int {
	dims := d.Dims(name)
	shape := make([]int, len(dims))
	for i, dim := range dims {
		shape[i] = d.file.Header.Lengths(dim)[0]
	}
	return shape
}

// Attribute reads a variable attribute ("" for a global attribute) and
// reports whether it was present.
func (d *Dataset) Attribute(varName, attName string) (interface{}, bool) {
	v := d.file.Header.GetAttribute(varName, attName)
	return v, v != nil
}

// StringAttribute is Attribute coerced to a string, or "" if absent or of
// another type.
func (d *Dataset) StringAttribute(varName, attName string) string {
	v, ok := d.Attribute(varName, attName)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// ReadFloat64 reads the hyperslab [begin, end) of name, converting
// whatever the file's underlying storage type is (float32, float64, or
// int32, per CF's usual coordinate/data encodings) into float64.
func (d *Dataset) ReadFloat64(name string, begin, end []int) ([]float64, error) {
	n := 1
	for i := range begin {
		n *= end[i] - begin[i]
	}
	r := d.file.Reader(name, begin, end)

	switch d.file.Header.VarType(name) {
	case "float64":
		buf := make([]float64, n)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("cfio: read %s from %s: %w", name, d.path, err)
		}
		return buf, nil
	case "int32":
		buf := make([]int32, n)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("cfio: read %s from %s: %w", name, d.path, err)
		}
		out := make([]float64, n)
		for i, v := range buf {
			out[i] = float64(v)
		}
		return out, nil
	default: // "float32" and anything else the classic format stores compactly
		buf := make([]float32, n)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("cfio: read %s from %s: %w", name, d.path, err)
		}
		out := make([]float64, n)
		for i, v := range buf {
			out[i] = float64(v)
		}
		return out, nil
	}
}
