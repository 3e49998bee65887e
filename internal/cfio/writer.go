package cfio

import (
	"fmt"
	"os"

	"bitbucket.org/ctessum/cdf"

	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/output"
)

// WriteField persists f as a NetCDF-classic file at path: its domain axes
// as dimensions, every dimension/auxiliary coordinate and the data array
// as variables carrying their CF attributes. Grounded on the AEP WRF
// writer's header-then-data two-phase pattern (wrfFiles.newFiles,
// createWRFvar): build and Define() the header before writing any data.
func WriteField(path string, f *cf.Field) error {
	dimNames := append([]string(nil), f.AxisOrder...)
	dimLens := make([]int, len(dimNames))
	for i, d := range dimNames {
		dimLens[i] = f.AxisSize[d]
	}
	h := cdf.NewHeader(dimNames, dimLens)

	h.AddVariable(f.StandardName, dimNames, []float64{0})
	addCommonAttrs(h, f.StandardName, f.Units, f.CellMethods)

	for key, c := range f.DimCoords {
		h.AddVariable(key, c.Axes, []float64{0})
		addCoordAttrs(h, key, c)
	}
	var auxNames []string
	for key, c := range f.AuxCoords {
		h.AddVariable(key, c.Axes, []float64{0})
		addCoordAttrs(h, key, c)
		auxNames = append(auxNames, key)
	}
	if len(auxNames) > 0 {
		h.AddAttribute(f.StandardName, "coordinates", joinSpace(auxNames))
	}
	for k, v := range f.Properties {
		h.AddAttribute("", k, v)
	}

	h.Define()
	for _, err := range h.Check() {
		if err != nil {
			return fmt.Errorf("cfio: invalid header for %s: %w", path, err)
		}
	}

	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cfio: create %s: %w", path, err)
	}
	file, err := cdf.Create(fh, h)
	if err != nil {
		fh.Close()
		return fmt.Errorf("cfio: write header of %s: %w", path, err)
	}

	if err := writeVar(file, f.StandardName, f.AxisOrder, f.AxisSize, f.Data); err != nil {
		fh.Close()
		return err
	}
	for key, c := range f.DimCoords {
		if err := writeVar(file, key, c.Axes, sizesOf(c.Axes, f.AxisSize), c.Data); err != nil {
			fh.Close()
			return err
		}
	}
	for key, c := range f.AuxCoords {
		if err := writeVar(file, key, c.Axes, sizesOf(c.Axes, f.AxisSize), c.Data); err != nil {
			fh.Close()
			return err
		}
	}

	if err := cdf.UpdateNumRecs(fh); err != nil {
		fh.Close()
		return fmt.Errorf("cfio: update record count of %s: %w", path, err)
	}
	return fh.Close()
}

func sizesOf(axes []string, axisSize map[string]int) map[string]int {
	out := make(map[string]int, len(axes))
	for _, a := range axes {
		out[a] = axisSize[a]
	}
	return out
}

func writeVar(file *cdf.File, name string, axes []string, sizes map[string]int, data interface {
	Data() ([]float64, error)
}) error {
	begin := make([]int, len(axes))
	end := make([]int, len(axes))
	for i, a := range axes {
		end[i] = sizes[a]
	}
	d, err := data.Data()
	if err != nil {
		return fmt.Errorf("cfio: materialise %s: %w", name, err)
	}
	w := file.Writer(name, begin, end)
	if _, err := w.Write(d); err != nil {
		return fmt.Errorf("cfio: write %s: %w", name, err)
	}
	return nil
}

func addCommonAttrs(h *cdf.Header, name, units, cellMethods string) {
	if units != "" {
		h.AddAttribute(name, "units", units)
	}
	if cellMethods != "" {
		h.AddAttribute(name, "cell_methods", cellMethods)
	}
	h.AddAttribute(name, "standard_name", name)
}

func addCoordAttrs(h *cdf.Header, name string, c *cf.Construct) {
	if c.Units != "" {
		h.AddAttribute(name, "units", c.Units)
	}
	if c.Calendar != "" {
		h.AddAttribute(name, "calendar", c.Calendar)
	}
	if c.Identity != "" {
		h.AddAttribute(name, "standard_name", c.Identity)
	}
}

func joinSpace(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " "
		}
		out += n
	}
	return out
}

// WriteCRA persists a compound trajectory result (spec.md §6 "compound
// trajectory outputs — CRA DSG encoding with featureType=trajectory and a
// cf_role=trajectory_id auxiliary coordinate"): the field's ordinary
// variables plus a row_size counts variable over the trajectory instance
// dimension and a fixed-width character trajectory_id variable.
func WriteCRA(path string, res *output.Result, trajectoryDim string) error {
	f := res.Field
	nTraj := len(res.RowSizes)
	idLen := maxLen(res.TrajectoryIDs)

	dimNames := append(append([]string(nil), f.AxisOrder...), trajectoryDim, "trajectory_id_len")
	dimLens := make([]int, len(dimNames))
	for i, d := range f.AxisOrder {
		dimLens[i] = f.AxisSize[d]
	}
	dimLens[len(f.AxisOrder)] = nTraj
	dimLens[len(f.AxisOrder)+1] = idLen
	h := cdf.NewHeader(dimNames, dimLens)

	h.AddVariable(f.StandardName, f.AxisOrder, []float64{0})
	addCommonAttrs(h, f.StandardName, f.Units, f.CellMethods)
	h.AddAttribute(f.StandardName, "featureType", "trajectory")

	for key, c := range f.DimCoords {
		h.AddVariable(key, c.Axes, []float64{0})
		addCoordAttrs(h, key, c)
	}
	var auxNames []string
	for key, c := range f.AuxCoords {
		h.AddVariable(key, c.Axes, []float64{0})
		addCoordAttrs(h, key, c)
		auxNames = append(auxNames, key)
	}
	if len(auxNames) > 0 {
		h.AddAttribute(f.StandardName, "coordinates", joinSpace(auxNames))
	}

	h.AddVariable("row_size", []string{trajectoryDim}, []int32{0})
	h.AddAttribute("row_size", "long_name", "number of observations per trajectory")
	h.AddAttribute("row_size", "sample_dimension", f.AxisOrder[0])

	h.AddVariable("trajectory_id", []string{trajectoryDim, "trajectory_id_len"}, []byte{0})
	h.AddAttribute("trajectory_id", "cf_role", "trajectory_id")

	for k, v := range f.Properties {
		h.AddAttribute("", k, v)
	}

	h.Define()
	for _, err := range h.Check() {
		if err != nil {
			return fmt.Errorf("cfio: invalid CRA header for %s: %w", path, err)
		}
	}

	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cfio: create %s: %w", path, err)
	}
	file, err := cdf.Create(fh, h)
	if err != nil {
		fh.Close()
		return fmt.Errorf("cfio: write CRA header of %s: %w", path, err)
	}

	if err := writeVar(file, f.StandardName, f.AxisOrder, f.AxisSize, f.Data); err != nil {
		fh.Close()
		return err
	}
	for key, c := range f.DimCoords {
		if err := writeVar(file, key, c.Axes, sizesOf(c.Axes, f.AxisSize), c.Data); err != nil {
			fh.Close()
			return err
		}
	}
	for key, c := range f.AuxCoords {
		if err := writeVar(file, key, c.Axes, sizesOf(c.Axes, f.AxisSize), c.Data); err != nil {
			fh.Close()
			return err
		}
	}

	rowSizes := make([]int32, nTraj)
	for i, n := range res.RowSizes {
		rowSizes[i] = int32(n)
	}
	if _, err := file.Writer("row_size", []int{0}, []int{nTraj}).Write(rowSizes); err != nil {
		fh.Close()
		return fmt.Errorf("cfio: write row_size: %w", err)
	}

	idBytes := make([]byte, nTraj*idLen)
	for i, id := range res.TrajectoryIDs {
		copy(idBytes[i*idLen:(i+1)*idLen], id)
	}
	if _, err := file.Writer("trajectory_id", []int{0, 0}, []int{nTraj, idLen}).Write(idBytes); err != nil {
		fh.Close()
		return fmt.Errorf("cfio: write trajectory_id: %w", err)
	}

	if err := cdf.UpdateNumRecs(fh); err != nil {
		fh.Close()
		return fmt.Errorf("cfio: update record count of %s: %w", path, err)
	}
	return fh.Close()
}

func maxLen(ss []string) int {
	m := 1
	for _, s := range ss {
		if len(s) > m {
			m = len(s)
		}
	}
	return m
}
