package cf

import (
	"math"

	"github.com/metoffice/visiontoolkit/internal/lazyarray"
	"github.com/metoffice/visiontoolkit/internal/vlog"
	"github.com/metoffice/visiontoolkit/verrors"
)

// LocateTime returns the field's time coordinate, preferring a dimension
// coordinate identified as axis "T", then falling back to one whose
// identity is "time" (spec.md §4.1).
func LocateTime(f *Field) (*Construct, error) {
	if c, ok := f.DimCoords["T"]; ok {
		return c, nil
	}
	for _, c := range f.DimCoords {
		if c.Identity == "time" {
			return c, nil
		}
	}
	for _, c := range f.AuxCoords {
		if c.Identity == "time" && c.IsTime() {
			return c, nil
		}
	}
	return nil, verrors.CFCompliance("no time coordinate located (need axis T or identity \"time\")")
}

// LocateAxis returns the named dimension coordinate ("X", "Y", or "Z"),
// erroring if absent. Z may legitimately be absent (satellite swaths have
// no vertical); callers that tolerate that should check f.DimCoords
// directly instead.
func LocateAxis(f *Field, axisKey string) (*Construct, error) {
	c, ok := f.DimCoords[axisKey]
	if !ok {
		return nil, verrors.CFCompliance("no %s coordinate located", axisKey)
	}
	return c, nil
}

// TimeExtrema returns the first and last values of a strictly monotone time
// construct, read from position rather than a full min/max scan, per
// spec.md §4.2 ("Monotonicity of T is assumed ... endpoints are taken from
// position, not full min/max scans").
func TimeExtrema(c *Construct) (Time, Time, error) {
	data, err := c.Data.Data()
	if err != nil {
		return Time{}, Time{}, err
	}
	if len(data) == 0 {
		return Time{}, Time{}, verrors.CFCompliance("time coordinate %s has no values", c.Identity)
	}
	units, err := ParseUnits(c.Units)
	if err != nil {
		return Time{}, Time{}, verrors.CFCompliance("time coordinate %s: %v", c.Identity, err)
	}
	first := Time{Value: data[0], Units: units, Calendar: c.Calendar}
	last := Time{Value: data[len(data)-1], Units: units, Calendar: c.Calendar}
	return first, last, nil
}

// ReconcileTime aligns the obs and model time coordinates onto one
// calendar/units basis, per spec.md §4.1, and optionally rebases the obs
// trajectory so it starts at newStart (preserving inter-sample spacing):
// every obs time is shifted by obs_t[0] - newStart.
// It returns the (possibly converted) model time data, the (possibly
// rebased) obs time data, and the common Units/Calendar they now share.
func ReconcileTime(obsT, modelT *Construct, newStart *DateTime) ([]float64, []float64, Units, string, error) {
	obsData, err := obsT.Data.Data()
	if err != nil {
		return nil, nil, Units{}, "", err
	}
	modelData, err := modelT.Data.Data()
	if err != nil {
		return nil, nil, Units{}, "", err
	}

	obsUnits, err := ParseUnits(obsT.Units)
	if err != nil {
		return nil, nil, Units{}, "", verrors.CFCompliance("obs time units: %v", err)
	}
	modelUnits, err := ParseUnits(modelT.Units)
	if err != nil {
		return nil, nil, Units{}, "", verrors.CFCompliance("model time units: %v", err)
	}

	obsCal := obsT.Calendar
	modelCal := modelT.Calendar
	commonCal := obsCal

	if obsCal != modelCal {
		if !equivalentAcrossSeries(obsCal, modelCal, modelData, modelUnits) {
			return nil, nil, Units{}, "", verrors.CFCompliance(
				"incompatible calendars: obs=%s model=%s", obsCal, modelCal)
		}
		// Coerce the model calendar to standard, as spec.md prescribes.
		vlog.Debugf("cf: coercing model calendar %s to %s", modelCal, CalendarStandard)
		modelCal = CalendarStandard
		commonCal = CalendarStandard
	}

	outModel := make([]float64, len(modelData))
	outObs := make([]float64, len(obsData))

	// Convert the side with fewer points when units differ (spec.md §4.1).
	targetUnits := obsUnits
	if obsUnits.raw != modelUnits.raw {
		if len(modelData) <= len(obsData) {
			targetUnits = obsUnits
			for i, v := range modelData {
				mt := Time{Value: v, Units: modelUnits, Calendar: commonCal}
				nv, err := mt.ConvertTo(targetUnits)
				if err != nil {
					return nil, nil, Units{}, "", verrors.CFCompliance("converting model time: %v", err)
				}
				outModel[i] = nv
			}
			copy(outObs, obsData)
		} else {
			targetUnits = modelUnits
			for i, v := range obsData {
				ot := Time{Value: v, Units: obsUnits, Calendar: commonCal}
				nv, err := ot.ConvertTo(targetUnits)
				if err != nil {
					return nil, nil, Units{}, "", verrors.CFCompliance("converting obs time: %v", err)
				}
				outObs[i] = nv
			}
			copy(outModel, modelData)
		}
	} else {
		copy(outModel, modelData)
		copy(outObs, obsData)
	}

	if newStart != nil && len(outObs) > 0 {
		spu, err := targetUnits.secondsPerUnit()
		if err != nil {
			return nil, nil, Units{}, "", err
		}
		newStartValue, err := (Time{Units: targetUnits, Calendar: commonCal}).valueOf(*newStart)
		if err != nil {
			return nil, nil, Units{}, "", err
		}
		shift := outObs[0] - newStartValue
		for i := range outObs {
			outObs[i] -= shift
		}
		_ = spu
	}

	return outModel, outObs, targetUnits, commonCal, nil
}

// valueOf returns the numeric value, under t.Units/t.Calendar, of the civil
// datetime d.
func (t Time) valueOf(d DateTime) (float64, error) {
	spu, err := t.Units.secondsPerUnit()
	if err != nil {
		return 0, err
	}
	epochDay := civilDayNumber(t.Units.Epoch.Year, t.Units.Epoch.Month, t.Units.Epoch.Day, t.Calendar)
	epochSecs := float64(epochDay)*86400 + daySeconds(t.Units.Epoch)
	dDay := civilDayNumber(d.Year, d.Month, d.Day, t.Calendar)
	dSecs := float64(dDay)*86400 + daySeconds(d)
	return (dSecs - epochSecs) / spu, nil
}

// equivalentAcrossSeries checks the calendar-equivalence rule from spec.md
// §4.1: "standard" and "proleptic_gregorian" are interchangeable iff every
// model datetime is on or after the 1582-10-15 Gregorian reform.
func equivalentAcrossSeries(obsCal, modelCal string, modelData []float64, modelUnits Units) bool {
	std := func(c string) bool { return c == CalendarStandard || c == CalendarGregorian }
	prolep := func(c string) bool { return c == CalendarProlepticGregorian }
	if !((std(obsCal) && prolep(modelCal)) || (std(modelCal) && prolep(obsCal))) {
		return false
	}
	reformValue, err := (Time{Units: modelUnits, Calendar: CalendarStandard}).valueOf(gregorianReformDate)
	if err != nil {
		return false
	}
	for _, v := range modelData {
		if v < reformValue {
			return false
		}
	}
	return true
}

// HybridHeight and HybridSigmaPressure are the parametric vertical
// coordinate reference standard names the engine recognises (spec.md §4.1).
const (
	HybridHeight        = "atmosphere_hybrid_height_coordinate"
	HybridSigmaPressure = "atmosphere_hybrid_sigma_pressure_coordinate"
)

// ComputeParametricVertical materialises the computed vertical auxiliary
// coordinate (altitude for hybrid height, air_pressure for hybrid
// sigma-pressure) named by a coordinate reference on f, per spec.md §4.1.
// For hybrid height, orography must already be attached under key "orog".
// The new auxiliary coordinate's key is identified by set-difference of aux
// coordinates before vs. after, as spec.md prescribes.
func ComputeParametricVertical(f *Field) (*Construct, error) {
	var ref *CoordinateReference
	var kind string
	for _, r := range f.CoordRefs {
		switch r.StandardName {
		case HybridHeight:
			ref = r
			kind = HybridHeight
		case HybridSigmaPressure:
			ref = r
			kind = HybridSigmaPressure
		}
		if ref != nil {
			break
		}
	}
	if ref == nil {
		return nil, verrors.CFCompliance("no hybrid-height or hybrid-sigma-pressure coordinate reference present")
	}

	before := make(map[string]bool, len(f.AuxCoords))
	for k := range f.AuxCoords {
		before[k] = true
	}

	switch kind {
	case HybridHeight:
		orog, ok := f.Ancillary["orog"]
		if !ok {
			return nil, verrors.CFCompliance("hybrid height requires an orography domain ancillary under key \"orog\"")
		}
		a, aok := ref.Coefficients["a"]
		b, bok := ref.Coefficients["b"]
		if !aok || !bok {
			return nil, verrors.CFCompliance("hybrid height coordinate reference missing a/b coefficients")
		}
		newC, err := computeHybridHeight(a, b, orog)
		if err != nil {
			return nil, err
		}
		f.AuxCoords["altitude"] = newC
	case HybridSigmaPressure:
		ap, apok := ref.Coefficients["ap"]
		b, bok := ref.Coefficients["b"]
		ps, psok := ref.Coefficients["ps"]
		if !apok || !bok || !psok {
			return nil, verrors.CFCompliance("hybrid sigma-pressure coordinate reference missing ap/b/ps coefficients")
		}
		newC, err := computeHybridSigmaPressure(ap, b, ps)
		if err != nil {
			return nil, err
		}
		f.AuxCoords["air_pressure"] = newC
	}

	for k := range f.AuxCoords {
		if !before[k] {
			return f.AuxCoords[k], nil
		}
	}
	return nil, verrors.Internal("parametric vertical computation did not add a new auxiliary coordinate")
}

// computeHybridHeight applies altitude = a(k) + b(k)*orog, broadcasting the
// 1-D a/b coefficients (indexed by Z) against the 2-D orography field.
func computeHybridHeight(a, b, orog *Construct) (*Construct, error) {
	aData, err := a.Data.Data()
	if err != nil {
		return nil, err
	}
	bData, err := b.Data.Data()
	if err != nil {
		return nil, err
	}
	orogData, err := orog.Data.Data()
	if err != nil {
		return nil, err
	}
	nz := len(aData)
	nxy := len(orogData)
	out := make([]float64, nz*nxy)
	for k := 0; k < nz; k++ {
		for i := 0; i < nxy; i++ {
			out[k*nxy+i] = aData[k] + bData[k]*orogData[i]
		}
	}
	return &Construct{
		Identity: "altitude",
		Role:     RoleAuxiliaryCoordinate,
		Units:    "m",
		Axes:     append([]string{"Z"}, orog.Axes...),
		Data:     lazyarray.NewEager(out, append([]int{nz}, orog.Shape()...)),
	}, nil
}

// computeHybridSigmaPressure applies pressure = ap(k) + b(k)*ps.
func computeHybridSigmaPressure(ap, b, ps *Construct) (*Construct, error) {
	apData, err := ap.Data.Data()
	if err != nil {
		return nil, err
	}
	bData, err := b.Data.Data()
	if err != nil {
		return nil, err
	}
	psData, err := ps.Data.Data()
	if err != nil {
		return nil, err
	}
	nz := len(apData)
	npos := len(psData)
	out := make([]float64, nz*npos)
	for k := 0; k < nz; k++ {
		for i := 0; i < npos; i++ {
			out[k*npos+i] = apData[k] + bData[k]*psData[i]
		}
	}
	return &Construct{
		Identity: "air_pressure",
		Role:     RoleAuxiliaryCoordinate,
		Units:    "Pa",
		Axes:     append([]string{"Z"}, ps.Axes...),
		Data:     lazyarray.NewEager(out, append([]int{nz}, ps.Shape()...)),
	}, nil
}

// NormaliseLongitude wraps a longitude value into [0, 360), honouring the
// cyclic-X convention of spec.md §3.
func NormaliseLongitude(x float64) float64 {
	x = math.Mod(x, 360)
	if x < 0 {
		x += 360
	}
	return x
}

// ClampLatitude bounds a latitude value to [-90, 90] per spec.md §3.
func ClampLatitude(y float64) float64 {
	if y < -90 {
		return -90
	}
	if y > 90 {
		return 90
	}
	return y
}
