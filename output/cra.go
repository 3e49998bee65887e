package output

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/internal/lazyarray"
	"github.com/metoffice/visiontoolkit/verrors"
)

// MissingValue is the fill value CRA padding would use for incomplete
// rows (spec.md §4.6 step 2, "missing-value fill"); compression drops
// every padded cell before it reaches the output, so it only documents
// intent here.
var MissingValue = math.NaN()

// Result is a field plus the feature-level bookkeeping a CRA DSG needs
// but cf.Field's all-float64 construct model can't carry directly: one
// trajectory_id string and one ragged row size per feature.
type Result struct {
	Field         *cf.Field
	TrajectoryIDs []string
	RowSizes      []int
}

type craFeature struct {
	field      *cf.Field
	trajID     string
	startTime  float64
	validCount int
}

// CRA accumulates per-file result fields and compresses them into one
// CRA DSG field (spec.md §4.6 "CRA assembly (compound trajectory
// output)"). Every field added must share sampleAxis as its leading
// domain axis (f.AxisOrder[0]) — the per-observation sample axis that
// becomes the ragged dimension. timeIdentity names the auxiliary time
// coordinate used to order features by start time.
type CRA struct {
	sampleAxis   string
	timeIdentity string
	features     []craFeature
}

// NewCRA returns an empty accumulator.
func NewCRA(sampleAxis, timeIdentity string) *CRA {
	return &CRA{sampleAxis: sampleAxis, timeIdentity: timeIdentity}
}

// Add registers one per-file result field as a trajectory feature. If the
// field carries no "trajectory_id" property (spec.md step 1's "cf_role=
// trajectory_id auxiliary coordinate"), a fresh one is synthesised.
func (c *CRA) Add(field *cf.Field) error {
	if len(field.AxisOrder) == 0 || field.AxisOrder[0] != c.sampleAxis {
		return verrors.Internal("output: CRA feature's leading axis must be %q, got %v", c.sampleAxis, field.AxisOrder)
	}
	id, ok := field.Properties["trajectory_id"]
	if !ok || id == "" {
		id = uuid.NewString()
	}
	tCoord, ok := field.AuxCoords[c.timeIdentity]
	if !ok {
		return verrors.CFCompliance("output: result field has no %q auxiliary time coordinate to sort CRA features by", c.timeIdentity)
	}
	tData, err := tCoord.Data.Data()
	if err != nil {
		return err
	}
	if len(tData) == 0 {
		return verrors.CFCompliance("output: result field's time coordinate is empty")
	}
	c.features = append(c.features, craFeature{
		field:      field,
		trajID:     id,
		startTime:  tData[0],
		validCount: field.AxisSize[c.sampleAxis],
	})
	return nil
}

// Compress sorts features by start time and concatenates each one's valid
// (unpadded) rows directly into one ragged sample axis — the dense
// pad-then-trim of spec.md §4.6 steps 2-3 collapses to this when every
// feature already carries only its own valid samples, which holds for
// every per-file result this engine produces.
func (c *CRA) Compress() (*Result, error) {
	if len(c.features) == 0 {
		return nil, verrors.Internal("output: no features to compress")
	}

	sort.SliceStable(c.features, func(i, j int) bool {
		return c.features[i].startTime < c.features[j].startTime
	})

	base := c.features[0].field
	restShape := append([]int(nil), base.RestShape(c.sampleAxis)...)
	rest := productInts(restShape)

	totalRagged := 0
	rowSizes := make([]int, len(c.features))
	trajIDs := make([]string, len(c.features))
	for i, ft := range c.features {
		rowSizes[i] = ft.validCount
		trajIDs[i] = ft.trajID
		totalRagged += ft.validCount
	}

	data := make([]float64, totalRagged*rest)
	pos := 0
	for _, ft := range c.features {
		d, err := ft.field.Data.Data()
		if err != nil {
			return nil, err
		}
		n := ft.validCount * rest
		copy(data[pos:pos+n], d[:n])
		pos += n
	}

	out := base.Copy()
	out.AxisSize[c.sampleAxis] = totalRagged
	out.Data = lazyarray.NewEager(data, append([]int{totalRagged}, restShape...))

	for key, aux := range base.AuxCoords {
		if !spans(aux.Axes, c.sampleAxis) {
			continue
		}
		auxRest := productInts(aux.RestShape(c.sampleAxis))
		merged := make([]float64, totalRagged*auxRest)
		pos := 0
		for _, ft := range c.features {
			ac, ok := ft.field.AuxCoords[key]
			if !ok {
				return nil, verrors.CFCompliance("output: feature missing auxiliary coordinate %q present in first feature", key)
			}
			d, err := ac.Data.Data()
			if err != nil {
				return nil, err
			}
			n := ft.validCount * auxRest
			copy(merged[pos:pos+n], d[:n])
			pos += n
		}
		nc := &cf.Construct{Identity: aux.Identity, Role: aux.Role, Units: aux.Units, Calendar: aux.Calendar, Axes: aux.Axes}
		nc.Data = lazyarray.NewEager(merged, append([]int{totalRagged}, aux.RestShape(c.sampleAxis)...))
		out.AuxCoords[key] = nc
	}

	out.Properties["featureType"] = "trajectory"
	out.AppendHistory("compressed to contiguous ragged array DSG")

	return &Result{Field: out, TrajectoryIDs: trajIDs, RowSizes: rowSizes}, nil
}

func spans(axes []string, axis string) bool {
	for _, a := range axes {
		if a == axis {
			return true
		}
	}
	return false
}

func productInts(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
