package output

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/metoffice/visiontoolkit/cf"
)

// Summary is the masked-sample/value-distribution report spec.md §3's
// "masked-sample summary reporting" asks the driver to produce per file:
// how many co-located samples landed on a missing value, plus the
// median/P85/P98 of the ones that didn't. Grounded on the velocity-report
// example's percentile aggregation (internal/db.go's
// stat.Quantile(p, stat.Empirical, sorted, nil) pattern).
type Summary struct {
	Total, Masked int
	P50, P85, P98 float64
}

// Compute scans field's data array once for NaN-masked samples (the CRA
// accumulator's MissingValue convention) and reports percentiles over the
// remainder.
func Compute(field *cf.Field) (Summary, error) {
	d, err := field.Data.Data()
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Total: len(d)}
	valid := make([]float64, 0, len(d))
	for _, v := range d {
		if math.IsNaN(v) {
			s.Masked++
			continue
		}
		valid = append(valid, v)
	}
	if len(valid) == 0 {
		return s, nil
	}
	sort.Float64s(valid)
	s.P50 = stat.Quantile(0.5, stat.Empirical, valid, nil)
	s.P85 = stat.Quantile(0.85, stat.Empirical, valid, nil)
	s.P98 = stat.Quantile(0.98, stat.Empirical, valid, nil)
	return s, nil
}
