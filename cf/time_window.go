package cf

import "github.com/metoffice/visiontoolkit/verrors"

// ValidateTimeWindow is the C2 Time-Window Validator (spec.md §4.2): it
// requires model_min <= obs_min and model_max >= obs_max, comparing
// endpoints taken from position under the already-reconciled common
// units/calendar, and fails loudly otherwise.
func ValidateTimeWindow(obsData, modelData []float64, units Units, calendar string) error {
	if len(obsData) == 0 {
		return verrors.Internal("obs time coordinate is empty")
	}
	if len(modelData) == 0 {
		return verrors.Internal("model time coordinate is empty")
	}

	obsMin := Time{Value: obsData[0], Units: units, Calendar: calendar}
	obsMax := Time{Value: obsData[len(obsData)-1], Units: units, Calendar: calendar}
	modelMin := Time{Value: modelData[0], Units: units, Calendar: calendar}
	modelMax := Time{Value: modelData[len(modelData)-1], Units: units, Calendar: calendar}

	obsMinS, err := obsMin.ComparableSeconds()
	if err != nil {
		return err
	}
	obsMaxS, err := obsMax.ComparableSeconds()
	if err != nil {
		return err
	}
	modelMinS, err := modelMin.ComparableSeconds()
	if err != nil {
		return err
	}
	modelMaxS, err := modelMax.ComparableSeconds()
	if err != nil {
		return err
	}

	if modelMinS > obsMinS || modelMaxS < obsMaxS {
		return verrors.IncompatibleInputs(
			"model time range [%.3f, %.3f] does not enclose obs time range [%.3f, %.3f] (%s)",
			modelMinS, modelMaxS, obsMinS, obsMaxS, units.String())
	}
	return nil
}
