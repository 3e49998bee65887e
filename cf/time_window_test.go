package cf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metoffice/visiontoolkit/verrors"
)

func TestValidateTimeWindowPassesWhenModelEnclosesObs(t *testing.T) {
	units, err := ParseUnits("hours since 2000-01-01")
	require.NoError(t, err)
	err = ValidateTimeWindow(
		[]float64{1, 2, 3},
		[]float64{0, 1, 2, 3, 4},
		units, CalendarStandard,
	)
	assert.NoError(t, err)
}

func TestValidateTimeWindowFailsWhenObsExtendsPastModel(t *testing.T) {
	units, err := ParseUnits("hours since 2000-01-01")
	require.NoError(t, err)
	err = ValidateTimeWindow(
		[]float64{1, 2, 10},
		[]float64{0, 1, 2, 3},
		units, CalendarStandard,
	)
	require.Error(t, err)
	assert.True(t, verrors.Is(err, verrors.KindIncompatibleInputs))
}

func TestValidateTimeWindowRejectsEmptyCoordinates(t *testing.T) {
	units, _ := ParseUnits("hours since 2000-01-01")
	err := ValidateTimeWindow(nil, []float64{0, 1}, units, CalendarStandard)
	require.Error(t, err)

	err = ValidateTimeWindow([]float64{0, 1}, nil, units, CalendarStandard)
	require.Error(t, err)
}
