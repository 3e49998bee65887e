package cf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnitsBasic(t *testing.T) {
	u, err := ParseUnits("hours since 1970-01-01 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, "hours", u.UnitName)
	assert.Equal(t, 1970, u.Epoch.Year)
	assert.Equal(t, 1, u.Epoch.Month)
	assert.Equal(t, 1, u.Epoch.Day)
}

func TestParseUnitsWithTSeparatorAndZ(t *testing.T) {
	u, err := ParseUnits("seconds since 2020-03-04T12:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2020, u.Epoch.Year)
	assert.Equal(t, 12, u.Epoch.Hour)
	assert.Equal(t, 30, u.Epoch.Minute)
}

func TestParseUnitsRejectsMissingSince(t *testing.T) {
	_, err := ParseUnits("hours from 1970-01-01")
	require.Error(t, err)
}

func TestComparableSecondsMonotoneWithValue(t *testing.T) {
	units, err := ParseUnits("hours since 2000-01-01 00:00:00")
	require.NoError(t, err)
	t0 := Time{Value: 0, Units: units, Calendar: CalendarStandard}
	t1 := Time{Value: 1, Units: units, Calendar: CalendarStandard}
	s0, err := t0.ComparableSeconds()
	require.NoError(t, err)
	s1, err := t1.ComparableSeconds()
	require.NoError(t, err)
	assert.InDelta(t, 3600.0, s1-s0, 1e-9)
}

func TestConvertToRoundTrips(t *testing.T) {
	hours, err := ParseUnits("hours since 2000-01-01 00:00:00")
	require.NoError(t, err)
	minutes, err := ParseUnits("minutes since 2000-01-01 00:00:00")
	require.NoError(t, err)

	tm := Time{Value: 2, Units: hours, Calendar: CalendarStandard}
	v, err := tm.ConvertTo(minutes)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, v, 1e-9)

	back := Time{Value: v, Units: minutes, Calendar: CalendarStandard}
	v2, err := back.ConvertTo(hours)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v2, 1e-9)
}

func TestDateTimeBeforeOrdersByCivilDay(t *testing.T) {
	a := DateTime{Year: 2020, Month: 1, Day: 1}
	b := DateTime{Year: 2020, Month: 1, Day: 2}
	assert.True(t, a.Before(b, CalendarStandard))
	assert.False(t, b.Before(a, CalendarStandard))
}

func TestDateTimeBefore360DayCalendar(t *testing.T) {
	a := DateTime{Year: 2020, Month: 2, Day: 30}
	b := DateTime{Year: 2020, Month: 3, Day: 1}
	assert.True(t, a.Before(b, Calendar360Day))
}

func TestSecondsPerUnitRejectsUnknownUnit(t *testing.T) {
	_, err := ParseUnits("fortnights since 2000-01-01")
	require.NoError(t, err) // parses fine, only fails on use
	u, _ := ParseUnits("fortnights since 2000-01-01")
	_, err = u.secondsPerUnit()
	require.Error(t, err)
}
