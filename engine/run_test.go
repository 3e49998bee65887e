package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/verrors"
)

func TestParseStartOverrideEmptyIsNoOverride(t *testing.T) {
	dt, err := parseStartOverride("")
	require.NoError(t, err)
	assert.Nil(t, dt)
}

func TestParseStartOverrideParsesRFC3339UTC(t *testing.T) {
	dt, err := parseStartOverride("2021-06-15T12:30:00Z")
	require.NoError(t, err)
	require.NotNil(t, dt)
	assert.Equal(t, 2021, dt.Year)
	assert.Equal(t, 6, dt.Month)
	assert.Equal(t, 15, dt.Day)
	assert.Equal(t, 12, dt.Hour)
	assert.Equal(t, 30, dt.Minute)
}

func TestParseStartOverrideRejectsGarbage(t *testing.T) {
	_, err := parseStartOverride("not-a-date")
	require.Error(t, err)
	assert.True(t, verrors.Is(err, verrors.KindConfiguration))
}

func TestTimeKeyFindsDimCoordKeyByPointer(t *testing.T) {
	f := cf.NewField()
	tc := &cf.Construct{Identity: "time"}
	f.DimCoords["valtime"] = tc
	assert.Equal(t, "valtime", timeKey(f, tc))
}

func TestTimeKeyFallsBackToIdentityWhenNotADimCoord(t *testing.T) {
	f := cf.NewField()
	tc := &cf.Construct{Identity: "time"}
	assert.Equal(t, "time", timeKey(f, tc))
}

func TestAxisKeyForIdentityMatchesByIdentity(t *testing.T) {
	f := cf.NewField()
	f.DimCoords["lon"] = &cf.Construct{Identity: "longitude"}
	key, err := axisKeyForIdentity(f, []string{"longitude"}, "")
	require.NoError(t, err)
	assert.Equal(t, "lon", key)
}

func TestAxisKeyForIdentityHonoursOverride(t *testing.T) {
	f := cf.NewField()
	f.DimCoords["rlon"] = &cf.Construct{Identity: "grid_longitude"}
	key, err := axisKeyForIdentity(f, []string{"longitude"}, "rlon")
	require.NoError(t, err)
	assert.Equal(t, "rlon", key)
}

func TestAxisKeyForIdentityRejectsOverrideNotInDimCoords(t *testing.T) {
	f := cf.NewField()
	_, err := axisKeyForIdentity(f, []string{"longitude"}, "nope")
	require.Error(t, err)
	assert.True(t, verrors.Is(err, verrors.KindConfiguration))
}

func TestAxisKeyForIdentityErrorsWhenUnmatched(t *testing.T) {
	f := cf.NewField()
	_, err := axisKeyForIdentity(f, []string{"longitude"}, "")
	require.Error(t, err)
	assert.True(t, verrors.Is(err, verrors.KindCFCompliance))
}

func TestResolveVerticalKeyPrimaryDimensionCoordinate(t *testing.T) {
	f := cf.NewField()
	f.DimCoords["plev"] = &cf.Construct{Identity: "air_pressure"}
	key, ok := resolveVerticalKey(f, "air_pressure")
	assert.True(t, ok)
	assert.Equal(t, "plev", key)
}

func TestResolveVerticalKeyFallbackAuxiliaryCoordinate(t *testing.T) {
	f := cf.NewField()
	f.AuxCoords["air_pressure"] = &cf.Construct{Identity: "air_pressure"}
	key, ok := resolveVerticalKey(f, "air_pressure")
	assert.True(t, ok)
	assert.Equal(t, "air_pressure", key)
}

func TestResolveVerticalKeyAbsent(t *testing.T) {
	f := cf.NewField()
	_, ok := resolveVerticalKey(f, "air_pressure")
	assert.False(t, ok)
}
