package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/OCAP2/terrain/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordFromString_Valid(t *testing.T) {
	c, err := CoordFromString("-7.4936,56.9809")

	require.NoError(t, err)
	assert.Equal(t, -7.4936, c.Lon)
	assert.Equal(t, 56.9809, c.Lat)
}

func TestCoordFromString_WithElevationAndSpaces(t *testing.T) {
	c, err := CoordFromString(" 100.5 , 20.25 ,50.0")

	require.NoError(t, err)
	assert.Equal(t, 100.5, c.Lon)
	assert.Equal(t, 20.25, c.Lat)
}

func TestCoordFromString_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"one component", "100.5"},
		{"bad longitude", "abc,20"},
		{"bad latitude", "20,xyz"},
		{"nan", "NaN,1"},
		{"inf", "1,+Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CoordFromString(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCoordinates))
		})
	}
}

func TestIdentityProjection_RoundTrip(t *testing.T) {
	p := IdentityProjection{}
	planar, err := p.Forward(core.GeoCoord{Lon: 12.5, Lat: -3.25})
	require.NoError(t, err)
	assert.Equal(t, core.PlanarCoord{X: 12.5, Y: -3.25}, planar)

	geo, err := p.Inverse(planar)
	require.NoError(t, err)
	assert.Equal(t, core.GeoCoord{Lon: 12.5, Lat: -3.25}, geo)
	assert.Equal(t, WGS84, p.EPSG())
}

func TestIdentityProjection_NonFinite(t *testing.T) {
	_, err := IdentityProjection{}.Forward(core.GeoCoord{Lon: math.NaN(), Lat: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrProjection)

	var pe *core.ProjectionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "forward", pe.Op)
}

func TestEPSGProjection_WebMercator(t *testing.T) {
	p, err := NewEPSGProjection(3857)
	require.NoError(t, err)
	assert.Equal(t, 3857, p.EPSG())

	planar, err := p.Forward(core.GeoCoord{Lon: 1, Lat: 0})
	require.NoError(t, err)
	assert.InDelta(t, 111319.49, planar.X, 0.1)
	assert.InDelta(t, 0, planar.Y, 1e-6)
}

func TestEPSGProjection_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		code int
		geo  core.GeoCoord
	}{
		{"web mercator", 3857, core.GeoCoord{Lon: -7.4936, Lat: 56.9809}},
		{"utm 32n", 25832, core.GeoCoord{Lon: 9, Lat: 52}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ProjectionFor(tt.code)
			require.NoError(t, err)

			planar, err := p.Forward(tt.geo)
			require.NoError(t, err)
			back, err := p.Inverse(planar)
			require.NoError(t, err)

			// (lon, lat) order must survive the round trip
			assert.InDelta(t, tt.geo.Lon, back.Lon, 1e-6)
			assert.InDelta(t, tt.geo.Lat, back.Lat, 1e-6)
		})
	}
}

func TestEPSGProjection_NonFiniteInput(t *testing.T) {
	p, err := NewEPSGProjection(3857)
	require.NoError(t, err)

	_, err = p.Forward(core.GeoCoord{Lon: math.Inf(1), Lat: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrProjection)
}

func TestProjectionFor_WGS84IsIdentity(t *testing.T) {
	p, err := ProjectionFor(WGS84)
	require.NoError(t, err)
	assert.IsType(t, IdentityProjection{}, p)
}
