package geo

import (
	"encoding/json"
	"testing"

	"github.com/OCAP2/terrain/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolyline_Valid(t *testing.T) {
	input := "[[100.5,20.25],[30.75,40.5],[50,60]]"
	path, err := ParsePolyline(input)

	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, 100.5, path[0].Lon)
	assert.Equal(t, 20.25, path[0].Lat)
	assert.Equal(t, 50.0, path[2].Lon)
	assert.Equal(t, 60.0, path[2].Lat)
}

func TestParsePolyline_SinglePoint(t *testing.T) {
	path, err := ParsePolyline("[[1,2]]")
	require.NoError(t, err)
	assert.Equal(t, core.Path{{Lon: 1, Lat: 2}}, path)
}

func TestParsePolyline_InvalidJSON(t *testing.T) {
	_, err := ParsePolyline("not valid json")
	require.Error(t, err)
}

func TestParsePolyline_InsufficientCoordinates(t *testing.T) {
	_, err := ParsePolyline("[[100],[200,300]]")
	require.Error(t, err)
}

func TestPathToLineString(t *testing.T) {
	ls := PathToLineString(core.Path{{Lon: 1, Lat: 2}, {Lon: 3, Lat: 4}})

	seq := ls.Coordinates()
	require.Equal(t, 2, seq.Length())
	assert.Equal(t, 1.0, seq.GetXY(0).X)
	assert.Equal(t, 4.0, seq.GetXY(1).Y)

	out, err := json.Marshal(ls.AsGeometry())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"LineString"`)
}

func TestCoordsToMultiPoint(t *testing.T) {
	mp := CoordsToMultiPoint([]core.GeoCoord{{Lon: 1, Lat: 2}, {Lon: 3, Lat: 4}, {Lon: 5, Lat: 6}})
	assert.Equal(t, 3, mp.NumPoints())

	pt := mp.PointN(2)
	xy, ok := pt.XY()
	require.True(t, ok)
	assert.Equal(t, 5.0, xy.X)
	assert.Equal(t, 6.0, xy.Y)
}
