package geo

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/terrain/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ParsePolyline parses a JSON array of coordinates into a core.Path.
// Input format: "[[lon1,lat1],[lon2,lat2],...]"
func ParsePolyline(input string) (core.Path, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse polyline JSON: %w", err)
	}

	path := make(core.Path, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		if !finite(coord[0]) || !finite(coord[1]) {
			return nil, fmt.Errorf("coordinate %d: %w", i, ErrInvalidCoordinates)
		}
		path[i] = core.GeoCoord{Lon: coord[0], Lat: coord[1]}
	}

	return path, nil
}

// PathToLineString converts a path into a geom.LineString.
func PathToLineString(path core.Path) geom.LineString {
	flatCoords := make([]float64, 0, len(path)*2)
	for _, p := range path {
		flatCoords = append(flatCoords, p.Lon, p.Lat)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq)
}

// CoordsToMultiPoint converts a list of positions into a geom.MultiPoint.
func CoordsToMultiPoint(coords []core.GeoCoord) geom.MultiPoint {
	points := make([]geom.Point, len(coords))
	for i, c := range coords {
		points[i] = geom.NewPoint(geom.Coordinates{
			XY:   geom.XY{X: c.Lon, Y: c.Lat},
			Type: geom.DimXY,
		})
	}
	return geom.NewMultiPoint(points)
}
