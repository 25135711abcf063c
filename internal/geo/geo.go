package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/OCAP2/terrain/pkg/core"
	"github.com/wroge/wgs84"
)

// WGS84 is the EPSG code of geographic longitude/latitude input.
const WGS84 = 4326

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Projection maps between WGS84 longitude/latitude and a planar reference
// system. Inverse(Forward(p)) must equal p within projection tolerance.
type Projection interface {
	Forward(geo core.GeoCoord) (core.PlanarCoord, error)
	Inverse(planar core.PlanarCoord) (core.GeoCoord, error)
	EPSG() int
}

type transformFunc = wgs84.Func

// EPSGProjection projects through the wgs84 EPSG repository.
type EPSGProjection struct {
	code    int
	forward transformFunc
	inverse transformFunc
}

// NewEPSGProjection builds a projection between EPSG:4326 and code.
// Codes the repository cannot transform fail with a *core.ProjectionError.
func NewEPSGProjection(code int) (*EPSGProjection, error) {
	epsg := wgs84.EPSG()
	p := &EPSGProjection{
		code:    code,
		forward: epsg.Transform(WGS84, code),
		inverse: epsg.Transform(code, WGS84),
	}

	// probe with a point that every supported CRS can express
	if _, err := p.Forward(core.GeoCoord{Lon: 0, Lat: 0}); err != nil {
		if _, err := p.Forward(core.GeoCoord{Lon: -2, Lat: 54}); err != nil {
			return nil, &core.ProjectionError{
				Op:  fmt.Sprintf("init EPSG:%d", code),
				Err: err,
			}
		}
	}
	return p, nil
}

// EPSG returns the planar reference system code.
func (p *EPSGProjection) EPSG() int {
	return p.code
}

// Forward converts longitude/latitude to planar coordinates.
func (p *EPSGProjection) Forward(geo core.GeoCoord) (core.PlanarCoord, error) {
	x, y, err := safeCall(p.forward, geo.Lon, geo.Lat)
	if err != nil {
		return core.PlanarCoord{}, &core.ProjectionError{Op: "forward", X: geo.Lon, Y: geo.Lat, Err: err}
	}
	return core.PlanarCoord{X: x, Y: y}, nil
}

// Inverse converts planar coordinates back to longitude/latitude.
func (p *EPSGProjection) Inverse(planar core.PlanarCoord) (core.GeoCoord, error) {
	lon, lat, err := safeCall(p.inverse, planar.X, planar.Y)
	if err != nil {
		return core.GeoCoord{}, &core.ProjectionError{Op: "inverse", X: planar.X, Y: planar.Y, Err: err}
	}
	return core.GeoCoord{Lon: lon, Lat: lat}, nil
}

// safeCall runs f and reports non-finite output or a panic inside the
// transform as an error.
func safeCall(f transformFunc, a, b float64) (x, y float64, err error) {
	if f == nil {
		return 0, 0, errors.New("transform unavailable")
	}
	if !finite(a) || !finite(b) {
		return 0, 0, errors.New("non-finite input")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()
	x, y, _ = f(a, b, 0)
	if !finite(x) || !finite(y) {
		return 0, 0, errors.New("coordinate outside projection domain")
	}
	return x, y, nil
}

// IdentityProjection is a no-op projection for data already stored in
// longitude/latitude.
type IdentityProjection struct{}

func (IdentityProjection) EPSG() int { return WGS84 }

func (IdentityProjection) Forward(geo core.GeoCoord) (core.PlanarCoord, error) {
	if !finite(geo.Lon) || !finite(geo.Lat) {
		return core.PlanarCoord{}, &core.ProjectionError{Op: "forward", X: geo.Lon, Y: geo.Lat, Err: errors.New("non-finite input")}
	}
	return core.PlanarCoord{X: geo.Lon, Y: geo.Lat}, nil
}

func (IdentityProjection) Inverse(planar core.PlanarCoord) (core.GeoCoord, error) {
	if !finite(planar.X) || !finite(planar.Y) {
		return core.GeoCoord{}, &core.ProjectionError{Op: "inverse", X: planar.X, Y: planar.Y, Err: errors.New("non-finite input")}
	}
	return core.GeoCoord{Lon: planar.X, Lat: planar.Y}, nil
}

// ProjectionFor returns the projection for an EPSG code.
func ProjectionFor(code int) (Projection, error) {
	if code == WGS84 {
		return IdentityProjection{}, nil
	}
	return NewEPSGProjection(code)
}

// CoordFromString parses a "long,lat" string into a core.GeoCoord.
// A trailing elevation component is accepted and ignored.
func CoordFromString(coords string) (core.GeoCoord, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 {
		return core.GeoCoord{}, ErrInvalidCoordinates
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.GeoCoord{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.GeoCoord{}, ErrInvalidCoordinates
	}
	if !finite(long) || !finite(lat) {
		return core.GeoCoord{}, ErrInvalidCoordinates
	}
	return core.GeoCoord{Lon: long, Lat: lat}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
