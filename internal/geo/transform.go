package geo

import (
	"fmt"
	"math"

	"github.com/OCAP2/terrain/pkg/core"
)

// Transformer converts between geographic, planar and grid coordinates for
// one dataset. Grid rows count down from the top edge while planar y counts
// up from the bottom-left origin.
type Transformer struct {
	proj       Projection
	origin     core.PlanarCoord
	resolution float64
	height     int
}

// NewTransformer creates a transformer for a grid of the given height whose
// bottom-left corner sits at origin.
func NewTransformer(proj Projection, origin core.PlanarCoord, resolution float64, height int) (*Transformer, error) {
	if proj == nil {
		return nil, fmt.Errorf("nil projection: %w", core.ErrInvalidArgument)
	}
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return nil, fmt.Errorf("resolution must be positive, got %g: %w", resolution, core.ErrInvalidArgument)
	}
	if height < 0 {
		return nil, fmt.Errorf("negative grid height %d: %w", height, core.ErrInvalidArgument)
	}
	return &Transformer{
		proj:       proj,
		origin:     origin,
		resolution: resolution,
		height:     height,
	}, nil
}

// Projection returns the underlying projection.
func (t *Transformer) Projection() Projection {
	return t.proj
}

// Resolution returns the cell edge length in planar units.
func (t *Transformer) Resolution() float64 {
	return t.resolution
}

// GeoToPlanar projects a geographic coordinate.
func (t *Transformer) GeoToPlanar(geo core.GeoCoord) (core.PlanarCoord, error) {
	return t.proj.Forward(geo)
}

// PlanarToGeo unprojects a planar coordinate.
func (t *Transformer) PlanarToGeo(planar core.PlanarCoord) (core.GeoCoord, error) {
	return t.proj.Inverse(planar)
}

// PlanarToGrid returns the cell containing planar. The result may lie
// outside the grid.
func (t *Transformer) PlanarToGrid(planar core.PlanarCoord) core.Cell {
	col := int(math.Floor((planar.X - t.origin.X) / t.resolution))
	row := (t.height - int(math.Floor((planar.Y-t.origin.Y)/t.resolution))) - 1
	return core.Cell{Col: col, Row: row}
}

// GridToPlanar returns the anchor of cell: its top-left corner in planar
// space, not its centroid. The anchor lies on the boundary shared with the
// row above, so PlanarToGrid(GridToPlanar(c)) is not guaranteed to be c.
func (t *Transformer) GridToPlanar(cell core.Cell) core.PlanarCoord {
	return core.PlanarCoord{
		X: t.origin.X + float64(cell.Col)*t.resolution,
		Y: t.origin.Y + float64(t.height-cell.Row)*t.resolution,
	}
}

// GeoToGrid maps a geographic coordinate to its cell.
func (t *Transformer) GeoToGrid(geo core.GeoCoord) (core.Cell, error) {
	planar, err := t.GeoToPlanar(geo)
	if err != nil {
		return core.Cell{}, err
	}
	return t.PlanarToGrid(planar), nil
}

// GridToGeo maps a cell anchor to a geographic coordinate.
func (t *Transformer) GridToGeo(cell core.Cell) (core.GeoCoord, error) {
	return t.PlanarToGeo(t.GridToPlanar(cell))
}
