// Package grid holds the immutable elevation raster that routing and
// visibility analysis run over.
package grid

import (
	"fmt"
	"math"

	"github.com/OCAP2/terrain/pkg/core"
)

// Grid is a W×H elevation raster. Cells are addressed (col, row) with row 0
// at the top edge. Undefined cells hold NaN. A Grid is never modified after
// New returns, so it can be shared freely between goroutines.
type Grid struct {
	width      int
	height     int
	origin     core.PlanarCoord
	resolution float64
	elevations []float64
	blocked    []bool
}

// Option configures grid construction.
type Option func(*options)

type options struct {
	blockAtOrBelow *float64
}

// BlockAtOrBelow marks cells whose elevation is at or below level as not
// traversable. Their elevation still takes part in visibility analysis.
func BlockAtOrBelow(level float64) Option {
	return func(o *options) {
		o.blockAtOrBelow = &level
	}
}

// New creates a grid from row-major elevations (len == width*height).
// The slice is copied.
func New(width, height int, origin core.PlanarCoord, resolution float64, elevations []float64, opts ...Option) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d: %w", width, height, core.ErrInvalidArgument)
	}
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return nil, fmt.Errorf("resolution must be positive, got %g: %w", resolution, core.ErrInvalidArgument)
	}
	if len(elevations) != width*height {
		return nil, fmt.Errorf("expected %d elevations, got %d: %w", width*height, len(elevations), core.ErrInvalidArgument)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	g := &Grid{
		width:      width,
		height:     height,
		origin:     origin,
		resolution: resolution,
		elevations: make([]float64, len(elevations)),
		blocked:    make([]bool, len(elevations)),
	}
	copy(g.elevations, elevations)

	for i, e := range g.elevations {
		if math.IsInf(e, 0) {
			g.elevations[i] = math.NaN()
			e = math.NaN()
		}
		if o.blockAtOrBelow != nil && e <= *o.blockAtOrBelow {
			g.blocked[i] = true
		}
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Origin returns the planar coordinate of the bottom-left corner.
func (g *Grid) Origin() core.PlanarCoord { return g.origin }

// Resolution returns the cell edge length in planar units.
func (g *Grid) Resolution() float64 { return g.resolution }

// InBounds reports whether c lies inside the raster.
func (g *Grid) InBounds(c core.Cell) bool {
	return c.Col >= 0 && c.Col < g.width && c.Row >= 0 && c.Row < g.height
}

func (g *Grid) index(c core.Cell) int {
	return c.Row*g.width + c.Col
}

// Elevation returns the elevation of c and whether it is defined.
func (g *Grid) Elevation(c core.Cell) (float64, bool) {
	if !g.InBounds(c) {
		return 0, false
	}
	e := g.elevations[g.index(c)]
	if math.IsNaN(e) {
		return 0, false
	}
	return e, true
}

// ElevationOrZero returns the elevation of c, or 0 when c is outside the
// raster or undefined.
func (g *Grid) ElevationOrZero(c core.Cell) float64 {
	e, _ := g.Elevation(c)
	return e
}

// Defined reports whether c is inside the raster with a defined elevation.
func (g *Grid) Defined(c core.Cell) bool {
	_, ok := g.Elevation(c)
	return ok
}

// Traversable reports whether c may take part in a path.
func (g *Grid) Traversable(c core.Cell) bool {
	return g.Defined(c) && !g.blocked[g.index(c)]
}

// Stats summarises the defined cells of the grid.
type Stats struct {
	Defined     int
	Traversable int
	Min         float64
	Max         float64
}

// Stats walks the raster once and returns its summary.
func (g *Grid) Stats() Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	for i, e := range g.elevations {
		if math.IsNaN(e) {
			continue
		}
		s.Defined++
		if !g.blocked[i] {
			s.Traversable++
		}
		s.Min = math.Min(s.Min, e)
		s.Max = math.Max(s.Max, e)
	}
	if s.Defined == 0 {
		s.Min, s.Max = 0, 0
	}
	return s
}

// Row returns a copy of the elevations of one row.
func (g *Grid) Row(row int) []float64 {
	if row < 0 || row >= g.height {
		return nil
	}
	out := make([]float64, g.width)
	copy(out, g.elevations[row*g.width:(row+1)*g.width])
	return out
}
