// Package viewshed computes the terrain cells visible from an observer by
// casting Bresenham rays to the points of a midpoint circle.
package viewshed

import (
	"fmt"
	"math"

	"github.com/OCAP2/terrain/internal/geo"
	"github.com/OCAP2/terrain/internal/grid"
	"github.com/OCAP2/terrain/pkg/core"
)

// Engine evaluates visibility over one immutable grid. It holds no per-call
// state and may be shared between goroutines.
type Engine struct {
	grid       *grid.Grid
	tr         *geo.Transformer
	resolution float64
}

// NewEngine creates an Engine. g and tr must describe the same grid.
func NewEngine(g *grid.Grid, tr *geo.Transformer) *Engine {
	return &Engine{grid: g, tr: tr, resolution: g.Resolution()}
}

// Compute returns the cells visible from observer within radius planar
// units. observerHeight is added to the ground under the observer and
// targetHeight to the ground of every candidate cell. Cells reached by more
// than one ray are reported once per ray.
func (e *Engine) Compute(observer core.GeoCoord, radius, observerHeight, targetHeight float64) (core.ViewshedResult, error) {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return core.ViewshedResult{}, fmt.Errorf("radius %g: %w", radius, core.ErrInvalidArgument)
	}
	if err := checkHeights(observerHeight, targetHeight); err != nil {
		return core.ViewshedResult{}, err
	}

	origin, err := e.observerCell(observer)
	if err != nil {
		return core.ViewshedResult{}, err
	}

	res := core.ViewshedResult{
		Observer:       origin,
		Radius:         radius,
		ObserverHeight: observerHeight,
		TargetHeight:   targetHeight,
	}

	r := int(math.Floor(radius / e.resolution))
	if r == 0 {
		res.Cells = []core.Cell{origin}
		return res, nil
	}

	p := rayParams{radius: radius, observerHeight: observerHeight, targetHeight: targetHeight}
	for _, ep := range circleEndpoints(r) {
		res.Cells = e.castRay(origin, ep.dx, ep.dy, p, res.Cells)
	}
	return res, nil
}

// Visible reports whether target can be seen from observer along a single
// ray. Both points must lie inside the dataset.
func (e *Engine) Visible(observer, target core.GeoCoord, observerHeight, targetHeight float64) (bool, error) {
	if err := checkHeights(observerHeight, targetHeight); err != nil {
		return false, err
	}
	from, err := e.observerCell(observer)
	if err != nil {
		return false, err
	}
	to, err := e.tr.GeoToGrid(target)
	if err != nil {
		return false, err
	}
	if !e.grid.InBounds(to) {
		return false, &core.OutOfBoundsError{Cell: to, Reason: "target outside dataset"}
	}
	if to == from {
		return true, nil
	}

	// rows grow southwards, the ray works with +y north
	dx, dy := to.Col-from.Col, from.Row-to.Row
	p := rayParams{radius: math.Inf(1), observerHeight: observerHeight, targetHeight: targetHeight}
	cells := e.castRay(from, dx, dy, p, nil)
	return len(cells) > 0 && cells[len(cells)-1] == to, nil
}

func (e *Engine) observerCell(observer core.GeoCoord) (core.Cell, error) {
	c, err := e.tr.GeoToGrid(observer)
	if err != nil {
		return core.Cell{}, err
	}
	if !e.grid.InBounds(c) {
		return core.Cell{}, &core.OutOfBoundsError{Cell: c, Reason: "observer outside dataset"}
	}
	if !e.grid.Defined(c) {
		return core.Cell{}, &core.OutOfBoundsError{Cell: c, Reason: "observer has no elevation"}
	}
	return c, nil
}

func checkHeights(observerHeight, targetHeight float64) error {
	for _, h := range []float64{observerHeight, targetHeight} {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return fmt.Errorf("height %g: %w", h, core.ErrInvalidArgument)
		}
	}
	return nil
}
