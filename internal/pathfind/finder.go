package pathfind

import (
	"fmt"

	"github.com/OCAP2/terrain/internal/geo"
	"github.com/OCAP2/terrain/pkg/core"
)

// Finder answers path queries in geographic coordinates over a Graph.
type Finder struct {
	graph *Graph
	tr    *geo.Transformer
}

// NewFinder creates a Finder. graph and tr must describe the same grid.
func NewFinder(graph *Graph, tr *geo.Transformer) *Finder {
	return &Finder{graph: graph, tr: tr}
}

// Graph returns the graph searched by the finder.
func (f *Finder) Graph() *Graph {
	return f.graph
}

// FindCells returns the grid cells of the cheapest path between the cells
// containing start and end.
func (f *Finder) FindCells(start, end core.GeoCoord) ([]core.Cell, error) {
	from, err := f.tr.GeoToGrid(start)
	if err != nil {
		return nil, err
	}
	to, err := f.tr.GeoToGrid(end)
	if err != nil {
		return nil, err
	}
	cells, _, err := f.graph.Search(from, to)
	return cells, err
}

// FindPath returns the path from start to end. The exact inputs are the
// first and last positions; every cell in between is snapped to its anchor.
func (f *Finder) FindPath(start, end core.GeoCoord) (core.Path, error) {
	cells, err := f.FindCells(start, end)
	if err != nil {
		return nil, err
	}

	path := make(core.Path, 0, len(cells)+2)
	path = append(path, start)
	for _, c := range cells {
		p, err := f.tr.GridToGeo(c)
		if err != nil {
			return nil, fmt.Errorf("mapping cell (%d,%d): %w", c.Col, c.Row, err)
		}
		path = append(path, p)
	}
	path = append(path, end)
	return path, nil
}

// FindRoute concatenates independent legs between consecutive waypoints.
// Each leg is kept whole, so a waypoint shared by two legs ends one leg and
// starts the next. Any failing leg fails the whole route. Fewer than two
// waypoints yield an empty path.
func (f *Finder) FindRoute(waypoints []core.GeoCoord) (core.Path, error) {
	if len(waypoints) < 2 {
		return core.Path{}, nil
	}

	var route core.Path
	for i := 0; i < len(waypoints)-1; i++ {
		leg, err := f.FindPath(waypoints[i], waypoints[i+1])
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i, err)
		}
		route = append(route, leg...)
	}
	return route, nil
}
