// pkg/core/types.go
package core

// GeoCoord is a geographic position in degrees. Order is always (lon, lat).
type GeoCoord struct {
	Lon float64
	Lat float64
}

// PlanarCoord is a position in the dataset's projected reference system,
// in the same units as the grid resolution.
type PlanarCoord struct {
	X float64
	Y float64
}

// Cell addresses one raster cell. Row 0 is the top row of the dataset.
type Cell struct {
	Col int
	Row int
}

// Path is an ordered sequence of geographic positions.
type Path []GeoCoord

// ViewshedResult holds the cells visible from one observer.
// Cells may contain duplicates where rays overlap.
type ViewshedResult struct {
	Observer       Cell
	Radius         float64
	ObserverHeight float64
	TargetHeight   float64
	Cells          []Cell
}

// Unique returns the visible cells with duplicates removed, keeping the
// order of first occurrence.
func (r ViewshedResult) Unique() []Cell {
	seen := make(map[Cell]struct{}, len(r.Cells))
	out := make([]Cell, 0, len(r.Cells))
	for _, c := range r.Cells {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Contains reports whether c was found visible.
func (r ViewshedResult) Contains(c Cell) bool {
	for _, v := range r.Cells {
		if v == c {
			return true
		}
	}
	return false
}
