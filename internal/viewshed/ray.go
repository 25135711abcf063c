package viewshed

import (
	"math"

	"github.com/OCAP2/terrain/pkg/core"
)

type rayParams struct {
	radius         float64
	observerHeight float64
	targetHeight   float64
}

// castRay walks an integer Bresenham line from the observer towards the
// offset (dx, dy) and appends every visible in-extent cell to out. Each call
// keeps its own running slope, occlusion never leaks between rays.
func (e *Engine) castRay(observer core.Cell, dx, dy int, p rayParams, out []core.Cell) []core.Cell {
	sx, sy := sign(dx), sign(dy)
	adx, ady := dx*sx, dy*sy

	// major axis steps every sample, minor axis when the numerator overflows
	majX, majY, minX, minY := sx, 0, 0, sy
	den, numadd := adx, ady
	if ady > adx {
		majX, majY, minX, minY = 0, sy, sx, 0
		den, numadd = ady, adx
	}

	// doubled so that the half-step start value stays an integer
	num, numadd, den2 := den, 2*numadd, 2*den

	var (
		cx, cy   int
		initial  float64
		maxSlope float64
	)
	for i := 0; i <= den; i++ {
		dist := e.resolution * math.Sqrt(float64(cx*cx+cy*cy))
		if dist > p.radius {
			break
		}

		c := core.Cell{Col: observer.Col + cx, Row: observer.Row - cy}
		h := e.grid.ElevationOrZero(c)
		visible := false

		switch i {
		case 0:
			initial = h + p.observerHeight
			visible = true
		case 1:
			maxSlope = (h - initial) / dist
			visible = true
		default:
			target := (h - initial + p.targetHeight) / dist
			base := (h - initial) / dist
			visible = target >= maxSlope
			maxSlope = math.Max(maxSlope, base)
		}

		if visible && e.grid.InBounds(c) {
			out = append(out, c)
		}

		num += numadd
		if num >= den2 {
			num -= den2
			cx += minX
			cy += minY
		}
		cx += majX
		cy += majY
	}
	return out
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
