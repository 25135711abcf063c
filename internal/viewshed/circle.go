package viewshed

// endpoint is a ray target relative to the observer, in grid steps with +y
// pointing north.
type endpoint struct {
	dx, dy int
}

// circleEndpoints traces a midpoint circle of radius r from (r, 0) to the
// 45° diagonal and returns the eight mirrored endpoints of every step.
func circleEndpoints(r int) []endpoint {
	if r <= 0 {
		return nil
	}
	out := make([]endpoint, 0, 8*(r+1))
	x, y := r, 0
	err := 1 - r
	for x >= y {
		out = append(out,
			endpoint{x, y},
			endpoint{y, x},
			endpoint{-y, x},
			endpoint{-x, y},
			endpoint{-x, -y},
			endpoint{-y, -x},
			endpoint{y, -x},
			endpoint{x, -y},
		)
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
	return out
}
