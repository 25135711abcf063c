package pathfind

import (
	"math"
	"strings"
	"testing"

	"github.com/OCAP2/terrain/internal/grid"
	"github.com/OCAP2/terrain/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridFromMap builds a unit-resolution grid at the planar origin: '#' is
// undefined, '~' is sea (elevation 0, blocked), anything else elevation 1.
func gridFromMap(t *testing.T, rows ...string) *grid.Grid {
	t.Helper()
	h := len(rows)
	w := len(rows[0])
	elev := make([]float64, 0, w*h)
	for _, r := range rows {
		require.Len(t, r, w)
		for _, ch := range r {
			switch ch {
			case '#':
				elev = append(elev, math.NaN())
			case '~':
				elev = append(elev, 0)
			default:
				elev = append(elev, 1)
			}
		}
	}
	g, err := grid.New(w, h, core.PlanarCoord{}, 1, elev, grid.BlockAtOrBelow(0))
	require.NoError(t, err)
	return g
}

func TestBuildGraph_NodesAndEdges(t *testing.T) {
	g := gridFromMap(t,
		"..#",
		".~.",
		"...",
	)
	gr := BuildGraph(g)

	assert.Equal(t, 7, gr.Nodes())
	assert.Equal(t, 3, gr.Width())
	assert.Equal(t, 3, gr.Height())

	assert.True(t, gr.Contains(core.Cell{Col: 0, Row: 0}))
	assert.False(t, gr.Contains(core.Cell{Col: 2, Row: 0}), "undefined cell")
	assert.False(t, gr.Contains(core.Cell{Col: 1, Row: 1}), "blocked cell")
	assert.False(t, gr.Contains(core.Cell{Col: -1, Row: 0}), "outside")

	assert.True(t, gr.HasEdge(core.Cell{Col: 0, Row: 0}, core.Cell{Col: 1, Row: 0}))
	assert.False(t, gr.HasEdge(core.Cell{Col: 0, Row: 0}, core.Cell{Col: 1, Row: 1}), "edge into blocked cell")
	assert.False(t, gr.HasEdge(core.Cell{Col: 0, Row: 0}, core.Cell{Col: 2, Row: 0}), "not neighbours")

	// corner cutting: both ends traversable is enough
	assert.True(t, gr.HasEdge(core.Cell{Col: 1, Row: 0}, core.Cell{Col: 2, Row: 1}))

	w, ok := gr.EdgeWeight(core.Cell{Col: 0, Row: 2}, core.Cell{Col: 1, Row: 2})
	require.True(t, ok)
	assert.Equal(t, 1.0, w)
	w, ok = gr.EdgeWeight(core.Cell{Col: 1, Row: 0}, core.Cell{Col: 2, Row: 1})
	require.True(t, ok)
	assert.Equal(t, math.Sqrt2, w)
	_, ok = gr.EdgeWeight(core.Cell{Col: 0, Row: 0}, core.Cell{Col: 1, Row: 1})
	assert.False(t, ok)
}

func TestBuildGraph_EdgesAreSymmetric(t *testing.T) {
	g := gridFromMap(t,
		".#..~.",
		"..#...",
		"~...#.",
		"..#..#",
	)
	gr := BuildGraph(g)

	for row := 0; row < g.Height(); row++ {
		for col := 0; col < g.Width(); col++ {
			c := core.Cell{Col: col, Row: row}
			gr.Neighbours(c, func(n core.Cell, w float64) {
				assert.True(t, g.Traversable(n))
				assert.True(t, gr.HasEdge(n, c), "edge %v-%v must be symmetric", c, n)
				back, ok := gr.EdgeWeight(n, c)
				assert.True(t, ok)
				assert.Equal(t, w, back)
			})
		}
	}
}

func TestBuildGraph_Components(t *testing.T) {
	g := gridFromMap(t,
		"..#..",
		"..#..",
		"#####",
		"....#",
	)
	gr := BuildGraph(g)

	assert.Equal(t, 3, gr.Components())
	assert.True(t, gr.Connected(core.Cell{Col: 0, Row: 0}, core.Cell{Col: 1, Row: 1}))
	assert.False(t, gr.Connected(core.Cell{Col: 0, Row: 0}, core.Cell{Col: 3, Row: 0}))
	assert.False(t, gr.Connected(core.Cell{Col: 0, Row: 0}, core.Cell{Col: 0, Row: 3}))
	assert.False(t, gr.Connected(core.Cell{Col: 2, Row: 0}, core.Cell{Col: 2, Row: 0}), "non-node")
}

func TestBuildGraph_DiagonalOnlyLinkIsConnected(t *testing.T) {
	g := gridFromMap(t,
		".#",
		"#.",
	)
	gr := BuildGraph(g)

	assert.Equal(t, 1, gr.Components())
	assert.True(t, gr.Connected(core.Cell{Col: 0, Row: 0}, core.Cell{Col: 1, Row: 1}))
}

func TestBuildGraph_IsolatedCellIsNode(t *testing.T) {
	g := gridFromMap(t, strings.Repeat("#", 3), "#.#", strings.Repeat("#", 3))
	gr := BuildGraph(g)

	assert.Equal(t, 1, gr.Nodes())
	assert.Equal(t, 1, gr.Components())
	assert.True(t, gr.Contains(core.Cell{Col: 1, Row: 1}))
}
