// Package pathfind builds the walkable cell graph of a grid and searches it
// with A*.
package pathfind

import (
	"math"

	"github.com/OCAP2/terrain/internal/grid"
	"github.com/OCAP2/terrain/internal/queue"
	"github.com/OCAP2/terrain/pkg/core"
)

// neighbour offsets, bit k of a cell mask refers to offsets[k]
var offsets = [8]core.Cell{
	{Col: 0, Row: -1},
	{Col: 1, Row: -1},
	{Col: 1, Row: 0},
	{Col: 1, Row: 1},
	{Col: 0, Row: 1},
	{Col: -1, Row: 1},
	{Col: -1, Row: 0},
	{Col: -1, Row: -1},
}

// edge weights in grid units, indexed like offsets
var weights = [8]float64{1, math.Sqrt2, 1, math.Sqrt2, 1, math.Sqrt2, 1, math.Sqrt2}

const (
	notNode    int32 = -1
	unlabelled int32 = -2
)

// Graph is the 8-connected adjacency of the traversable cells of a grid.
// It is built once and never modified.
type Graph struct {
	width  int
	height int
	// mask[i] has bit k set when cell i has an edge towards offsets[k]
	mask []uint8
	// component[i] is notNode for cells absent from the graph
	component  []int32
	components int
	nodes      int
}

// BuildGraph enumerates the traversable cells of g and links every pair of
// traversable 8-neighbours. Connected components are labelled at the same
// time so that disconnected endpoints can be rejected without a search.
func BuildGraph(g *grid.Grid) *Graph {
	w, h := g.Width(), g.Height()
	gr := &Graph{
		width:     w,
		height:    h,
		mask:      make([]uint8, w*h),
		component: make([]int32, w*h),
	}

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			i := row*w + col
			if !g.Traversable(core.Cell{Col: col, Row: row}) {
				gr.component[i] = notNode
				continue
			}
			gr.nodes++
			gr.component[i] = unlabelled
			var m uint8
			for k, off := range offsets {
				if g.Traversable(core.Cell{Col: col + off.Col, Row: row + off.Row}) {
					m |= 1 << k
				}
			}
			gr.mask[i] = m
		}
	}

	gr.labelComponents()
	return gr
}

func (gr *Graph) labelComponents() {
	q := queue.New[int](0)
	for start, comp := range gr.component {
		if comp != unlabelled {
			continue
		}
		label := int32(gr.components)
		gr.components++
		gr.component[start] = label
		q.Push(start)
		for {
			i, ok := q.Pop()
			if !ok {
				break
			}
			for k := range offsets {
				if gr.mask[i]&(1<<k) == 0 {
					continue
				}
				j := gr.step(i, k)
				if gr.component[j] == unlabelled {
					gr.component[j] = label
					q.Push(j)
				}
			}
		}
	}
}

// step returns the index of the neighbour of i in direction k. The caller
// must have checked the mask bit.
func (gr *Graph) step(i, k int) int {
	return i + offsets[k].Row*gr.width + offsets[k].Col
}

func (gr *Graph) index(c core.Cell) (int, bool) {
	if c.Col < 0 || c.Col >= gr.width || c.Row < 0 || c.Row >= gr.height {
		return 0, false
	}
	return c.Row*gr.width + c.Col, true
}

func (gr *Graph) cell(i int) core.Cell {
	return core.Cell{Col: i % gr.width, Row: i / gr.width}
}

// Contains reports whether c is a node of the graph.
func (gr *Graph) Contains(c core.Cell) bool {
	i, ok := gr.index(c)
	return ok && gr.component[i] != notNode
}

// HasEdge reports whether a and b are adjacent nodes.
func (gr *Graph) HasEdge(a, b core.Cell) bool {
	i, ok := gr.index(a)
	if !ok {
		return false
	}
	for k, off := range offsets {
		if a.Col+off.Col == b.Col && a.Row+off.Row == b.Row {
			return gr.mask[i]&(1<<k) != 0
		}
	}
	return false
}

// EdgeWeight returns the weight of the edge a-b in grid units, or false
// when there is no such edge.
func (gr *Graph) EdgeWeight(a, b core.Cell) (float64, bool) {
	i, ok := gr.index(a)
	if !ok {
		return 0, false
	}
	for k, off := range offsets {
		if a.Col+off.Col == b.Col && a.Row+off.Row == b.Row && gr.mask[i]&(1<<k) != 0 {
			return weights[k], true
		}
	}
	return 0, false
}

// Neighbours calls fn for every node adjacent to c with the edge weight.
func (gr *Graph) Neighbours(c core.Cell, fn func(n core.Cell, weight float64)) {
	i, ok := gr.index(c)
	if !ok {
		return
	}
	for k := range offsets {
		if gr.mask[i]&(1<<k) != 0 {
			fn(gr.cell(gr.step(i, k)), weights[k])
		}
	}
}

// Connected reports whether a path exists between a and b.
func (gr *Graph) Connected(a, b core.Cell) bool {
	i, ok := gr.index(a)
	if !ok {
		return false
	}
	j, ok := gr.index(b)
	if !ok {
		return false
	}
	return gr.component[i] != notNode && gr.component[i] == gr.component[j]
}

// Nodes returns the number of traversable cells.
func (gr *Graph) Nodes() int { return gr.nodes }

// Components returns the number of connected components.
func (gr *Graph) Components() int { return gr.components }

// Width returns the number of columns of the underlying grid.
func (gr *Graph) Width() int { return gr.width }

// Height returns the number of rows of the underlying grid.
func (gr *Graph) Height() int { return gr.height }
