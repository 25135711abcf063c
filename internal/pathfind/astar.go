package pathfind

import (
	"container/heap"
	"math"

	"github.com/OCAP2/terrain/pkg/core"
)

type openItem struct {
	index int
	f     float64
	seq   uint64
}

// openSet is a min-heap on f; equal f values pop in push order.
type openSet []openItem

func (s openSet) Len() int { return len(s) }

func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}

func (s openSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s *openSet) Push(x any) { *s = append(*s, x.(openItem)) }

func (s *openSet) Pop() any {
	old := *s
	n := len(old)
	item := old[n-1]
	*s = old[:n-1]
	return item
}

type searchNode struct {
	g      float64
	parent int
	closed bool
}

// heuristic is the straight-line distance in grid units. It never
// overestimates the 1/√2 edge costs, so A* stays optimal.
func (gr *Graph) heuristic(i, goal int) float64 {
	dc := float64(i%gr.width - goal%gr.width)
	dr := float64(i/gr.width - goal/gr.width)
	return math.Hypot(dc, dr)
}

// Search runs A* from start to goal and returns the cells of the cheapest
// path, both endpoints included, with its cost in grid units.
func (gr *Graph) Search(start, goal core.Cell) ([]core.Cell, float64, error) {
	si, okS := gr.index(start)
	gi, okG := gr.index(goal)
	if !okS || !okG {
		return nil, 0, &core.NoRouteError{From: start, To: goal, Reason: core.ReasonEndpointOutside}
	}
	if gr.component[si] == notNode || gr.component[gi] == notNode {
		return nil, 0, &core.NoRouteError{From: start, To: goal, Reason: core.ReasonEndpointBlocked}
	}
	if !gr.Connected(start, goal) {
		return nil, 0, &core.NoRouteError{From: start, To: goal, Reason: core.ReasonDisconnected}
	}

	nodes := map[int]*searchNode{si: {g: 0, parent: -1}}
	open := &openSet{{index: si, f: gr.heuristic(si, gi)}}
	var seq uint64

	for open.Len() > 0 {
		cur := heap.Pop(open).(openItem)
		node := nodes[cur.index]
		if node.closed {
			continue
		}
		node.closed = true

		if cur.index == gi {
			return gr.reconstruct(nodes, gi), node.g, nil
		}

		for k := range offsets {
			if gr.mask[cur.index]&(1<<k) == 0 {
				continue
			}
			j := gr.step(cur.index, k)
			tentative := node.g + weights[k]
			next, seen := nodes[j]
			if seen && (next.closed || tentative >= next.g) {
				continue
			}
			if !seen {
				next = &searchNode{}
				nodes[j] = next
			}
			next.g = tentative
			next.parent = cur.index
			seq++
			heap.Push(open, openItem{index: j, f: tentative + gr.heuristic(j, gi), seq: seq})
		}
	}

	return nil, 0, &core.NoRouteError{From: start, To: goal, Reason: core.ReasonSearchExhausted}
}

func (gr *Graph) reconstruct(nodes map[int]*searchNode, goal int) []core.Cell {
	var rev []core.Cell
	for i := goal; i != -1; i = nodes[i].parent {
		rev = append(rev, gr.cell(i))
	}
	path := make([]core.Cell, len(rev))
	for i, c := range rev {
		path[len(rev)-1-i] = c
	}
	return path
}
