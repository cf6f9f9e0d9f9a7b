package grove

import (
	"container/heap"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// pathNode is an open-set entry ordered by its heuristic cost.
type pathNode struct {
	cell     *Hexagon
	priority int
	seq      int // insertion order breaks ties deterministically
}

type openSet []pathNode

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].priority != o[j].priority {
		return o[i].priority < o[j].priority
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x any)   { *o = append(*o, x.(pathNode)) }
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	x := old[n-1]
	old[n-1] = pathNode{}
	*o = old[:n-1]
	return x
}

// CalculatePath searches for a path from start to target.
//
// The open set is ordered by the exact hex distance to target only; no
// accumulated path cost is tracked, so this is a greedy best-first search,
// not A*. A cell is marked visited when first discovered. On a convex grid
// with nothing in the way (the axial parallelogram CreateGrid builds) each
// step closes the distance by one, so the path has minimal cell count.
// Detours around blocked or missing cells are valid but may be longer than
// the shortest route.
//
// canWalk, when non-nil, decides whether a neighbor may be entered at all;
// rejected cells are never enqueued. The start cell is not tested.
//
// On success it returns the cells from start to target inclusive and their
// world positions. When either endpoint is nil or foreign to the grid, or no
// path exists, it returns nil slices and false.
func (g *HexagonalGrid) CalculatePath(start, target *Hexagon, canWalk func(*Hexagon) bool) ([]*Hexagon, []mgl64.Vec3, bool) {
	if start == nil || target == nil || start.grid != g || target.grid != g {
		return nil, nil, false
	}
	if start == target || start.Coordinates == target.Coordinates {
		return []*Hexagon{start}, []mgl64.Vec3{start.WorldPosition()}, true
	}

	cameFrom := map[*Hexagon]*Hexagon{start: nil}
	open := &openSet{{cell: start, priority: HexDistance(start.Coordinates, target.Coordinates)}}
	seq := 1
	var neighbors [6]*Hexagon

	found := false
	for open.Len() > 0 {
		cur := heap.Pop(open).(pathNode).cell
		if cur == target {
			found = true
			break
		}
		for _, n := range g.Neighbors(neighbors[:0], cur) {
			if _, seen := cameFrom[n]; seen {
				continue
			}
			if canWalk != nil && !canWalk(n) {
				continue
			}
			cameFrom[n] = cur
			heap.Push(open, pathNode{cell: n, priority: HexDistance(n.Coordinates, target.Coordinates), seq: seq})
			seq++
		}
	}
	if !found {
		return nil, nil, false
	}

	var cells []*Hexagon
	for c := target; c != nil; c = cameFrom[c] {
		cells = append(cells, c)
	}
	slices.Reverse(cells)
	positions := make([]mgl64.Vec3, len(cells))
	for i, c := range cells {
		positions[i] = c.WorldPosition()
	}
	return cells, positions, true
}

// Walkable is a canWalk predicate that accepts cells that are neither
// blocked nor occupied.
func Walkable(h *Hexagon) bool { return h.IsWalkable() }
