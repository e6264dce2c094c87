package sim

import (
	"container/heap"

	"github.com/Garsondee/Swarm-Sense/internal/grid"
)

type pathNode struct {
	loc    grid.Loc
	g, h   int
	parent *pathNode
	index  int
}

type openList []*pathNode

func (ol openList) Len() int           { return len(ol) }
func (ol openList) Less(i, j int) bool { return ol[i].g+ol[i].h < ol[j].g+ol[j].h }
func (ol openList) Swap(i, j int)      { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x any)        { n := x.(*pathNode); n.index = len(*ol); *ol = append(*ol, n) }
func (ol *openList) Pop() any {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

// chebyshev is exact for 8-way unit-cost moves.
func chebyshev(a, b grid.Loc) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// FindPath returns the shortest 8-way path from one cell to another over
// walls only, ignoring units and threats. Diagonal steps may cut corners,
// as unit moves do. It returns nil when to is unreachable.
func (w *World) FindPath(from, to grid.Loc) []grid.Loc {
	if w.Wall(from) || w.Wall(to) {
		return nil
	}
	start := &pathNode{loc: from, h: chebyshev(from, to)}
	ol := &openList{start}
	heap.Init(ol)
	closed := make(map[grid.Loc]bool)
	best := map[grid.Loc]*pathNode{from: start}

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.loc == to {
			var path []grid.Loc
			for n := cur; n != nil; n = n.parent {
				path = append(path, n.loc)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}
		if closed[cur.loc] {
			continue
		}
		closed[cur.loc] = true

		for _, d := range grid.Compass {
			next := cur.loc.Add(d)
			if w.Wall(next) || closed[next] {
				continue
			}
			g := cur.g + 1
			if prev, ok := best[next]; ok && g >= prev.g {
				continue
			}
			n := &pathNode{loc: next, g: g, h: chebyshev(next, to), parent: cur}
			best[next] = n
			heap.Push(ol, n)
		}
	}
	return nil
}

// Reachable reports whether to can be reached from from over open cells.
func (w *World) Reachable(from, to grid.Loc) bool {
	return w.FindPath(from, to) != nil
}
