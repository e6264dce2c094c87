package nav

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/Garsondee/Swarm-Sense/internal/grid"
)

// Leash keeps navigation within Radius of Anchor. A nil *Leash allows
// everything.
type Leash struct {
	Anchor orb.Point
	Radius float64
}

// NewLeash returns a leash of the given radius centred on a cell.
func NewLeash(anchor grid.Loc, radius float64) *Leash {
	return &Leash{Anchor: point(anchor), Radius: radius}
}

// Contains reports whether l lies inside the circle.
func (l *Leash) Contains(loc grid.Loc) bool {
	if l == nil {
		return true
	}
	return planar.Distance(point(loc), l.Anchor) <= l.Radius
}

// AllowsStep reports whether moving from one cell to another respects the
// leash. Outside the circle, steps that strictly close in on the anchor
// are still allowed so a stranded agent can walk back.
func (l *Leash) AllowsStep(from, to grid.Loc) bool {
	if l == nil {
		return true
	}
	d := planar.Distance(point(to), l.Anchor)
	if d <= l.Radius {
		return true
	}
	return d < planar.Distance(point(from), l.Anchor)
}

// MoveAnchor re-centres the leash, e.g. when the leader moved.
func (l *Leash) MoveAnchor(anchor grid.Loc) {
	if l == nil {
		return
	}
	l.Anchor = point(anchor)
}

func point(loc grid.Loc) orb.Point {
	return orb.Point{float64(loc.X), float64(loc.Y)}
}
