package nav

import "github.com/Garsondee/Swarm-Sense/internal/grid"

// BaseScore seeds every movement slot at the start of a round so that
// unconstrained directions stay positive after mild penalties.
const BaseScore = CanonicalMagnitude

// Soft orientation cone: dir, ±45°, ±90°, ±135°, opposite.
var softCone = [5]int64{400, 350, 250, 150, 50}

// PathFinder turns weighted heuristics into one movement decision per
// round. It owns the round's ScoreVector and the agent's BugNavigator.
type PathFinder struct {
	Scores ScoreVector
	Bug    *BugNavigator

	last grid.Direction
}

// NewPathFinder returns a PathFinder whose BugNavigator uses the given
// limits.
func NewPathFinder(maxDepth, maxFollowRounds int) *PathFinder {
	p := &PathFinder{
		Bug:  NewBugNavigator(maxDepth, maxFollowRounds),
		last: grid.Center,
	}
	p.Reset()
	return p
}

// Reset seeds the score vector for a new round. The last direction and
// the navigation session survive.
func (p *PathFinder) Reset() {
	p.Scores.ResetBase(BaseScore)
}

// SetLeash installs (or removes, with nil) a leash on navigation.
func (p *PathFinder) SetLeash(l *Leash) {
	p.Bug.Leash = l
}

// Leash returns the active leash, if any.
func (p *PathFinder) Leash() *Leash { return p.Bug.Leash }

// Last is the direction recorded by the previous successful move.
func (p *PathFinder) Last() grid.Direction { return p.last }

// Record remembers a direction actually moved this round.
func (p *PathFinder) Record(dir grid.Direction) {
	p.last = dir
}

// AddDanger rewards directions that gain distance from danger.
func (p *PathFinder) AddDanger(from, danger grid.Loc, weight int64) {
	var v [9]int64
	base := from.DistSq(danger)
	for _, d := range grid.Compass {
		v[d] = int64(from.Add(d).DistSq(danger) - base)
	}
	p.Scores.AddNormalized(v, weight)
}

// AddInterest rewards directions that close distance to target.
func (p *PathFinder) AddInterest(from, target grid.Loc, weight int64) {
	var v [9]int64
	base := from.DistSq(target)
	for _, d := range grid.Compass {
		v[d] = int64(base - from.Add(d).DistSq(target))
	}
	p.Scores.AddNormalized(v, weight)
}

// AddSoftOrientation adds a cone of preference around dir without
// forbidding anything.
func (p *PathFinder) AddSoftOrientation(dir grid.Direction, weight int64) {
	if dir == grid.Center || !dir.Valid() {
		return
	}
	var v [9]int64
	for n := -4; n <= 4; n++ {
		k := n
		if k < 0 {
			k = -k
		}
		v[dir.Rotate(n)] = softCone[k]
	}
	p.Scores.AddNormalized(v, weight)
}

// AddOrientation restricts the decision to the forward cone of dir.
func (p *PathFinder) AddOrientation(dir grid.Direction) {
	p.Scores.ApplyOrientationBias(dir)
}

// Exclude forbids dir for this round.
func (p *PathFinder) Exclude(dir grid.Direction) {
	p.Scores.Exclude(dir)
}

// Next picks the direction to move. Only directions the mover can take
// (and the leash allows) are considered. An immediate reversal of the last
// move is replaced by the runner-up when that scores at least 10/13 of it,
// and the last direction is kept when it scores at least 9/10 of the best.
func (p *PathFinder) Next(m Mover) grid.Direction {
	here := m.Location()
	allowed := func(d grid.Direction) bool {
		if d == grid.Center {
			return true
		}
		return m.CanMove(d) && p.Bug.Leash.AllowsStep(here, here.Add(d))
	}
	best := p.Scores.Best(allowed)
	if best == grid.Center || p.last == grid.Center {
		return best
	}
	s := &p.Scores
	if best == p.last.Opposite() {
		runner := s.Best(func(d grid.Direction) bool { return d != best && allowed(d) })
		if runner != grid.Center && s[runner]*13 >= s[best]*10 {
			best = runner
		}
	}
	if best != p.last && allowed(p.last) && s[p.last] > 0 && s[p.last]*10 >= s[best]*9 {
		best = p.last
	}
	return best
}

// Toward steers to target: the BugNavigator proposes a direction, the
// score vector is biased to its forward cone, and Next decides. When the
// navigator fails the scores alone decide. weight is the strength of the
// proposed direction.
func (p *PathFinder) Toward(m Mover, target grid.Loc, weight int64) grid.Direction {
	dir, ok := p.Bug.MoveToward(m, target)
	if !ok {
		return p.Next(m)
	}
	if dir == grid.Center {
		return grid.Center
	}
	var v [9]int64
	v[dir] = 1
	p.Scores.AddNormalized(v, weight)
	p.Scores.ApplyOrientationBias(dir)
	return p.Next(m)
}
