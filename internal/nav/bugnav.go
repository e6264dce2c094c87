package nav

import "github.com/Garsondee/Swarm-Sense/internal/grid"

// StackCap is the hard capacity of the wall-following stack.
const StackCap = 20

const (
	DefaultMaxDepth        = 8
	DefaultMaxFollowRounds = 60
)

// Mover is the slice of the environment navigation needs.
type Mover interface {
	Round() int
	Location() grid.Loc
	OnMap(grid.Loc) bool
	CanMove(grid.Direction) bool
}

// BugNavigator walks toward a target and hugs obstacles it bumps into.
//
// While the stack is empty the navigator tries the direct direction and
// its two neighbours. Once blocked it sweeps from the direct direction,
// rotating by its side bias and stacking every blocked direction, then
// keeps circling the obstacle from the top of the stack on later calls.
// Wall-following ends when the stacked directions open up again or when a
// greedy step lands closer to the target than where the follow started.
//
// Circling is detected by remembering (cell, side, stack top) states since
// the last improvement on the closest approach. The first repeat flips the
// side bias; the second switches to a depth-first walk over remembered
// cells, which either reaches the target or exhausts everything reachable
// and reports failure.
type BugNavigator struct {
	MaxDepth        int
	MaxFollowRounds int
	Leash           *Leash

	target    grid.Loc
	hasTarget bool

	stack [StackCap]grid.Direction
	size  int

	right      bool
	startRound int
	startDist  int

	best  int
	seen  map[loopKey]struct{}
	loops int

	walking bool
	visited map[grid.Loc]bool
	trail   []grid.Loc
	pending grid.Loc
}

type loopKey struct {
	loc   grid.Loc
	right bool
	top   grid.Direction
}

// NewBugNavigator returns a navigator; maxDepth is clamped to [1, StackCap].
func NewBugNavigator(maxDepth, maxFollowRounds int) *BugNavigator {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxDepth > StackCap {
		maxDepth = StackCap
	}
	if maxFollowRounds <= 0 {
		maxFollowRounds = DefaultMaxFollowRounds
	}
	return &BugNavigator{MaxDepth: maxDepth, MaxFollowRounds: maxFollowRounds}
}

// Depth is the current wall-following stack size.
func (b *BugNavigator) Depth() int { return b.size }

// Following reports whether a wall-follow is in progress.
func (b *BugNavigator) Following() bool { return b.size > 0 }

// RightHanded reports the current side bias.
func (b *BugNavigator) RightHanded() bool { return b.right }

// Target returns the current navigation target.
func (b *BugNavigator) Target() (grid.Loc, bool) { return b.target, b.hasTarget }

// Walking reports whether the navigator gave up on wall-following and is
// searching cell by cell.
func (b *BugNavigator) Walking() bool { return b.walking }

// Reset forgets the target and any wall-follow.
func (b *BugNavigator) Reset() {
	b.hasTarget = false
	b.clear()
	b.forget()
}

// MoveToward returns the direction to step this round. At the target it
// returns (grid.Center, true); (grid.Center, false) means no progress is
// possible this round and the caller should fall back.
func (b *BugNavigator) MoveToward(m Mover, target grid.Loc) (grid.Direction, bool) {
	if !b.hasTarget || target != b.target {
		b.target = target
		b.hasTarget = true
		b.clear()
		b.forget()
	}
	here := m.Location()
	if here == target {
		b.clear()
		return grid.Center, true
	}
	if b.walking {
		return b.walk(m, here)
	}
	direct := here.DirectionTo(target)
	dist := here.DistSq(target)

	if b.circling(here, dist) {
		b.loops++
		if b.loops >= 2 {
			b.clear()
			b.startWalk(here)
			return b.walk(m, here)
		}
		b.flip()
		b.clear()
	}

	if b.size > 0 && m.Round()-b.startRound > b.MaxFollowRounds {
		b.flip()
		b.clear()
	}
	if b.size == 0 {
		if d, ok := b.greedy(m, here, direct, -1); ok {
			return d, true
		}
		return b.startFollow(m, here, direct, dist)
	}
	return b.follow(m, here, direct, dist)
}

// greedy tries direct and its neighbours. With limit >= 0 only steps
// landing strictly closer than limit (distance²) are accepted.
func (b *BugNavigator) greedy(m Mover, here grid.Loc, direct grid.Direction, limit int) (grid.Direction, bool) {
	for _, d := range [3]grid.Direction{direct, direct.RotateLeft(), direct.RotateRight()} {
		if !b.legal(m, here, d) {
			continue
		}
		if limit >= 0 && here.Add(d).DistSq(b.target) >= limit {
			continue
		}
		b.clear()
		return d, true
	}
	return grid.Center, false
}

func (b *BugNavigator) startFollow(m Mover, here grid.Loc, direct grid.Direction, dist int) (grid.Direction, bool) {
	b.startRound = m.Round()
	b.startDist = dist
	return b.sweep(m, here, direct)
}

func (b *BugNavigator) follow(m Mover, here grid.Loc, direct grid.Direction, dist int) (grid.Direction, bool) {
	if d, ok := b.greedy(m, here, direct, b.startDist); ok {
		return d, true
	}
	if b.size >= 2 && b.legal(m, here, b.stack[b.size-2]) {
		b.size -= 2
	}
	for b.size > 0 && b.legal(m, here, b.stack[b.size-1]) {
		b.size--
	}
	if b.size == 0 {
		if d, ok := b.greedy(m, here, direct, -1); ok {
			return d, true
		}
		b.startRound = m.Round()
		b.startDist = dist
		b.push(direct)
	}
	return b.sweep(m, here, b.rotate(b.stack[b.size-1]))
}

// sweep rotates from d by the side bias until a legal direction turns up,
// stacking each blocked one.
func (b *BugNavigator) sweep(m Mover, here grid.Loc, d grid.Direction) (grid.Direction, bool) {
	for {
		if !m.OnMap(here.Add(d)) {
			b.flip()
			b.clear()
			return grid.Center, false
		}
		if b.legal(m, here, d) {
			return d, true
		}
		if b.size >= b.limit() {
			b.clear()
			return grid.Center, false
		}
		b.push(d)
		d = b.rotate(d)
	}
}

func (b *BugNavigator) legal(m Mover, here grid.Loc, d grid.Direction) bool {
	if d == grid.Center || !m.CanMove(d) {
		return false
	}
	return b.Leash.AllowsStep(here, here.Add(d))
}

func (b *BugNavigator) rotate(d grid.Direction) grid.Direction {
	if b.right {
		return d.RotateRight()
	}
	return d.RotateLeft()
}

func (b *BugNavigator) limit() int {
	return max(1, min(b.MaxDepth, StackCap))
}

func (b *BugNavigator) push(d grid.Direction) {
	if b.size >= b.limit() {
		return
	}
	b.stack[b.size] = d
	b.size++
}

// circling records the current state and reports whether it was already
// seen since the closest approach last improved.
func (b *BugNavigator) circling(here grid.Loc, dist int) bool {
	if b.seen == nil || dist < b.best {
		b.best = dist
		b.seen = make(map[loopKey]struct{})
	}
	k := loopKey{loc: here, right: b.right, top: grid.Center}
	if b.size > 0 {
		k.top = b.stack[b.size-1]
	}
	if _, ok := b.seen[k]; ok {
		b.seen = make(map[loopKey]struct{})
		return true
	}
	b.seen[k] = struct{}{}
	return false
}

func (b *BugNavigator) startWalk(here grid.Loc) {
	b.walking = true
	b.visited = map[grid.Loc]bool{here: true}
	b.trail = append(b.trail[:0], here)
	b.pending = here
}

// walk is an online depth-first search: step to the unvisited neighbour
// closest to the target, else back up the trail. An empty trail means the
// target is unreachable from where the walk began.
func (b *BugNavigator) walk(m Mover, here grid.Loc) (grid.Direction, bool) {
	top := b.trail[len(b.trail)-1]
	switch {
	case here == top:
	case len(b.trail) >= 2 && here == b.trail[len(b.trail)-2]:
		b.trail = b.trail[:len(b.trail)-1]
	case here == b.pending && here.Adjacent(top):
		b.trail = append(b.trail, here)
	default:
		// Moved by something else; search again from here.
		b.startWalk(here)
	}
	b.visited[here] = true
	b.pending = here

	best, bestDist := grid.Center, -1
	for _, d := range grid.Compass {
		next := here.Add(d)
		if b.visited[next] || !b.legal(m, here, d) {
			continue
		}
		if dd := next.DistSq(b.target); bestDist < 0 || dd < bestDist {
			best, bestDist = d, dd
		}
	}
	if best != grid.Center {
		b.pending = here.Add(best)
		return best, true
	}
	if len(b.trail) < 2 {
		b.forget()
		return grid.Center, false
	}
	parent := b.trail[len(b.trail)-2]
	d := here.DirectionTo(parent)
	if !b.legal(m, here, d) {
		return grid.Center, false
	}
	b.pending = parent
	return d, true
}

// forget drops loop detection and any depth-first walk.
func (b *BugNavigator) forget() {
	b.seen = nil
	b.loops = 0
	b.walking = false
	b.visited = nil
	b.trail = b.trail[:0]
}

func (b *BugNavigator) flip() { b.right = !b.right }

func (b *BugNavigator) clear() { b.size = 0 }
