package grid

import "fmt"

// Direction is one of the 8 compass directions or Center ("no movement").
// The ordinal doubles as the index into a 9-slot score vector.
type Direction int8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	Center
)

// Compass lists the 8 movement directions in ordinal order.
var Compass = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var deltas = [9][2]int{
	{0, 1}, {1, 1}, {1, 0}, {1, -1},
	{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
	{0, 0},
}

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case NorthEast:
		return "NE"
	case East:
		return "E"
	case SouthEast:
		return "SE"
	case South:
		return "S"
	case SouthWest:
		return "SW"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	case Center:
		return "C"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the 9 defined directions.
func (d Direction) Valid() bool { return d >= North && d <= Center }

// DX returns the x step of d.
func (d Direction) DX() int {
	if !d.Valid() {
		return 0
	}
	return deltas[d][0]
}

// DY returns the y step of d. North is +y.
func (d Direction) DY() int {
	if !d.Valid() {
		return 0
	}
	return deltas[d][1]
}

// RotateLeft turns d 45° counter-clockwise. Center stays Center.
func (d Direction) RotateLeft() Direction {
	if d == Center || !d.Valid() {
		return Center
	}
	return (d + 7) % 8
}

// RotateRight turns d 45° clockwise. Center stays Center.
func (d Direction) RotateRight() Direction {
	if d == Center || !d.Valid() {
		return Center
	}
	return (d + 1) % 8
}

// Rotate turns d by n 45° steps; positive n is clockwise.
func (d Direction) Rotate(n int) Direction {
	if d == Center || !d.Valid() {
		return Center
	}
	return Direction(((int(d)+n)%8 + 8) % 8)
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	if d == Center || !d.Valid() {
		return Center
	}
	return (d + 4) % 8
}

// Loc is a map cell.
type Loc struct {
	X, Y int
}

func (l Loc) String() string { return fmt.Sprintf("(%d,%d)", l.X, l.Y) }

// Add returns the neighbouring cell in direction d.
func (l Loc) Add(d Direction) Loc {
	return Loc{X: l.X + d.DX(), Y: l.Y + d.DY()}
}

// DistSq is the squared euclidean distance between two cells.
func (l Loc) DistSq(o Loc) int {
	dx := l.X - o.X
	dy := l.Y - o.Y
	return dx*dx + dy*dy
}

// Adjacent reports whether o is l itself or one of its 8 neighbours.
func (l Loc) Adjacent(o Loc) bool { return l.DistSq(o) <= 2 }

// DirectionTo returns the compass direction closest to the bearing from l to o.
// Axis directions win when one component is at least ~2.414x the other
// (tan 67.5°), otherwise the diagonal is returned.
func (l Loc) DirectionTo(o Loc) Direction {
	dx := o.X - l.X
	dy := o.Y - l.Y
	if dx == 0 && dy == 0 {
		return Center
	}
	adx, ady := abs(dx), abs(dy)
	switch {
	case adx*1000 >= ady*2414:
		if dx > 0 {
			return East
		}
		return West
	case ady*1000 >= adx*2414:
		if dy > 0 {
			return North
		}
		return South
	case dx > 0 && dy > 0:
		return NorthEast
	case dx > 0:
		return SouthEast
	case dy > 0:
		return NorthWest
	default:
		return SouthWest
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
