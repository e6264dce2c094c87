package agent

import "github.com/Garsondee/Swarm-Sense/internal/grid"

// Role is an agent's category.
type Role uint8

const (
	Worker Role = iota
	Leader
)

func (r Role) String() string {
	switch r {
	case Worker:
		return "worker"
	case Leader:
		return "leader"
	default:
		return "unknown"
	}
}

// Privileged reports whether the role may write shared memory and ingest
// broadcasts.
func (r Role) Privileged() bool { return r == Leader }

// EntityKind classifies a sensed entity.
type EntityKind uint8

const (
	KindWorker EntityKind = iota
	KindLeader
	KindThreat
)

func (k EntityKind) String() string {
	switch k {
	case KindWorker:
		return "worker"
	case KindLeader:
		return "leader"
	case KindThreat:
		return "threat"
	default:
		return "unknown"
	}
}

// Entity is something sensed nearby.
type Entity struct {
	ID     int
	Kind   EntityKind
	Loc    grid.Loc
	Ally   bool
	Health int
}

// Cell is a sensed map cell.
type Cell struct {
	Loc      grid.Loc
	Wall     bool
	Resource int
}

// Env is everything an agent may ask of the world. Actions can fail even
// after a positive legality check; callers re-check rather than assume.
type Env interface {
	Round() int
	ID() int
	Role() Role
	Location() grid.Loc
	Facing() grid.Direction

	MapWidth() int
	MapHeight() int
	OnMap(grid.Loc) bool

	CanMove(grid.Direction) bool
	Move(grid.Direction) error
	CanTurn() bool
	Turn(grid.Direction) error

	SenseNearby() []Entity
	SenseCells() []Cell
	SenseCell(grid.Loc) (Cell, bool)

	Collect(grid.Loc) error
	Deliver(grid.Loc) error
	Spawn(grid.Direction) error
	// Promote turns this worker into its team's leader when the team has
	// none.
	Promote() error
	Carried() int
	Health() int
	TeamStock() int

	ReadShared(i int) int
	WriteShared(i, v int) error
	Broadcast(raw uint32) error
	ReadBroadcasts() []uint32

	BudgetLeft() int
	Yield()
}

// Logger receives structured events.
type Logger interface {
	Add(round int, agent, team, category, key, value string, num float64)
}
