package agent

import (
	"fmt"

	"github.com/Garsondee/Swarm-Sense/internal/comms"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
	"github.com/Garsondee/Swarm-Sense/internal/nav"
)

// Sighting is the last known position of something.
type Sighting struct {
	Loc   grid.Loc
	ID    int
	Round int
	Valid bool
}

// Fresh reports whether the sighting is at most maxAge rounds old.
func (s Sighting) Fresh(round, maxAge int) bool {
	return s.Valid && round-s.Round <= maxAge
}

// Perception is what Init sensed this round.
type Perception struct {
	Round     int
	Entities  []Entity
	Cells     []Cell
	Truncated bool
}

const blacklistCap = 8

// Context is one agent's private state for the whole match. Every state
// run receives it; nothing else is shared between states.
type Context struct {
	Env Env
	Cfg Config
	Log Logger

	Label string
	Team  string
	Role  Role

	Round         int
	LastInitRound int
	Loc           grid.Loc
	Facing        grid.Direction
	LastLoc       grid.Loc
	Home          grid.Loc
	Health        int
	Carried       int

	Seen Perception

	Threat      Sighting
	ThreatCount int
	Resource    Sighting
	AllyLeader  Sighting
	EnemyLeader Sighting
	EnemyUnit   Sighting
	Mode        int

	ExploreTarget    grid.Loc
	hasExploreTarget bool
	exploreDir       grid.Direction
	exploreSince     int
	blacklist        []grid.Loc

	Nav    *nav.PathFinder
	Table  *comms.Table
	Buffer *comms.PriorityBuffer
	Chan   comms.Channel

	moved   bool
	turned  bool
	acted   bool
	yielded bool
	asking  bool

	Warns  int
	Errs   int
	Faults int
}

// NewContext builds the context for the agent behind env.
func NewContext(env Env, cfg Config, log Logger, label, team string) *Context {
	if log == nil {
		log = nopLogger{}
	}
	role := env.Role()
	c := &Context{
		Env:           env,
		Cfg:           cfg,
		Log:           log,
		Label:         label,
		Team:          team,
		Role:          role,
		Round:         env.Round(),
		LastInitRound: -1,
		Loc:           env.Location(),
		Facing:        env.Facing(),
		Home:          env.Location(),
		Health:        env.Health(),
		Nav:           nav.NewPathFinder(cfg.BugMaxDepth, cfg.BugMaxFollowRounds),
		Table:         comms.NewTable(env, role.Privileged()),
		Buffer:        comms.NewPriorityBuffer(cfg.BufferCapacity),
		exploreDir:    env.Facing(),
	}
	c.LastLoc = c.Loc
	return c
}

type nopLogger struct{}

func (nopLogger) Add(int, string, string, string, string, string, float64) {}

func (c *Context) log(category, key, value string, num float64) {
	c.Log.Add(c.Round, c.Label, c.Team, category, key, value, num)
}

func (c *Context) logf(category, key string, num float64, format string, args ...any) {
	c.log(category, key, fmt.Sprintf(format, args...), num)
}

// Moved reports whether the agent already moved this round.
func (c *Context) Moved() bool { return c.moved }

// move tries one step. It returns false without side effects when the
// agent already moved, d is Center, or the environment refuses.
func (c *Context) move(d grid.Direction) bool {
	if c.moved || d == grid.Center || !d.Valid() {
		return false
	}
	if !c.Env.CanMove(d) {
		return false
	}
	if err := c.Env.Move(d); err != nil {
		return false
	}
	c.moved = true
	c.LastLoc = c.Loc
	c.Loc = c.Env.Location()
	c.Nav.Record(d)
	return true
}

func (c *Context) turn(d grid.Direction) bool {
	if c.turned || d == grid.Center || d == c.Facing || !c.Env.CanTurn() {
		return false
	}
	if err := c.Env.Turn(d); err != nil {
		return false
	}
	c.turned = true
	c.Facing = c.Env.Facing()
	return true
}

// yield ends the agent's round once.
func (c *Context) yield() {
	if c.yielded {
		return
	}
	c.yielded = true
	c.Env.Yield()
}

func (c *Context) lowBudget() bool {
	return c.Env.BudgetLeft() < c.Cfg.BudgetReserve
}

func (c *Context) threatWithin(r2 int) bool {
	return c.Threat.Fresh(c.Round, 1) && c.Loc.DistSq(c.Threat.Loc) <= r2
}

func (c *Context) blacklisted(l grid.Loc) bool {
	for _, b := range c.blacklist {
		if b == l {
			return true
		}
	}
	return false
}

func (c *Context) abandon(l grid.Loc) {
	if c.blacklisted(l) {
		return
	}
	if len(c.blacklist) >= blacklistCap {
		c.blacklist = c.blacklist[1:]
	}
	c.blacklist = append(c.blacklist, l)
}
