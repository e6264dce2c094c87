// Package sim is a headless round-based world that hosts two swarms of
// agents. It implements agent.Env for each unit, charges a compute budget
// per capability call, moves threats, and records events to a simlog.Log.
package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
	"github.com/Garsondee/Swarm-Sense/internal/comms"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
	"github.com/Garsondee/Swarm-Sense/internal/simlog"
)

// ErrIllegal is returned for actions the world refuses.
var ErrIllegal = errors.New("sim: illegal action")

// MaxMapDim bounds the map so positions fit the broadcast codec.
const MaxMapDim = 60

// Team identifies one of the two swarms.
type Team uint8

const (
	TeamA Team = iota
	TeamB
)

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return "?"
	}
}

// Opponent returns the other team.
func (t Team) Opponent() Team { return 1 - t }

// Params are the world's rules.
type Params struct {
	Budget          int `json:"budget"`
	CarryCap        int `json:"carry_cap"`
	SpawnCost       int `json:"spawn_cost"`
	StartHealth     int `json:"start_health"`
	ThreatRadiusSq  int `json:"threat_radius_sq"`
	ThreatDamage    int `json:"threat_damage"`
	WorkerSenseSq   int `json:"worker_sense_sq"`
	LeaderSenseSq   int `json:"leader_sense_sq"`
	MaxUnitsPerTeam int `json:"max_units_per_team"`
	StartStock      int `json:"start_stock"`
	// PromoteCost is the stock a worker spends to become leader.
	PromoteCost int `json:"promote_cost"`
	// PromoteQuorum is how many allies must stand within PromoteRangeSq
	// of a promoting worker, capped at the team's other living units.
	PromoteQuorum  int `json:"promote_quorum"`
	PromoteRangeSq int `json:"promote_range_sq"`
}

// DefaultParams returns the standard rules.
func DefaultParams() Params {
	return Params{
		Budget:          10_000,
		CarryCap:        20,
		SpawnCost:       50,
		StartHealth:     100,
		ThreatRadiusSq:  17,
		ThreatDamage:    20,
		WorkerSenseSq:   20,
		LeaderSenseSq:   25,
		MaxUnitsPerTeam: 24,
		StartStock:      0,
		PromoteCost:     0,
		PromoteQuorum:   1,
		PromoteRangeSq:  8,
	}
}

// Unit is one agent in the world.
type Unit struct {
	ID      int
	Label   string
	Team    Team
	Role    agent.Role
	Loc     grid.Loc
	Facing  grid.Direction
	Health  int
	Carried int
	Alive   bool
	Born    int

	// Slipped is set when the unit overspent its budget; it skips its
	// next turn.
	Slipped bool

	// promoted is set by a successful Promote; the world rebuilds the
	// unit's agent as a leader once its turn ends.
	promoted bool

	env     *agentEnv
	ctx     *agent.Context
	machine *agent.Machine
}

// Context exposes the unit's agent state to viewers and tests.
func (u *Unit) Context() *agent.Context { return u.ctx }

// Machine exposes the unit's state machine.
func (u *Unit) Machine() *agent.Machine { return u.machine }

// Threat is a hostile wanderer that damages adjacent units.
type Threat struct {
	ID  int
	Loc grid.Loc
}

type broadcast struct {
	Round int
	Seq   int
	Raw   uint32
}

type teamState struct {
	shared    [comms.SlotCount]int
	log       []broadcast
	seq       int
	stock     int
	collected int
	delivered int
	spawned   int
	cfg       agent.Config
}

// World is the full simulation state.
type World struct {
	W, H   int
	Bounds orb.Bound
	Round  int
	Params Params

	Units   []*Unit
	Threats []*Threat

	Log      *simlog.Log
	Thoughts *simlog.Thoughts

	walls []bool
	res   []int
	teams [2]teamState
	rng   *rand.Rand

	nextID int
}

// NewWorld returns an empty w×h world.
func NewWorld(w, h int, seed int64, params Params, log *simlog.Log) (*World, error) {
	if w < 3 || h < 3 || w > MaxMapDim || h > MaxMapDim {
		return nil, fmt.Errorf("map %dx%d outside 3..%d", w, h, MaxMapDim)
	}
	if log == nil {
		log = simlog.New(false)
	}
	world := &World{
		W:      w,
		H:      h,
		Bounds: orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{float64(w - 1), float64(h - 1)}},
		Params: params,
		Log:    log,
		walls:  make([]bool, w*h),
		res:    make([]int, w*h),
		rng:    rand.New(rand.NewSource(seed)), // #nosec G404 -- simulation RNG
	}
	for i := range world.teams {
		world.teams[i].cfg = agent.DefaultConfig()
		world.teams[i].stock = params.StartStock
	}
	return world, nil
}

// SetConfig sets the agent configuration used by team's units created
// from now on.
func (w *World) SetConfig(t Team, cfg agent.Config) { w.teams[t].cfg = cfg }

// Config returns team's agent configuration.
func (w *World) Config(t Team) agent.Config { return w.teams[t].cfg }

// OnMap reports whether l is inside the map.
func (w *World) OnMap(l grid.Loc) bool {
	return w.Bounds.Contains(orb.Point{float64(l.X), float64(l.Y)})
}

func (w *World) idx(l grid.Loc) int { return l.Y*w.W + l.X }

// Wall reports whether l is a wall. Off-map cells count as walls.
func (w *World) Wall(l grid.Loc) bool {
	return !w.OnMap(l) || w.walls[w.idx(l)]
}

// SetWall places or clears a wall.
func (w *World) SetWall(l grid.Loc, wall bool) {
	if w.OnMap(l) {
		w.walls[w.idx(l)] = wall
	}
}

// Resource returns the amount left at l.
func (w *World) Resource(l grid.Loc) int {
	if !w.OnMap(l) {
		return 0
	}
	return w.res[w.idx(l)]
}

// SetResource sets the amount at l.
func (w *World) SetResource(l grid.Loc, n int) {
	if w.OnMap(l) {
		w.res[w.idx(l)] = max(n, 0)
	}
}

// ResourceTotal sums every resource cell.
func (w *World) ResourceTotal() int {
	total := 0
	for _, n := range w.res {
		total += n
	}
	return total
}

// Stock returns team's delivered stock.
func (w *World) Stock(t Team) int { return w.teams[t].stock }

// Shared returns a copy of team's shared array.
func (w *World) Shared(t Team) [comms.SlotCount]int { return w.teams[t].shared }

// UnitAt returns the living unit at l.
func (w *World) UnitAt(l grid.Loc) *Unit {
	for _, u := range w.Units {
		if u.Alive && u.Loc == l {
			return u
		}
	}
	return nil
}

// ThreatAt returns the threat at l.
func (w *World) ThreatAt(l grid.Loc) *Threat {
	for _, t := range w.Threats {
		if t.Loc == l {
			return t
		}
	}
	return nil
}

// Free reports whether a unit or threat may enter l.
func (w *World) Free(l grid.Loc) bool {
	return !w.Wall(l) && w.UnitAt(l) == nil && w.ThreatAt(l) == nil
}

// Alive lists team's living units.
func (w *World) Alive(t Team) []*Unit {
	var out []*Unit
	for _, u := range w.Units {
		if u.Alive && u.Team == t {
			out = append(out, u)
		}
	}
	return out
}

// Leader returns team's living leader.
func (w *World) Leader(t Team) *Unit {
	for _, u := range w.Units {
		if u.Alive && u.Team == t && u.Role == agent.Leader {
			return u
		}
	}
	return nil
}

// AddUnit places a new agent. Units added mid-round act from the next
// round on.
func (w *World) AddUnit(t Team, role agent.Role, at grid.Loc, facing grid.Direction) (*Unit, error) {
	if !w.Free(at) {
		return nil, fmt.Errorf("%w: %s is occupied", ErrIllegal, at)
	}
	if len(w.Alive(t)) >= w.Params.MaxUnitsPerTeam {
		return nil, fmt.Errorf("%w: team %s is full", ErrIllegal, t)
	}
	if !facing.Valid() || facing == grid.Center {
		facing = grid.North
	}
	u := &Unit{
		ID:     w.nextID,
		Label:  fmt.Sprintf("%s%d", t, w.nextID),
		Team:   t,
		Role:   role,
		Loc:    at,
		Facing: facing,
		Health: w.Params.StartHealth,
		Alive:  true,
		Born:   w.Round,
	}
	w.nextID++
	u.env = &agentEnv{w: w, u: u}
	u.env.begin(w.Round)
	var log agent.Logger = w.Log
	if w.Thoughts != nil {
		log = &simlog.Tee{Log: w.Log, Thoughts: w.Thoughts, Mirror: []string{"fsm", "action", "nav", "budget"}}
	}
	u.ctx = agent.NewContext(u.env, w.teams[t].cfg, log, u.Label, t.String())
	u.machine = agent.NewMachine(role)
	w.Units = append(w.Units, u)
	return u, nil
}

// AddThreat places a threat.
func (w *World) AddThreat(at grid.Loc) (*Threat, error) {
	if !w.Free(at) {
		return nil, fmt.Errorf("%w: %s is occupied", ErrIllegal, at)
	}
	th := &Threat{ID: w.nextID, Loc: at}
	w.nextID++
	w.Threats = append(w.Threats, th)
	return th, nil
}

// Broadcast appends raw to team's broadcast log.
func (w *World) Broadcast(t Team, raw uint32) {
	ts := &w.teams[t]
	ts.seq++
	ts.log = append(ts.log, broadcast{Round: w.Round, Seq: ts.seq, Raw: raw})
}

// Step runs one round: every living unit takes a turn in a seeded random
// order, then threats move and strike.
func (w *World) Step() {
	order := w.rng.Perm(len(w.Units))
	for _, i := range order {
		u := w.Units[i]
		if !u.Alive || u.Born > w.Round {
			continue
		}
		if u.Slipped {
			u.Slipped = false
			w.Log.Add(w.Round, u.Label, u.Team.String(), "budget", "skipped", "turn lost to overspend", 0)
			continue
		}
		u.env.begin(w.Round)
		u.machine.Round(u.ctx)
		if u.env.over {
			u.Slipped = true
		}
		if u.promoted {
			w.crown(u)
		}
	}
	w.moveThreats()
	w.strike()
	w.pruneBroadcasts()
	w.Round++
}

// crown rebuilds a promoted unit's agent state for its new role. The
// fresh context gets a privileged table and makes the current cell home.
func (w *World) crown(u *Unit) {
	u.promoted = false
	old := u.ctx
	u.ctx = agent.NewContext(u.env, w.teams[u.Team].cfg, old.Log, u.Label, u.Team.String())
	u.ctx.Warns, u.ctx.Errs, u.ctx.Faults = old.Warns, old.Errs, old.Faults
	u.machine = agent.NewMachine(u.Role)
}

// moveThreats steps each threat toward the nearest unit it can sense, or
// in a random direction.
func (w *World) moveThreats() {
	for _, th := range w.Threats {
		var target *Unit
		best := -1
		for _, u := range w.Units {
			if !u.Alive {
				continue
			}
			d := th.Loc.DistSq(u.Loc)
			if d <= w.Params.ThreatRadiusSq && (best < 0 || d < best) {
				best, target = d, u
			}
		}
		var dir grid.Direction
		if target != nil {
			if th.Loc.Adjacent(target.Loc) {
				continue
			}
			dir = th.Loc.DirectionTo(target.Loc)
		} else {
			dir = grid.Direction(w.rng.Intn(8))
		}
		for _, d := range []grid.Direction{dir, dir.RotateLeft(), dir.RotateRight()} {
			if next := th.Loc.Add(d); w.Free(next) {
				th.Loc = next
				break
			}
		}
	}
}

// strike lets every threat damage one adjacent unit, the weakest first.
func (w *World) strike() {
	for _, th := range w.Threats {
		var victim *Unit
		for _, u := range w.Units {
			if !u.Alive || !th.Loc.Adjacent(u.Loc) {
				continue
			}
			if victim == nil || u.Health < victim.Health || (u.Health == victim.Health && u.ID < victim.ID) {
				victim = u
			}
		}
		if victim == nil {
			continue
		}
		victim.Health -= w.Params.ThreatDamage
		if victim.Health <= 0 {
			victim.Health = 0
			victim.Alive = false
			w.Log.Add(w.Round, victim.Label, victim.Team.String(), "sim", "death",
				fmt.Sprintf("%s killed at %s by threat %d", victim.Role, victim.Loc, th.ID), float64(victim.Carried))
			// Cargo is lost where the unit fell.
			w.SetResource(victim.Loc, w.Resource(victim.Loc)+victim.Carried)
			victim.Carried = 0
		}
	}
}

// pruneBroadcasts drops messages older than the read window.
func (w *World) pruneBroadcasts() {
	for i := range w.teams {
		ts := &w.teams[i]
		keep := ts.log[:0]
		for _, b := range ts.log {
			if b.Round >= w.Round {
				keep = append(keep, b)
			}
		}
		ts.log = keep
	}
}

// Snapshot is a JSON-friendly view of the world after a round.
type Snapshot struct {
	Round   int            `json:"round"`
	Stock   [2]int         `json:"stock"`
	Units   []UnitSnapshot `json:"units"`
	Threats [][2]int       `json:"threats"`
}

// UnitSnapshot is one unit's public state.
type UnitSnapshot struct {
	ID      int    `json:"id"`
	Team    string `json:"team"`
	Role    string `json:"role"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Health  int    `json:"hp"`
	Carried int    `json:"carried"`
	State   string `json:"state"`
}

// Snapshot captures the living units and threats.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{Round: w.Round, Stock: [2]int{w.teams[0].stock, w.teams[1].stock}}
	for _, u := range w.Units {
		if !u.Alive {
			continue
		}
		s.Units = append(s.Units, UnitSnapshot{
			ID: u.ID, Team: u.Team.String(), Role: u.Role.String(),
			X: u.Loc.X, Y: u.Loc.Y, Health: u.Health, Carried: u.Carried,
			State: u.machine.Current().String(),
		})
	}
	for _, th := range w.Threats {
		s.Threats = append(s.Threats, [2]int{th.Loc.X, th.Loc.Y})
	}
	return s
}
