package sim

import (
	"fmt"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
	"github.com/Garsondee/Swarm-Sense/internal/comms"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
)

// Compute cost of each capability call, in budget units.
const (
	costQuery       = 2
	costAction      = 25
	costSense       = 40
	costPerEntity   = 15
	costPerCell     = 8
	costSenseOne    = 10
	costReadShared  = 4
	costWriteShared = 8
	costBroadcast   = 30
	costPerMessage  = 20
)

// agentEnv is one unit's view of the world.
type agentEnv struct {
	w *World
	u *Unit

	round  int
	budget int
	over   bool

	moved  bool
	turned bool
	acted  bool
	sent   bool

	lastSeq int
}

var _ agent.Env = (*agentEnv)(nil)

func (e *agentEnv) begin(round int) {
	e.round = round
	e.budget = e.w.Params.Budget
	e.over = false
	e.moved, e.turned, e.acted, e.sent = false, false, false, false
}

// charge spends budget. Overspending pushes the rest of the turn into the
// next round; the unit then loses that round's turn.
func (e *agentEnv) charge(n int) {
	e.budget -= n
	if e.budget >= 0 || e.over {
		return
	}
	e.over = true
	e.round++
	e.budget += e.w.Params.Budget
	e.w.Log.Add(e.w.Round, e.u.Label, e.u.Team.String(), "budget", "overspend",
		fmt.Sprintf("turn ran into round %d", e.round), float64(e.w.Params.Budget))
}

func (e *agentEnv) Round() int             { return e.round }
func (e *agentEnv) ID() int                { return e.u.ID }
func (e *agentEnv) Role() agent.Role       { return e.u.Role }
func (e *agentEnv) Location() grid.Loc     { return e.u.Loc }
func (e *agentEnv) Facing() grid.Direction { return e.u.Facing }
func (e *agentEnv) MapWidth() int          { return e.w.W }
func (e *agentEnv) MapHeight() int         { return e.w.H }
func (e *agentEnv) BudgetLeft() int        { return e.budget }

// Yield forfeits the rest of the budget.
func (e *agentEnv) Yield() { e.budget = 0 }

func (e *agentEnv) OnMap(l grid.Loc) bool {
	e.charge(costQuery)
	return e.w.OnMap(l)
}

func (e *agentEnv) CanMove(d grid.Direction) bool {
	e.charge(costQuery)
	if e.moved || d == grid.Center || !d.Valid() {
		return false
	}
	return e.w.Free(e.u.Loc.Add(d))
}

func (e *agentEnv) Move(d grid.Direction) error {
	e.charge(costAction)
	if e.moved {
		return fmt.Errorf("%w: already moved", ErrIllegal)
	}
	if d == grid.Center || !d.Valid() {
		return fmt.Errorf("%w: bad direction %d", ErrIllegal, d)
	}
	next := e.u.Loc.Add(d)
	if !e.w.Free(next) {
		return fmt.Errorf("%w: %s is blocked", ErrIllegal, next)
	}
	e.u.Loc = next
	e.moved = true
	e.w.Log.AddVerbose(e.w.Round, e.u.Label, e.u.Team.String(), "sim", "move", next.String(), float64(d))
	return nil
}

func (e *agentEnv) CanTurn() bool {
	e.charge(costQuery)
	return !e.turned
}

func (e *agentEnv) Turn(d grid.Direction) error {
	e.charge(costAction)
	if e.turned {
		return fmt.Errorf("%w: already turned", ErrIllegal)
	}
	if d == grid.Center || !d.Valid() {
		return fmt.Errorf("%w: bad direction %d", ErrIllegal, d)
	}
	e.u.Facing = d
	e.turned = true
	return nil
}

func (e *agentEnv) senseRadius() int {
	if e.u.Role == agent.Leader {
		return e.w.Params.LeaderSenseSq
	}
	return e.w.Params.WorkerSenseSq
}

func (e *agentEnv) SenseNearby() []agent.Entity {
	e.charge(costSense)
	r2 := e.senseRadius()
	var out []agent.Entity
	for _, u := range e.w.Units {
		if !u.Alive || u == e.u || e.u.Loc.DistSq(u.Loc) > r2 {
			continue
		}
		kind := agent.KindWorker
		if u.Role == agent.Leader {
			kind = agent.KindLeader
		}
		out = append(out, agent.Entity{ID: u.ID, Kind: kind, Loc: u.Loc, Ally: u.Team == e.u.Team, Health: u.Health})
	}
	for _, th := range e.w.Threats {
		if e.u.Loc.DistSq(th.Loc) <= r2 {
			out = append(out, agent.Entity{ID: th.ID, Kind: agent.KindThreat, Loc: th.Loc})
		}
	}
	e.charge(costPerEntity * len(out))
	return out
}

func (e *agentEnv) SenseCells() []agent.Cell {
	r2 := e.senseRadius()
	r := 0
	for (r+1)*(r+1) <= r2 {
		r++
	}
	here := e.u.Loc
	var out []agent.Cell
	for y := here.Y - r; y <= here.Y+r; y++ {
		for x := here.X - r; x <= here.X+r; x++ {
			l := grid.Loc{X: x, Y: y}
			if !e.w.OnMap(l) || here.DistSq(l) > r2 {
				continue
			}
			out = append(out, agent.Cell{Loc: l, Wall: e.w.Wall(l), Resource: e.w.Resource(l)})
		}
	}
	e.charge(costPerCell * len(out))
	return out
}

func (e *agentEnv) SenseCell(l grid.Loc) (agent.Cell, bool) {
	e.charge(costSenseOne)
	if !e.w.OnMap(l) || e.u.Loc.DistSq(l) > e.senseRadius() {
		return agent.Cell{}, false
	}
	return agent.Cell{Loc: l, Wall: e.w.Wall(l), Resource: e.w.Resource(l)}, true
}

func (e *agentEnv) Collect(l grid.Loc) error {
	e.charge(costAction)
	switch {
	case e.acted:
		return fmt.Errorf("%w: already acted", ErrIllegal)
	case !e.u.Loc.Adjacent(l):
		return fmt.Errorf("%w: %s not adjacent", ErrIllegal, l)
	case e.w.Resource(l) <= 0:
		return fmt.Errorf("%w: %s has no resource", ErrIllegal, l)
	case e.u.Carried >= e.w.Params.CarryCap:
		return fmt.Errorf("%w: carrying %d", ErrIllegal, e.u.Carried)
	}
	e.w.SetResource(l, e.w.Resource(l)-1)
	e.u.Carried++
	e.acted = true
	e.w.teams[e.u.Team].collected++
	return nil
}

func (e *agentEnv) Deliver(l grid.Loc) error {
	e.charge(costAction)
	leader := e.w.Leader(e.u.Team)
	switch {
	case e.acted:
		return fmt.Errorf("%w: already acted", ErrIllegal)
	case e.u.Carried == 0:
		return fmt.Errorf("%w: nothing carried", ErrIllegal)
	case leader == nil || leader.Loc != l || leader == e.u:
		return fmt.Errorf("%w: no leader at %s", ErrIllegal, l)
	case !e.u.Loc.Adjacent(l):
		return fmt.Errorf("%w: %s not adjacent", ErrIllegal, l)
	}
	ts := &e.w.teams[e.u.Team]
	ts.stock += e.u.Carried
	ts.delivered += e.u.Carried
	e.u.Carried = 0
	e.acted = true
	return nil
}

func (e *agentEnv) Spawn(d grid.Direction) error {
	e.charge(costAction)
	ts := &e.w.teams[e.u.Team]
	switch {
	case e.u.Role != agent.Leader:
		return fmt.Errorf("%w: only leaders spawn", ErrIllegal)
	case e.acted:
		return fmt.Errorf("%w: already acted", ErrIllegal)
	case ts.stock < e.w.Params.SpawnCost:
		return fmt.Errorf("%w: stock %d below %d", ErrIllegal, ts.stock, e.w.Params.SpawnCost)
	case d == grid.Center || !d.Valid():
		return fmt.Errorf("%w: bad direction %d", ErrIllegal, d)
	}
	u, err := e.w.AddUnit(e.u.Team, agent.Worker, e.u.Loc.Add(d), d)
	if err != nil {
		return err
	}
	u.Born = e.w.Round + 1
	ts.stock -= e.w.Params.SpawnCost
	ts.spawned++
	e.acted = true
	e.w.Log.Add(e.w.Round, u.Label, u.Team.String(), "sim", "spawn", fmt.Sprintf("by %s at %s", e.u.Label, u.Loc), float64(ts.stock))
	return nil
}

// Promote makes this worker its team's leader. The team must have no
// living leader, enough stock and a quorum of allies close by. Cargo the
// worker carries is banked first.
func (e *agentEnv) Promote() error {
	e.charge(costAction)
	ts := &e.w.teams[e.u.Team]
	switch {
	case e.u.Role != agent.Worker:
		return fmt.Errorf("%w: only workers are promoted", ErrIllegal)
	case e.acted:
		return fmt.Errorf("%w: already acted", ErrIllegal)
	case e.w.Leader(e.u.Team) != nil:
		return fmt.Errorf("%w: team %s has a leader", ErrIllegal, e.u.Team)
	case ts.stock+e.u.Carried < e.w.Params.PromoteCost:
		return fmt.Errorf("%w: stock %d below %d", ErrIllegal, ts.stock+e.u.Carried, e.w.Params.PromoteCost)
	}
	near, others := 0, 0
	for _, u := range e.w.Alive(e.u.Team) {
		if u == e.u {
			continue
		}
		others++
		if e.u.Loc.DistSq(u.Loc) <= e.w.Params.PromoteRangeSq {
			near++
		}
	}
	if need := min(e.w.Params.PromoteQuorum, others); near < need {
		return fmt.Errorf("%w: %d of %d allies close by", ErrIllegal, near, need)
	}
	ts.stock += e.u.Carried
	ts.delivered += e.u.Carried
	e.u.Carried = 0
	ts.stock -= e.w.Params.PromoteCost
	e.u.Role = agent.Leader
	e.u.promoted = true
	e.acted = true
	e.w.Log.Add(e.w.Round, e.u.Label, e.u.Team.String(), "sim", "promote", fmt.Sprintf("%s at %s", e.u.Label, e.u.Loc), float64(ts.stock))
	return nil
}

func (e *agentEnv) Carried() int {
	e.charge(costQuery)
	return e.u.Carried
}

func (e *agentEnv) Health() int {
	e.charge(costQuery)
	return e.u.Health
}

func (e *agentEnv) TeamStock() int {
	e.charge(costQuery)
	return e.w.teams[e.u.Team].stock
}

func (e *agentEnv) ReadShared(i int) int {
	e.charge(costReadShared)
	if i < 0 || i >= comms.SlotCount {
		return 0
	}
	return e.w.teams[e.u.Team].shared[i]
}

func (e *agentEnv) WriteShared(i, v int) error {
	e.charge(costWriteShared)
	switch {
	case e.u.Role != agent.Leader:
		return fmt.Errorf("%w: only leaders write shared memory", ErrIllegal)
	case i < 0 || i >= comms.SlotCount:
		return fmt.Errorf("slot %d: %w", i, comms.ErrOutOfRange)
	case v < 0 || v > comms.SlotMax:
		return fmt.Errorf("value %d: %w", v, comms.ErrOutOfRange)
	}
	e.w.teams[e.u.Team].shared[i] = v
	return nil
}

func (e *agentEnv) Broadcast(raw uint32) error {
	e.charge(costBroadcast)
	if e.sent {
		return fmt.Errorf("%w: already broadcast", ErrIllegal)
	}
	e.sent = true
	e.w.Broadcast(e.u.Team, raw)
	return nil
}

// ReadBroadcasts returns the team's messages from this and the previous
// round that this leader has not consumed yet.
func (e *agentEnv) ReadBroadcasts() []uint32 {
	if e.u.Role != agent.Leader {
		e.charge(costQuery)
		return nil
	}
	var out []uint32
	for _, b := range e.w.teams[e.u.Team].log {
		if b.Seq <= e.lastSeq || b.Round < e.w.Round-1 {
			continue
		}
		out = append(out, b.Raw)
		e.lastSeq = b.Seq
	}
	e.charge(costQuery + costPerMessage*len(out))
	return out
}
