package agent

import (
	"errors"
	"fmt"

	"github.com/Garsondee/Swarm-Sense/internal/comms"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
)

// runInit refreshes perception and shared facts for the round.
func runInit(c *Context) Result {
	env := c.Env
	prev := c.LastInitRound
	c.Round = env.Round()
	c.LastInitRound = c.Round
	c.Loc = env.Location()
	c.Facing = env.Facing()
	c.Health = env.Health()
	c.Carried = env.Carried()
	c.Nav.Reset()
	c.Nav.SetLeash(nil)
	c.Table.Sync(c.Round)

	res := ok("")
	if prev >= 0 && c.Round-prev > 1 {
		c.logf("budget", "behind", float64(c.Round-prev-1), "skipped %d round(s)", c.Round-prev-1)
		res = warn("behind")
	}

	if !c.perceive() {
		c.log("budget", "warn", "perception truncated", float64(env.BudgetLeft()))
		res = warn("perception truncated")
	}
	c.readShared()
	c.asking = c.asking && leaderLost(c)

	if c.Role.Privileged() {
		if r := c.ingest(); r.Code != CodeOK {
			res = r
		}
	}
	return res
}

// perceive folds this round's sensing into the context. It returns false
// when the budget ran low before every entity and cell was looked at.
func (c *Context) perceive() bool {
	env := c.Env
	c.Seen = Perception{Round: c.Round}
	c.Seen.Entities = env.SenseNearby()

	threatD, enemyD, unitD, allyD := -1, -1, -1, -1
	threats := 0
	for _, e := range c.Seen.Entities {
		if c.lowBudget() {
			c.Seen.Truncated = true
			break
		}
		d := c.Loc.DistSq(e.Loc)
		seen := Sighting{Loc: e.Loc, ID: e.ID, Round: c.Round, Valid: true}
		switch {
		case e.Kind == KindThreat:
			threats++
			if threatD < 0 || d < threatD {
				threatD, c.Threat = d, seen
			}
		case e.Kind == KindLeader && e.Ally:
			if allyD < 0 || d < allyD {
				allyD, c.AllyLeader = d, seen
			}
		case e.Kind == KindLeader:
			if enemyD < 0 || d < enemyD {
				enemyD, c.EnemyLeader = d, seen
			}
		case !e.Ally:
			if unitD < 0 || d < unitD {
				unitD, c.EnemyUnit = d, seen
			}
		}
	}
	if threats > 0 {
		c.ThreatCount = threats
	}

	if c.Seen.Truncated {
		return false
	}
	c.Seen.Cells = env.SenseCells()
	resD := -1
	for _, cell := range c.Seen.Cells {
		if c.lowBudget() {
			c.Seen.Truncated = true
			return false
		}
		if cell.Resource <= 0 {
			if c.Resource.Valid && cell.Loc == c.Resource.Loc {
				c.abandon(cell.Loc)
				c.Resource.Valid = false
			}
			continue
		}
		if c.blacklisted(cell.Loc) {
			continue
		}
		if d := c.Loc.DistSq(cell.Loc); resD < 0 || d < resD {
			resD = d
			c.Resource = Sighting{Loc: cell.Loc, Round: c.Round, Valid: true}
		}
	}
	return true
}

// readShared merges stale-checked shared memory into the context. Local
// sightings win when they are at least as recent.
func (c *Context) readShared() {
	merge := func(dst *Sighting, rec comms.Record, ttl int) {
		loc, ok := c.Table.ReadLoc(rec, ttl)
		if !ok {
			return
		}
		age, _ := c.Table.RecordAge(rec)
		at := c.Round - age
		if dst.Valid && dst.Round >= at {
			return
		}
		*dst = Sighting{Loc: loc, Round: at, Valid: true}
	}
	merge(&c.AllyLeader, comms.RecLeader, c.Cfg.TTLLeader)
	merge(&c.EnemyLeader, comms.RecEnemyLeader, c.Cfg.TTLEnemyLeader)
	merge(&c.EnemyUnit, comms.RecEnemyUnit, c.Cfg.TTLEnemyUnit)
	if !c.Resource.Valid {
		merge(&c.Resource, comms.RecResource, c.Cfg.TTLResource)
		if c.Resource.Valid && c.blacklisted(c.Resource.Loc) {
			c.Resource.Valid = false
		}
	}
	before := c.Threat
	merge(&c.Threat, comms.RecThreat, c.Cfg.TTLThreat)
	if c.Threat != before {
		if n, ok := c.Table.Read(comms.SlotThreatCount, c.Cfg.TTLThreat); ok {
			c.ThreatCount = n
		}
	}
	if v, ok := c.Table.Read(comms.SlotMode, c.Cfg.TTLMode); ok {
		c.Mode = v
	}
}

// ingest folds this round's broadcasts into shared memory. Every anomaly
// is logged exactly once.
func (c *Context) ingest() Result {
	env := c.Env
	rep, err := comms.Ingest(c.Table, env.ReadBroadcasts(), comms.IngestOptions{
		MapW:    env.MapWidth(),
		MapH:    env.MapHeight(),
		Budget:  env.BudgetLeft,
		Reserve: c.Cfg.BudgetReserve,
	})
	if err != nil {
		return fail(err.Error())
	}
	res := ok("")
	for _, a := range rep.Anomalies {
		switch {
		case errors.Is(a.Err, comms.ErrUnknownType):
			c.logf("comms", "unknown_type", float64(a.Raw>>comms.TypeShift), "msg %d raw=%#08x", a.Index, a.Raw)
			res = fail("unknown message type")
		case errors.Is(a.Err, comms.ErrCorrupt):
			c.logf("comms", "corrupt_position", float64(a.Raw), "msg %d: %v", a.Index, a.Err)
		default:
			c.logf("comms", "bad_message", float64(a.Raw), "msg %d: %v", a.Index, a.Err)
		}
	}
	if rep.Asks > 0 {
		c.logf("comms", "ask_leader", float64(rep.Asks), "%d succession call(s)", rep.Asks)
	}
	if rep.Err != nil {
		c.log("comms", "write_error", rep.Err.Error(), 0)
	}
	if rep.Truncated {
		c.logf("comms", "ingest_truncated", float64(rep.Applied), "applied %d before budget ran low", rep.Applied)
		if res.Code == CodeOK {
			res = warn("ingest truncated")
		}
	}
	if rep.Applied > 0 {
		c.Table.Sync(c.Round)
		c.readShared()
	}
	return res
}

// runAvoidThreat steps away from a threat inside the danger radius.
func runAvoidThreat(c *Context) Result {
	radius := c.Cfg.DangerRadiusSq
	if c.Role == Leader {
		radius = c.Cfg.LeaderThreatRadiusSq
	}
	if !c.threatWithin(radius) {
		return ok("clear")
	}
	away := c.Threat.Loc.DirectionTo(c.Loc)
	if away == grid.Center {
		away = c.Facing.Opposite()
	}
	c.Nav.AddDanger(c.Loc, c.Threat.Loc, c.Cfg.DangerWeight)
	c.Nav.AddOrientation(away)
	if c.move(c.Nav.Next(c.Env)) {
		return ok("fled")
	}
	return cant("cornered")
}

// runEndTurn turns, forces a move if none happened, stages and flushes
// one broadcast, and yields.
func runEndTurn(c *Context) Result {
	env := c.Env
	res := ok("")

	if look := c.lookDirection(); look != grid.Center {
		c.turn(look)
	}
	if !c.moved && !c.acted && c.Role == Worker {
		c.move(c.Nav.Next(env))
	}

	if c.Role.Privileged() {
		c.Buffer.Reset()
	} else {
		c.stageFacts()
		if m, sent, err := c.Chan.Flush(env, c.Buffer); err != nil && !errors.Is(err, comms.ErrRateLimited) {
			c.logf("comms", "send_failed", 0, "%s: %v", m, err)
		} else if sent {
			c.Log.Add(c.Round, c.Label, c.Team, "comms", "sent", m.String(), float64(m.Type))
		}
		c.Buffer.Reset()
	}

	if env.Round() != c.LastInitRound {
		c.logf("budget", "behind", float64(env.Round()-c.LastInitRound), "init %d, ending in %d", c.LastInitRound, env.Round())
		res = warn("round slipped")
	}
	c.yield()
	return res
}

func (c *Context) lookDirection() grid.Direction {
	if c.Threat.Fresh(c.Round, 1) {
		return c.Loc.DirectionTo(c.Threat.Loc)
	}
	if c.moved {
		return c.LastLoc.DirectionTo(c.Loc)
	}
	return grid.Center
}

// stageFacts pushes what this agent saw this round, skipping facts the
// shared table already carries.
func (c *Context) stageFacts() {
	r := c.Round
	stage := func(t comms.MsgType, s Sighting, aux int, tier comms.Tier, rec comms.Record, ttl int) {
		if !s.Valid || s.Round != r {
			return
		}
		if loc, ok := c.Table.ReadLoc(rec, ttl); ok && loc == s.Loc {
			if age, _ := c.Table.RecordAge(rec); age*2 <= ttl {
				return
			}
		}
		c.Buffer.Push(comms.Message{Type: t, Loc: s.Loc, Aux: aux}, tier)
	}

	stage(comms.MsgResource, c.Resource, 0, comms.Routine, comms.RecResource, c.Cfg.TTLResource)
	stage(comms.MsgEnemyUnit, c.EnemyUnit, c.EnemyUnit.ID, comms.Important, comms.RecEnemyUnit, c.Cfg.TTLEnemyUnit)

	tier := comms.Important
	if r >= c.Cfg.CommitRound {
		tier = comms.Critical
	}
	stage(comms.MsgEnemyLeader, c.EnemyLeader, c.EnemyLeader.ID, tier, comms.RecEnemyLeader, c.Cfg.TTLEnemyLeader)

	tier = comms.Important
	if c.AllyLeader.Valid && c.Threat.Valid && c.Threat.Loc.DistSq(c.AllyLeader.Loc) <= c.Cfg.LeaderThreatRadiusSq {
		tier = comms.Critical
	}
	stage(comms.MsgThreat, c.Threat, c.ThreatCount, tier, comms.RecThreat, c.Cfg.TTLThreat)
}

func (c *Context) String() string {
	return fmt.Sprintf("%s %s@%s carried=%d hp=%d", c.Label, c.Role, c.Loc, c.Carried, c.Health)
}
