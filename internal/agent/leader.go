package agent

import (
	"github.com/Garsondee/Swarm-Sense/internal/comms"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
)

// runLeaderWatch publishes the leader's own position and what it saw this
// round into shared memory.
func runLeaderWatch(c *Context) Result {
	res := ok("")
	report := func(rec comms.Record, err error) {
		if err != nil {
			c.logf("comms", "write_error", float64(rec), "%s: %v", rec, err)
			res = cant("write failed")
		}
	}

	changed, err := c.Table.WriteLoc(comms.RecLeader, c.Loc)
	if err == nil && !changed {
		if age, ok := c.Table.RecordAge(comms.RecLeader); !ok || age*2 >= c.Cfg.TTLLeader {
			err = c.Table.Refresh(comms.RecLeader)
		}
	}
	report(comms.RecLeader, err)

	changed, err = c.Table.WriteLoc(comms.RecRally, c.Home)
	if err == nil && !changed {
		if age, ok := c.Table.RecordAge(comms.RecRally); !ok || age >= comms.Wrap/2 {
			err = c.Table.Refresh(comms.RecRally)
		}
	}
	report(comms.RecRally, err)

	publish := func(rec comms.Record, s Sighting) {
		if !s.Valid || s.Round != c.Round {
			return
		}
		changed, err := c.Table.WriteLoc(rec, s.Loc)
		if err == nil && !changed {
			err = c.Table.Refresh(rec)
		}
		report(rec, err)
	}
	publish(comms.RecEnemyLeader, c.EnemyLeader)
	publish(comms.RecEnemyUnit, c.EnemyUnit)
	publish(comms.RecResource, c.Resource)

	if c.Threat.Valid && c.Threat.Round == c.Round {
		changed, err := c.Table.WriteThreat(c.Threat.Loc, min(c.ThreatCount, comms.SlotMax))
		if err == nil && !changed {
			err = c.Table.Refresh(comms.RecThreat)
		}
		report(comms.RecThreat, err)
	}

	mode := comms.ModeEconomy
	if c.Round >= c.Cfg.CommitRound {
		mode = comms.ModeCommit
	}
	changed, err = c.Table.Write(comms.SlotMode, mode)
	if err == nil && !changed {
		if age, ok := c.Table.RecordAge(comms.RecMode); !ok || age*2 >= c.Cfg.TTLMode {
			err = c.Table.Refresh(comms.RecMode)
		}
	}
	report(comms.RecMode, err)
	c.Mode = mode
	return res
}

// runSpawn spends team stock on a new worker next to the leader.
func runSpawn(c *Context) Result {
	if c.Env.TeamStock() < c.Cfg.SpawnCost+c.Cfg.SpawnReserve {
		return cant("stock")
	}
	start := c.Facing
	if start == grid.Center || !start.Valid() {
		start = grid.North
	}
	for i := range 8 {
		if c.lowBudget() {
			return warn("budget")
		}
		d := start.Rotate(i)
		if err := c.Env.Spawn(d); err != nil {
			continue
		}
		c.acted = true
		c.logf("action", "spawn", float64(c.Env.TeamStock()), "%s at %s", d, c.Loc.Add(d))
		return ok("spawned")
	}
	return cant("no room")
}
