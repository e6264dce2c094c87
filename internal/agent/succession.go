package agent

import (
	"github.com/Garsondee/Swarm-Sense/internal/comms"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
)

// leaderLost reports whether a worker that once knew its leader has not
// seen or heard of it for longer than the leader TTL plus the succession
// grace.
func leaderLost(c *Context) bool {
	return c.Role == Worker && c.AllyLeader.Valid &&
		c.Round-c.AllyLeader.Round > c.Cfg.TTLLeader+c.Cfg.SuccessionRounds
}

// rallyPoint is where workers gather to choose a successor: the rally
// record the leader last published, else the leader's last known cell.
func (c *Context) rallyPoint() grid.Loc {
	if loc, ok := c.Table.ReadLoc(comms.RecRally, comms.Wrap-1); ok {
		return loc
	}
	return c.AllyLeader.Loc
}

// runAskLeader calls for a successor once the leader has gone quiet.
func runAskLeader(c *Context) Result {
	rally := c.rallyPoint()
	if !c.asking {
		c.asking = true
		c.logf("fsm", "leader_lost", float64(c.Round-c.AllyLeader.Round), "last seen round %d, rally %s", c.AllyLeader.Round, rally)
	}
	c.Buffer.Push(comms.Message{Type: comms.MsgAskLeader, Loc: rally, Aux: c.Env.ID()}, comms.Critical)
	return ok("asked")
}

// runBecomeLeader walks to the rally point and asks the world to promote
// this worker. Blocked workers try from where they stand.
func runBecomeLeader(c *Context) Result {
	if !leaderLost(c) {
		c.asking = false
		return ok("leader back")
	}
	rally := c.rallyPoint()
	if c.Loc.DistSq(rally) > 2 && !c.moved {
		if c.move(c.Nav.Toward(c.Env, rally, c.Cfg.NavWeight)) {
			return endOfTurn("rallying")
		}
	}
	if err := c.Env.Promote(); err != nil {
		c.acted = true
		return cant(err.Error())
	}
	c.acted = true
	c.asking = false
	c.log("fsm", "promoted", c.Loc.String(), float64(c.Round))
	return endOfTurn("promoted")
}
