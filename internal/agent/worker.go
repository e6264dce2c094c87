package agent

import (
	"github.com/Garsondee/Swarm-Sense/internal/grid"
	"github.com/Garsondee/Swarm-Sense/internal/nav"
)

// runCollect heads for the nearest known resource and collects it once
// adjacent.
func runCollect(c *Context) Result {
	if !c.Resource.Fresh(c.Round, c.Cfg.TTLResource) {
		return cant("no resource known")
	}
	target := c.Resource.Loc
	if c.Loc.Adjacent(target) {
		if err := c.Env.Collect(target); err != nil {
			if cell, seen := c.Env.SenseCell(target); seen && cell.Resource <= 0 {
				c.abandon(target)
				c.Resource.Valid = false
			}
			return cant(err.Error())
		}
		c.acted = true
		c.Carried = c.Env.Carried()
		c.log("action", "collect", target.String(), float64(c.Carried))
		return endOfTurn("collected")
	}
	if c.moved {
		return endOfTurn("already moved")
	}
	if c.Cfg.LeashRadius > 0 && c.AllyLeader.Valid {
		l := nav.NewLeash(c.AllyLeader.Loc, c.Cfg.LeashRadius)
		if !l.Contains(target) {
			c.log("nav", "leash", target.String(), c.Cfg.LeashRadius)
			c.abandon(target)
			c.Resource.Valid = false
			return cant("outside leash")
		}
		c.Nav.SetLeash(l)
	}
	c.Nav.AddInterest(c.Loc, target, c.Cfg.InterestWeight)
	if c.threatWithin(c.Cfg.DangerRadiusSq * 2) {
		c.Nav.AddDanger(c.Loc, c.Threat.Loc, c.Cfg.DangerWeight)
	}
	if !c.move(c.Nav.Toward(c.Env, target, c.Cfg.NavWeight)) {
		c.log("nav", "bug_fail", target.String(), float64(c.Nav.Bug.Depth()))
		return cant("blocked")
	}
	return endOfTurn("en route")
}

// runDeliver carries resources to the leader. While en route it locks so
// the next round resumes here right after Init.
func runDeliver(c *Context) Result {
	if c.Carried == 0 {
		return ok("empty")
	}
	target := c.Home
	known := c.AllyLeader.Fresh(c.Round, c.Cfg.TTLLeader)
	if known {
		target = c.AllyLeader.Loc
	}
	if known && c.Loc.Adjacent(target) {
		amount := c.Carried
		if err := c.Env.Deliver(target); err != nil {
			return cant(err.Error())
		}
		c.acted = true
		c.Carried = c.Env.Carried()
		c.log("action", "deliver", target.String(), float64(amount-c.Carried))
		return ok("delivered")
	}
	if !known && c.Loc == target {
		return cant("leader unknown")
	}
	if c.moved {
		return lock("already moved")
	}
	if c.threatWithin(c.Cfg.DangerRadiusSq) {
		c.Nav.AddDanger(c.Loc, c.Threat.Loc, c.Cfg.DangerWeight)
	}
	if !c.move(c.Nav.Toward(c.Env, target, c.Cfg.NavWeight)) {
		c.log("nav", "bug_fail", target.String(), float64(c.Nav.Bug.Depth()))
		return cant("blocked")
	}
	return lock("en route")
}

// runExplore wanders toward a far target derived from the spawn facing.
func runExplore(c *Context) Result {
	if c.moved {
		return ok("already moved")
	}
	target := c.exploreTarget()
	c.Nav.AddInterest(c.Loc, target, c.Cfg.ExploreWeight)
	c.Nav.AddSoftOrientation(c.Loc.DirectionTo(target), c.Cfg.SoftOrientationWeight)
	if c.threatWithin(c.Cfg.DangerRadiusSq * 2) {
		c.Nav.AddDanger(c.Loc, c.Threat.Loc, c.Cfg.DangerWeight)
	}
	if c.move(c.Nav.Next(c.Env)) {
		return ok("")
	}
	return cant("stuck")
}

// exploreTarget keeps the current target until it is reached or has been
// chased for RetargetRounds, then abandons it and picks the next edge
// point, rotating 135° each time.
func (c *Context) exploreTarget() grid.Loc {
	if c.hasExploreTarget {
		reached := c.Loc.DistSq(c.ExploreTarget) <= 2
		expired := c.Round-c.exploreSince >= c.Cfg.RetargetRounds
		if !reached && !expired {
			return c.ExploreTarget
		}
		c.abandon(c.ExploreTarget)
	}
	dir := c.exploreDir
	if dir == grid.Center || !dir.Valid() {
		dir = grid.Direction(c.Env.ID() % 8)
	}
	pick := c.edgePoint(dir)
	for range 8 {
		if !c.blacklisted(pick) && pick != c.Loc {
			break
		}
		dir = dir.Rotate(3)
		pick = c.edgePoint(dir)
	}
	c.exploreDir = dir.Rotate(3)
	c.ExploreTarget = pick
	c.hasExploreTarget = true
	c.exploreSince = c.Round
	return pick
}

// edgePoint projects from the current cell in dir to the map border.
func (c *Context) edgePoint(dir grid.Direction) grid.Loc {
	w, h := c.Env.MapWidth(), c.Env.MapHeight()
	return grid.Loc{
		X: min(max(c.Loc.X+dir.DX()*w, 0), w-1),
		Y: min(max(c.Loc.Y+dir.DY()*h, 0), h-1),
	}
}
