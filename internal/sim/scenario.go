package sim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
	"github.com/Garsondee/Swarm-Sense/internal/simlog"
)

// Scenario builds a starting world.
type Scenario struct {
	Name        string
	Description string
	W, H        int
	build       func(w *World, rng *rand.Rand) error
}

var scenarios = map[string]Scenario{
	"open-field": {
		Name:        "open-field",
		Description: "open 40x40 map, scattered resource patches, three threats",
		W:           40,
		H:           40,
		build:       buildOpenField,
	},
	"walls": {
		Name:        "walls",
		Description: "40x40 map split by gapped walls, resources behind them",
		W:           40,
		H:           40,
		build:       buildWalls,
	},
	"maze": {
		Name:        "maze",
		Description: "41x41 braided maze, resources in dead ends",
		W:           41,
		H:           41,
		build:       buildMaze,
	},
}

// Scenarios lists the scenario names in sorted order.
func Scenarios() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupScenario returns the named scenario.
func LookupScenario(name string) (Scenario, bool) {
	s, ok := scenarios[name]
	return s, ok
}

// Build creates the scenario's world.
func (s Scenario) Build(seed int64, params Params, cfgA, cfgB agent.Config, opts ...BuildOption) (*World, error) {
	var bo buildOptions
	for _, o := range opts {
		o(&bo)
	}
	w, err := NewWorld(s.W, s.H, seed, params, bo.log)
	if err != nil {
		return nil, err
	}
	w.Thoughts = bo.thoughts
	w.SetConfig(TeamA, cfgA)
	w.SetConfig(TeamB, cfgB)
	rng := rand.New(rand.NewSource(seed ^ 0x5eed)) // #nosec G404 -- map layout
	if err := s.build(w, rng); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return w, nil
}

// placeTeams puts each leader at its spawn point with workers around it,
// facing toward the map centre.
func placeTeams(w *World, a, b grid.Loc, workers int) error {
	centre := grid.Loc{X: w.W / 2, Y: w.H / 2}
	for t, home := range []grid.Loc{a, b} {
		team := Team(t)
		facing := home.DirectionTo(centre)
		if _, err := w.AddUnit(team, agent.Leader, home, facing); err != nil {
			return fmt.Errorf("leader %s: %w", team, err)
		}
		placed := 0
		for i := 0; i < 8 && placed < workers; i++ {
			d := facing.Rotate(i)
			at := home.Add(d)
			if !w.Free(at) {
				continue
			}
			if _, err := w.AddUnit(team, agent.Worker, at, d); err != nil {
				return err
			}
			placed++
		}
	}
	return nil
}

// scatter drops n resource patches of the given amount on free cells.
func scatter(w *World, rng *rand.Rand, n, amount int, keepAway ...grid.Loc) {
	for placed, tries := 0, 0; placed < n && tries < n*50; tries++ {
		l := grid.Loc{X: rng.Intn(w.W), Y: rng.Intn(w.H)}
		if w.Wall(l) || w.Resource(l) > 0 {
			continue
		}
		near := false
		for _, k := range keepAway {
			if l.DistSq(k) < 36 {
				near = true
				break
			}
		}
		if near {
			continue
		}
		w.SetResource(l, amount)
		placed++
	}
}

func addThreats(w *World, rng *rand.Rand, n int, keepAway ...grid.Loc) {
	for placed, tries := 0, 0; placed < n && tries < n*50; tries++ {
		l := grid.Loc{X: rng.Intn(w.W), Y: rng.Intn(w.H)}
		near := false
		for _, k := range keepAway {
			if l.DistSq(k) < 100 {
				near = true
				break
			}
		}
		if near || !w.Free(l) {
			continue
		}
		if _, err := w.AddThreat(l); err == nil {
			placed++
		}
	}
}

func buildOpenField(w *World, rng *rand.Rand) error {
	a := grid.Loc{X: 4, Y: w.H / 2}
	b := grid.Loc{X: w.W - 5, Y: w.H / 2}
	scatter(w, rng, 18, 15, a, b)
	if err := placeTeams(w, a, b, 3); err != nil {
		return err
	}
	addThreats(w, rng, 3, a, b)
	return nil
}

func buildWalls(w *World, rng *rand.Rand) error {
	for _, x := range []int{w.W / 3, 2 * w.W / 3} {
		gap := 3 + rng.Intn(w.H-6)
		for y := 2; y < w.H-2; y++ {
			if y >= gap && y < gap+3 {
				continue
			}
			w.SetWall(grid.Loc{X: x, Y: y}, true)
		}
	}
	for y := w.H / 4; y < 3*w.H/4; y++ {
		w.SetWall(grid.Loc{X: w.W / 2, Y: y}, true)
	}
	a := grid.Loc{X: 4, Y: w.H / 2}
	b := grid.Loc{X: w.W - 5, Y: w.H / 2}
	scatter(w, rng, 20, 15, a, b)
	if err := placeTeams(w, a, b, 3); err != nil {
		return err
	}
	addThreats(w, rng, 2, a, b)
	return nil
}

// buildMaze carves a depth-first maze, then knocks out extra walls so the
// maze has loops and room for two swarms.
func buildMaze(w *World, rng *rand.Rand) error {
	for y := 0; y < w.H; y++ {
		for x := 0; x < w.W; x++ {
			w.SetWall(grid.Loc{X: x, Y: y}, true)
		}
	}
	steps := []grid.Loc{{X: 0, Y: -2}, {X: 0, Y: 2}, {X: -2, Y: 0}, {X: 2, Y: 0}}
	var visit func(l grid.Loc)
	visit = func(l grid.Loc) {
		w.SetWall(l, false)
		order := rng.Perm(len(steps))
		for _, i := range order {
			n := grid.Loc{X: l.X + steps[i].X, Y: l.Y + steps[i].Y}
			if n.X <= 0 || n.Y <= 0 || n.X >= w.W-1 || n.Y >= w.H-1 || !w.Wall(n) {
				continue
			}
			w.SetWall(grid.Loc{X: l.X + steps[i].X/2, Y: l.Y + steps[i].Y/2}, false)
			visit(n)
		}
	}
	visit(grid.Loc{X: 1, Y: 1})

	for i := 0; i < w.W*w.H/12; i++ {
		l := grid.Loc{X: 1 + rng.Intn(w.W-2), Y: 1 + rng.Intn(w.H-2)}
		w.SetWall(l, false)
	}

	a := grid.Loc{X: 1, Y: 1}
	b := grid.Loc{X: w.W - 2, Y: w.H - 2}
	for _, home := range []grid.Loc{a, b} {
		for _, d := range grid.Compass {
			w.SetWall(home.Add(d), false)
		}
	}
	for y := 1; y < w.H-1; y++ {
		for x := 1; x < w.W-1; x++ {
			l := grid.Loc{X: x, Y: y}
			if w.Wall(l) || l.DistSq(a) < 36 || l.DistSq(b) < 36 {
				continue
			}
			open := 0
			for _, d := range []grid.Direction{grid.North, grid.East, grid.South, grid.West} {
				if !w.Wall(l.Add(d)) {
					open++
				}
			}
			if open == 1 {
				w.SetResource(l, 10)
			}
		}
	}
	if err := placeTeams(w, a, b, 3); err != nil {
		return err
	}
	addThreats(w, rng, 2, a, b)
	return nil
}

// BuildOption tweaks Scenario.Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	log      *simlog.Log
	thoughts *simlog.Thoughts
}

// WithLog records the match into log.
func WithLog(log *simlog.Log) BuildOption {
	return func(o *buildOptions) { o.log = log }
}

// WithThoughts mirrors agent events into a thought ring for a viewer.
func WithThoughts(t *simlog.Thoughts) BuildOption {
	return func(o *buildOptions) { o.thoughts = t }
}
