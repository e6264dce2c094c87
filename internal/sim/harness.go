package sim

import (
	"github.com/Garsondee/Swarm-Sense/internal/agent"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
	"github.com/Garsondee/Swarm-Sense/internal/simlog"
)

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // map size, seed, params, configs
	simOptTerrain                    // walls and resources, after the world exists
	simOptUnit                       // leaders, workers and threats
)

// SimOption is a builder step applied by NewTestSim.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// TestSim is a headless world built from options, for tests and quick
// experiments.
type TestSim struct {
	*World

	w, h    int
	seed    int64
	params  Params
	cfg     [2]agent.Config
	verbose bool
	err     error
}

// WithMapSize sets the map dimensions.
func WithMapSize(w, h int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.w, ts.h = w, h }}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.seed = seed }}
}

// WithParams replaces the world rules.
func WithParams(p Params) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.params = p }}
}

// WithBudget sets the per-round compute budget.
func WithBudget(n int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.params.Budget = n }}
}

// WithConfig sets team's agent configuration.
func WithConfig(t Team, cfg agent.Config) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.cfg[t] = cfg }}
}

// WithVerbose keeps verbose log entries.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.verbose = v }}
}

// WithWall adds a wall cell.
func WithWall(x, y int) SimOption {
	return SimOption{simOptTerrain, func(ts *TestSim) { ts.SetWall(grid.Loc{X: x, Y: y}, true) }}
}

// WithWallColumn adds walls at x for y0..y1 inclusive.
func WithWallColumn(x, y0, y1 int) SimOption {
	return SimOption{simOptTerrain, func(ts *TestSim) {
		for y := y0; y <= y1; y++ {
			ts.SetWall(grid.Loc{X: x, Y: y}, true)
		}
	}}
}

// WithWallRow adds walls at y for x0..x1 inclusive.
func WithWallRow(y, x0, x1 int) SimOption {
	return SimOption{simOptTerrain, func(ts *TestSim) {
		for x := x0; x <= x1; x++ {
			ts.SetWall(grid.Loc{X: x, Y: y}, true)
		}
	}}
}

// WithResource places n units of resource at (x,y).
func WithResource(x, y, n int) SimOption {
	return SimOption{simOptTerrain, func(ts *TestSim) { ts.SetResource(grid.Loc{X: x, Y: y}, n) }}
}

// WithLeader adds team's leader at (x,y).
func WithLeader(t Team, x, y int) SimOption {
	return SimOption{simOptUnit, func(ts *TestSim) { ts.add(t, agent.Leader, x, y, grid.North) }}
}

// WithWorker adds a worker at (x,y) facing f.
func WithWorker(t Team, x, y int, f grid.Direction) SimOption {
	return SimOption{simOptUnit, func(ts *TestSim) { ts.add(t, agent.Worker, x, y, f) }}
}

// WithThreat adds a threat at (x,y).
func WithThreat(x, y int) SimOption {
	return SimOption{simOptUnit, func(ts *TestSim) {
		if _, err := ts.AddThreat(grid.Loc{X: x, Y: y}); err != nil && ts.err == nil {
			ts.err = err
		}
	}}
}

func (ts *TestSim) add(t Team, role agent.Role, x, y int, f grid.Direction) {
	if _, err := ts.AddUnit(t, role, grid.Loc{X: x, Y: y}, f); err != nil && ts.err == nil {
		ts.err = err
	}
}

// NewTestSim builds a world in three ordered passes: infrastructure,
// terrain, then units. Placement failures are kept in Err.
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		w:      30,
		h:      30,
		seed:   1,
		params: DefaultParams(),
		cfg:    [2]agent.Config{agent.DefaultConfig(), agent.DefaultConfig()},
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	w, err := NewWorld(ts.w, ts.h, ts.seed, ts.params, simlog.New(ts.verbose))
	if err != nil {
		ts.err = err
		w, _ = NewWorld(30, 30, ts.seed, ts.params, simlog.New(ts.verbose))
	}
	ts.World = w
	w.SetConfig(TeamA, ts.cfg[TeamA])
	w.SetConfig(TeamB, ts.cfg[TeamB])
	for _, kind := range []simOptionKind{simOptTerrain, simOptUnit} {
		for _, o := range opts {
			if o.kind == kind {
				o.fn(ts)
			}
		}
	}
	return ts
}

// Err is the first construction error.
func (ts *TestSim) Err() error { return ts.err }

// RunRounds advances n rounds.
func (ts *TestSim) RunRounds(n int) {
	for range n {
		ts.Step()
	}
}

// RunUntil advances up to maxRounds rounds, stopping when pred holds.
// It returns the round at which pred held, or -1.
func (ts *TestSim) RunUntil(pred func(*TestSim) bool, maxRounds int) int {
	for range maxRounds {
		ts.Step()
		if pred(ts) {
			return ts.Round
		}
	}
	return -1
}

// InjectBroadcast appends a raw message to team's broadcast log as if a
// unit had sent it this round.
func (ts *TestSim) InjectBroadcast(t Team, raw uint32) {
	ts.Broadcast(t, raw)
}

// UnitByLabel finds a unit, living or dead.
func (ts *TestSim) UnitByLabel(label string) *Unit {
	for _, u := range ts.Units {
		if u.Label == label {
			return u
		}
	}
	return nil
}
