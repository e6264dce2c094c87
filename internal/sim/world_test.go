package sim

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
)

func TestNewWorld_RejectsBadSize(t *testing.T) {
	for _, wh := range [][2]int{{2, 10}, {10, 2}, {MaxMapDim + 1, 10}} {
		if _, err := NewWorld(wh[0], wh[1], 1, DefaultParams(), nil); err == nil {
			t.Fatalf("%dx%d accepted", wh[0], wh[1])
		}
	}
}

func TestWorld_Placement(t *testing.T) {
	ts := mustSim(t, WithWall(5, 5), WithThreat(7, 7), WithLeader(TeamB, 9, 9))

	if !ts.Wall(grid.Loc{X: -1, Y: 0}) {
		t.Fatal("off-map cells should count as walls")
	}
	for _, l := range []grid.Loc{{X: 5, Y: 5}, {X: 7, Y: 7}, {X: 9, Y: 9}} {
		if _, err := ts.AddUnit(TeamA, agent.Worker, l, grid.North); !errors.Is(err, ErrIllegal) {
			t.Fatalf("placing on %s: err = %v, want ErrIllegal", l, err)
		}
	}
	if ts.Leader(TeamB) == nil || ts.Leader(TeamA) != nil {
		t.Fatal("leader lookup wrong")
	}
}

func TestWorld_TeamCap(t *testing.T) {
	p := DefaultParams()
	p.MaxUnitsPerTeam = 2
	ts := mustSim(t, WithParams(p), WithWorker(TeamA, 1, 1, grid.North), WithWorker(TeamA, 3, 1, grid.North))
	if _, err := ts.AddUnit(TeamA, agent.Worker, grid.Loc{X: 5, Y: 1}, grid.North); !errors.Is(err, ErrIllegal) {
		t.Fatalf("third unit: err = %v, want ErrIllegal", err)
	}
	if _, err := ts.AddUnit(TeamB, agent.Worker, grid.Loc{X: 5, Y: 1}, grid.North); err != nil {
		t.Fatalf("other team should not be capped: %v", err)
	}
}

func TestHarness_ReportsPlacementError(t *testing.T) {
	ts := NewTestSim(WithWall(4, 4), WithWorker(TeamA, 4, 4, grid.North))
	if !errors.Is(ts.Err(), ErrIllegal) {
		t.Fatalf("Err() = %v, want ErrIllegal", ts.Err())
	}
}

func TestFindPath(t *testing.T) {
	ts := mustSim(t, WithMapSize(12, 12), WithWallColumn(5, 0, 9))

	direct := ts.FindPath(grid.Loc{X: 1, Y: 1}, grid.Loc{X: 4, Y: 4})
	if len(direct) != 4 {
		t.Fatalf("diagonal path len = %d, want 4: %v", len(direct), direct)
	}

	from, to := grid.Loc{X: 2, Y: 2}, grid.Loc{X: 8, Y: 2}
	path := ts.FindPath(from, to)
	if path == nil {
		t.Fatal("no path around the wall")
	}
	if path[0] != from || path[len(path)-1] != to {
		t.Fatalf("path endpoints %s..%s", path[0], path[len(path)-1])
	}
	for i := 1; i < len(path); i++ {
		if !path[i-1].Adjacent(path[i]) || ts.Wall(path[i]) {
			t.Fatalf("bad step %s -> %s", path[i-1], path[i])
		}
	}
	// Up to y=10, across, and back down.
	if len(path)-1 != 16 {
		t.Fatalf("path steps = %d, want 16", len(path)-1)
	}

	ts.SetWall(grid.Loc{X: 5, Y: 10}, true)
	ts.SetWall(grid.Loc{X: 5, Y: 11}, true)
	if ts.Reachable(from, to) {
		t.Fatal("sealed wall should make the target unreachable")
	}
}

func TestDetermineOutcome(t *testing.T) {
	t.Run("leader loss decides", func(t *testing.T) {
		ts := mustSim(t, WithLeader(TeamA, 2, 2), WithLeader(TeamB, 20, 20))
		ts.Leader(TeamB).Alive = false
		ts.teams[TeamB].delivered = 500
		out := DetermineOutcome(ts.World)
		if out.Result != ResultTeamA || out.Description != "team_b_leader_lost" {
			t.Fatalf("outcome = %s/%s", out.Result, out.Description)
		}
		if out.Teams[TeamB].Dead != 1 {
			t.Fatalf("team B dead = %d", out.Teams[TeamB].Dead)
		}
	})

	t.Run("score decides", func(t *testing.T) {
		ts := mustSim(t, WithLeader(TeamA, 2, 2), WithLeader(TeamB, 20, 20))
		ts.teams[TeamA].delivered = 30
		ts.teams[TeamB].delivered = 10
		ts.teams[TeamB].spawned = 1
		out := DetermineOutcome(ts.World)
		if out.Result != ResultTeamB || out.Description != "score_60_to_30" {
			t.Fatalf("outcome = %s/%s", out.Result, out.Description)
		}
	})

	t.Run("nothing delivered", func(t *testing.T) {
		ts := mustSim(t, WithLeader(TeamA, 2, 2), WithLeader(TeamB, 20, 20))
		if out := DetermineOutcome(ts.World); out.Result != ResultInconclusive {
			t.Fatalf("outcome = %s", out.Result)
		}
	})

	t.Run("tie", func(t *testing.T) {
		ts := mustSim(t, WithLeader(TeamA, 2, 2), WithLeader(TeamB, 20, 20))
		ts.teams[TeamA].delivered = 7
		ts.teams[TeamB].delivered = 7
		if out := DetermineOutcome(ts.World); out.Result != ResultDraw {
			t.Fatalf("outcome = %s", out.Result)
		}
	})
}

func TestTrace_RoundTrip(t *testing.T) {
	ts := mustSim(t,
		WithLeader(TeamA, 3, 3),
		WithWorker(TeamA, 4, 3, grid.East),
		WithThreat(20, 20),
	)
	path := filepath.Join(t.TempDir(), "traces", "run.jsonl.zst")
	tw, err := NewTraceWriter(path)
	if err != nil {
		t.Fatalf("NewTraceWriter: %v", err)
	}
	for range 5 {
		ts.Step()
		if err := tw.WriteRound(ts.World); err != nil {
			t.Fatalf("WriteRound: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	snaps, err := ReadTrace(path)
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}
	if len(snaps) != 5 {
		t.Fatalf("snapshots = %d, want 5", len(snaps))
	}
	for i, s := range snaps {
		if s.Round != i+1 {
			t.Fatalf("snapshot %d round = %d", i, s.Round)
		}
		if len(s.Units) != 2 || len(s.Threats) != 1 {
			t.Fatalf("snapshot %d: %d units %d threats", i, len(s.Units), len(s.Threats))
		}
	}
	if snaps[0].Units[0].Role != agent.Leader.String() {
		t.Fatalf("first unit role = %q", snaps[0].Units[0].Role)
	}
}

func TestResultsIndex_RecordAndQuery(t *testing.T) {
	ctx := context.Background()
	ix, err := OpenResultsIndex(filepath.Join(t.TempDir(), "db", "runs.sqlite"))
	if err != nil {
		t.Fatalf("OpenResultsIndex: %v", err)
	}
	defer ix.Close()

	first := Outcome{Rounds: 100, Result: ResultTeamA, Description: "score_12_to_3", Remaining: 9}
	first.Teams[TeamA] = TeamOutcome{Stock: 12, Collected: 14, Delivered: 12, Spawned: 1, Alive: 4, Dead: 1, Warns: 2, Faults: 1, LeaderUp: true}
	first.Teams[TeamB] = TeamOutcome{Stock: 3, Collected: 5, Delivered: 3, Alive: 3, Dead: 2, Errs: 1, Warns: 7}
	id, err := ix.Record(ctx, RunRecord{Scenario: "open-field", Preset: "default", Seed: 7, Outcome: first})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id <= 0 {
		t.Fatalf("row id = %d", id)
	}
	if _, err := ix.Record(ctx, RunRecord{Scenario: "maze", Preset: "cautious", Seed: 8, Outcome: Outcome{Result: ResultDraw}}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	all, err := ix.Runs(ctx, "")
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("runs = %d, want 2", len(all))
	}
	open, err := ix.Runs(ctx, "open-field")
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open-field runs = %d, want 1", len(open))
	}
	r := open[0]
	if r.ID != id || r.Seed != 7 || r.Preset != "default" || r.RecordedAt.IsZero() {
		t.Fatalf("record = %+v", r)
	}
	if r.Outcome.Result != ResultTeamA || r.Outcome.Description != "score_12_to_3" || r.Outcome.Rounds != 100 {
		t.Fatalf("outcome = %+v", r.Outcome)
	}
	if r.Outcome != first {
		t.Fatalf("outcome round trip:\n got %+v\nwant %+v", r.Outcome, first)
	}
	if all[1].Outcome.Result != ResultDraw {
		t.Fatalf("second run result = %s", all[1].Outcome.Result)
	}
}

func TestReporter_Window(t *testing.T) {
	ts := mustSim(t,
		WithLeader(TeamA, 3, 3),
		WithWorker(TeamA, 4, 3, grid.East),
		WithWorker(TeamB, 20, 20, grid.West),
	)
	rep := NewReporter(10)
	if rep.WindowSummary() != nil || rep.Latest() != nil {
		t.Fatal("empty reporter should have no summary")
	}
	if !strings.Contains((*WindowReport)(nil).Format(), "No data") {
		t.Fatal("nil report should format as empty")
	}
	for range 30 {
		ts.Step()
		rep.Collect(ts.World)
	}
	if len(rep.History()) != 30 {
		t.Fatalf("history = %d", len(rep.History()))
	}
	wr := rep.WindowSummary()
	if wr.SampleCount != 11 || wr.FromRound != 20 || wr.ToRound != 30 {
		t.Fatalf("window = %d..%d (%d samples)", wr.FromRound, wr.ToRound, wr.SampleCount)
	}
	if wr.Teams[TeamA].AvgAlive != 2 || wr.Teams[TeamB].AvgAlive != 1 {
		t.Fatalf("avg alive = %.1f/%.1f", wr.Teams[TeamA].AvgAlive, wr.Teams[TeamB].AvgAlive)
	}
	total := 0.0
	for _, pct := range wr.Teams[TeamA].StatePct {
		total += pct
	}
	if total < 99.9 || total > 100.1 {
		t.Fatalf("state percentages sum to %.2f", total)
	}
	if out := wr.Format(); !strings.Contains(out, "Team A State Distribution") {
		t.Fatalf("format missing team section:\n%s", out)
	}
}

func TestRunMatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ix, err := OpenResultsIndex(filepath.Join(dir, "runs.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	res, err := RunMatch(ctx, MatchConfig{
		Scenario:  "open-field",
		Preset:    "default",
		Seed:      5,
		Rounds:    60,
		Params:    DefaultParams(),
		ConfigA:   agent.DefaultConfig(),
		ConfigB:   agent.DefaultConfig(),
		TracePath: filepath.Join(dir, "run.jsonl.zst"),
		Index:     ix,
	})
	if err != nil {
		t.Fatalf("RunMatch: %v", err)
	}
	if res.Outcome.Rounds != 60 {
		t.Fatalf("rounds = %d, want 60", res.Outcome.Rounds)
	}
	if !res.Log.HasEntry("sim", "outcome", res.Outcome.Description) {
		t.Fatal("missing sim/outcome entry")
	}
	if res.Reporter.Latest() == nil || res.Reporter.Latest().Round != 60 {
		t.Fatal("reporter missed the final round")
	}
	snaps, err := ReadTrace(filepath.Join(dir, "run.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 60 {
		t.Fatalf("trace has %d rounds, want 60", len(snaps))
	}
	runs, err := ix.Runs(ctx, "open-field")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Seed != 5 {
		t.Fatalf("indexed runs = %+v", runs)
	}
}

func TestRunMatch_UnknownScenario(t *testing.T) {
	_, err := RunMatch(context.Background(), MatchConfig{Scenario: "nope"})
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunMatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := RunMatch(ctx, MatchConfig{
		Scenario: "open-field",
		Params:   DefaultParams(),
		ConfigA:  agent.DefaultConfig(),
		ConfigB:  agent.DefaultConfig(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if res.World == nil || res.World.Round != 0 {
		t.Fatal("cancelled match should stop before the first round")
	}
}
