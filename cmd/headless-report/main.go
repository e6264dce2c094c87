package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
	"github.com/Garsondee/Swarm-Sense/internal/sim"
	"github.com/Garsondee/Swarm-Sense/internal/simlog"
	"github.com/Garsondee/Swarm-Sense/internal/tuning"
)

type runStats struct {
	runIndex int
	seed     int64
	outcome  sim.Outcome

	firstCollectRound   int
	firstDeliverRound   int
	firstSpawnRound     int
	firstDeathRound     int
	firstOverspendRound int

	collects  int
	delivers  int
	spawns    int
	deaths    int
	sent      int
	locks     int
	bugFails  int
	leashed   int
	anomalies int

	overspends int
	skipped    int
	behind     int
	affected   map[string]struct{}

	window *sim.WindowReport
}

type options struct {
	runs     int
	rounds   int
	seedBase int64
	seedStep int64
	scenario string
	presetA  string
	presetB  string
	config   string
	traceDir string
	db       string
	copy     bool
	verbose  bool
}

func main() {
	var o options
	flag.IntVar(&o.runs, "runs", 5, "number of headless matches")
	flag.IntVar(&o.rounds, "rounds", sim.DefaultRounds, "rounds per match")
	flag.Int64Var(&o.seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&o.seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&o.scenario, "scenario", "open-field", "scenario name")
	flag.StringVar(&o.presetA, "preset", tuning.DefaultPreset, "preset for both teams")
	flag.StringVar(&o.presetB, "preset-b", "", "preset for team B (defaults to -preset)")
	flag.StringVar(&o.config, "config", "", "YAML overlay applied to team A on top of its preset")
	flag.StringVar(&o.traceDir, "trace", "", "directory for per-run zstd JSONL traces")
	flag.StringVar(&o.db, "db", "", "sqlite file to record outcomes in")
	flag.BoolVar(&o.copy, "copy", false, "copy the report to the clipboard")
	flag.BoolVar(&o.verbose, "verbose", false, "keep verbose log entries")
	flag.Parse()

	var report strings.Builder
	out := io.MultiWriter(os.Stdout, &report)
	if err := run(context.Background(), o, out); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	if o.copy {
		if err := clipboard.WriteAll(report.String()); err != nil {
			fmt.Println("clipboard:", err)
			return
		}
		fmt.Println("(report copied to clipboard)")
	}
}

func run(ctx context.Context, o options, out io.Writer) error {
	if o.runs <= 0 {
		return fmt.Errorf("-runs must be > 0")
	}
	if o.rounds <= 0 {
		return fmt.Errorf("-rounds must be > 0")
	}
	if _, ok := sim.LookupScenario(o.scenario); !ok {
		return fmt.Errorf("unsupported scenario %q (supported: %s)", o.scenario, strings.Join(sim.Scenarios(), ", "))
	}
	if o.presetB == "" {
		o.presetB = o.presetA
	}
	cfgA, cfgB, err := loadConfigs(o)
	if err != nil {
		return err
	}

	var ix *sim.ResultsIndex
	if o.db != "" {
		if ix, err = sim.OpenResultsIndex(o.db); err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer ix.Close()
	}

	fmt.Fprintf(out, "=== Headless Swarm Report ===\n")
	fmt.Fprintf(out, "scenario=%s runs=%d rounds=%d seed_base=%d seed_step=%d preset_a=%s preset_b=%s",
		o.scenario, o.runs, o.rounds, o.seedBase, o.seedStep, o.presetA, o.presetB)
	if o.config != "" {
		fmt.Fprintf(out, " config_a=%s", o.config)
	}
	fmt.Fprint(out, "\n\n")

	all := make([]runStats, 0, o.runs)
	for i := 0; i < o.runs; i++ {
		seed := o.seedBase + int64(i)*o.seedStep
		mc := sim.MatchConfig{
			Scenario: o.scenario,
			Preset:   o.presetA + "/" + o.presetB,
			Seed:     seed,
			Rounds:   o.rounds,
			Params:   sim.DefaultParams(),
			ConfigA:  cfgA,
			ConfigB:  cfgB,
			Verbose:  o.verbose,
			Index:    ix,
		}
		if o.traceDir != "" {
			mc.TracePath = filepath.Join(o.traceDir, fmt.Sprintf("%s-seed%d.jsonl.zst", o.scenario, seed))
		}
		res, err := sim.RunMatch(ctx, mc)
		if err != nil {
			return fmt.Errorf("run %d (seed %d): %w", i+1, seed, err)
		}
		rs := collectStats(i+1, seed, res.Outcome, res.Log)
		rs.window = res.Reporter.WindowSummary()
		all = append(all, rs)
		printRun(out, rs)
	}
	printAggregate(out, all)

	if ix != nil {
		hist, err := ix.Runs(ctx, o.scenario)
		if err != nil {
			return fmt.Errorf("query db: %w", err)
		}
		printHistory(out, hist)
	}
	return nil
}

func loadConfigs(o options) (agent.Config, agent.Config, error) {
	presets, err := tuning.Builtin()
	if err != nil {
		return agent.Config{}, agent.Config{}, err
	}
	cfgA, err := presets.Preset(o.presetA)
	if err != nil {
		return agent.Config{}, agent.Config{}, err
	}
	cfgB, err := presets.Preset(o.presetB)
	if err != nil {
		return agent.Config{}, agent.Config{}, err
	}
	if o.config != "" {
		if cfgA, err = tuning.Overlay(cfgA, o.config); err != nil {
			return agent.Config{}, agent.Config{}, err
		}
	}
	return cfgA, cfgB, nil
}

func collectStats(runIndex int, seed int64, outcome sim.Outcome, log *simlog.Log) runStats {
	entries := log.Entries()
	affected := map[string]struct{}{}
	anomalies := 0
	for _, e := range entries {
		switch e.Category {
		case "budget":
			switch e.Key {
			case "overspend", "skipped", "behind":
				affected[e.Agent] = struct{}{}
			}
		case "comms":
			switch e.Key {
			case "unknown_type", "corrupt_position", "bad_message":
				anomalies++
			}
		}
	}

	return runStats{
		runIndex:            runIndex,
		seed:                seed,
		outcome:             outcome,
		firstCollectRound:   firstRound(entries, "action", "collect", ""),
		firstDeliverRound:   firstRound(entries, "action", "deliver", ""),
		firstSpawnRound:     firstRound(entries, "sim", "spawn", ""),
		firstDeathRound:     firstRound(entries, "sim", "death", ""),
		firstOverspendRound: firstRound(entries, "budget", "overspend", ""),
		collects:            log.Count("action", "collect"),
		delivers:            log.Count("action", "deliver"),
		spawns:              log.Count("sim", "spawn"),
		deaths:              log.Count("sim", "death"),
		sent:                log.Count("comms", "sent"),
		locks:               log.Count("fsm", "lock"),
		bugFails:            log.Count("nav", "bug_fail"),
		leashed:             log.Count("nav", "leash"),
		anomalies:           anomalies,
		overspends:          log.Count("budget", "overspend"),
		skipped:             log.Count("budget", "skipped"),
		behind:              log.Count("budget", "behind"),
		affected:            affected,
	}
}

func firstRound(entries []simlog.Entry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Round
		}
	}
	return -1
}

// detectStalemate flags matches where both swarms kept their leader and
// neither pulled clearly ahead on deliveries.
func detectStalemate(rs runStats) (bool, string) {
	a, b := rs.outcome.Teams[sim.TeamA], rs.outcome.Teams[sim.TeamB]
	if !a.LeaderUp || !b.LeaderUp {
		return false, "leader_lost"
	}
	hi, lo := max(a.Delivered, b.Delivered), min(a.Delivered, b.Delivered)
	if hi == 0 {
		return true, "nothing_delivered"
	}
	gap := float64(hi-lo) / float64(hi)
	if gap > 0.15 {
		return false, fmt.Sprintf("score_gap_%.0f%%", gap*100)
	}
	reasons := []string{"both_leaders_up", fmt.Sprintf("score_gap_%.0f%%", gap*100)}
	if rs.spawns == 0 {
		reasons = append(reasons, "no_spawns")
	}
	return true, strings.Join(reasons, "+")
}

func printRun(out io.Writer, rs runStats) {
	o := rs.outcome
	a, b := o.Teams[sim.TeamA], o.Teams[sim.TeamB]
	fmt.Fprintf(out, "--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Fprintf(out, "result=%s (%s) rounds=%d remaining=%d\n", o.Result, o.Description, o.Rounds, o.Remaining)
	fmt.Fprintf(out, "team_a: delivered=%d spawned=%d alive=%d dead=%d stock=%d warns=%d errs=%d faults=%d\n",
		a.Delivered, a.Spawned, a.Alive, a.Dead, a.Stock, a.Warns, a.Errs, a.Faults)
	fmt.Fprintf(out, "team_b: delivered=%d spawned=%d alive=%d dead=%d stock=%d warns=%d errs=%d faults=%d\n",
		b.Delivered, b.Spawned, b.Alive, b.Dead, b.Stock, b.Warns, b.Errs, b.Faults)
	fmt.Fprintf(out, "phase_markers: first_collect=%d first_deliver=%d first_spawn=%d first_death=%d first_overspend=%d\n",
		rs.firstCollectRound, rs.firstDeliverRound, rs.firstSpawnRound, rs.firstDeathRound, rs.firstOverspendRound)
	fmt.Fprintf(out, "event_totals: collect=%d deliver=%d spawn=%d death=%d sent=%d lock=%d bug_fail=%d leash=%d anomalies=%d\n",
		rs.collects, rs.delivers, rs.spawns, rs.deaths, rs.sent, rs.locks, rs.bugFails, rs.leashed, rs.anomalies)
	fmt.Fprintf(out, "budget_events: overspend=%d skipped=%d behind=%d affected_units=%d [%s]\n",
		rs.overspends, rs.skipped, rs.behind, len(rs.affected), joinSet(rs.affected))
	if stalemate, reason := detectStalemate(rs); stalemate {
		fmt.Fprintf(out, "stalemate: %s\n", reason)
	}
	if rs.window != nil {
		fmt.Fprintf(out, "window_rounds=%d..%d samples=%d\n", rs.window.FromRound, rs.window.ToRound, rs.window.SampleCount)
		for i, tw := range rs.window.Teams {
			fmt.Fprintf(out, "window_%s: alive=%.1f carrying=%.1f stock_gain=%d top_state=%s\n",
				strings.ToLower(sim.Team(i).String()), tw.AvgAlive, tw.AvgCarrying, tw.StockGain, topState(tw.StatePct))
		}
	}
	fmt.Fprintln(out)
}

func printAggregate(out io.Writer, all []runStats) {
	results := map[sim.Result]int{}
	var delivered, spawned, dead [2]int
	var totalSent, totalLocks, totalBugFails, totalOverspend, totalAnomalies, stalemates int
	deliverRounds := make([]int, 0, len(all))
	spawnRounds := make([]int, 0, len(all))
	deathRounds := make([]int, 0, len(all))
	affectedGlobal := map[string]struct{}{}

	for _, rs := range all {
		results[rs.outcome.Result]++
		for i, t := range rs.outcome.Teams {
			delivered[i] += t.Delivered
			spawned[i] += t.Spawned
			dead[i] += t.Dead
		}
		totalSent += rs.sent
		totalLocks += rs.locks
		totalBugFails += rs.bugFails
		totalOverspend += rs.overspends
		totalAnomalies += rs.anomalies
		if s, _ := detectStalemate(rs); s {
			stalemates++
		}
		if rs.firstDeliverRound >= 0 {
			deliverRounds = append(deliverRounds, rs.firstDeliverRound)
		}
		if rs.firstSpawnRound >= 0 {
			spawnRounds = append(spawnRounds, rs.firstSpawnRound)
		}
		if rs.firstDeathRound >= 0 {
			deathRounds = append(deathRounds, rs.firstDeathRound)
		}
		for label := range rs.affected {
			affectedGlobal[label] = struct{}{}
		}
	}

	n := len(all)
	fmt.Fprintln(out, "=== Aggregate ===")
	fmt.Fprintf(out, "runs=%d team_a_wins=%d team_b_wins=%d draws=%d inconclusive=%d stalemates=%d\n",
		n, results[sim.ResultTeamA], results[sim.ResultTeamB], results[sim.ResultDraw], results[sim.ResultInconclusive], stalemates)
	fmt.Fprintf(out, "avg_per_run_a: delivered=%.1f spawned=%.1f dead=%.1f\n",
		avg(delivered[0], n), avg(spawned[0], n), avg(dead[0], n))
	fmt.Fprintf(out, "avg_per_run_b: delivered=%.1f spawned=%.1f dead=%.1f\n",
		avg(delivered[1], n), avg(spawned[1], n), avg(dead[1], n))
	fmt.Fprintf(out, "avg_events_per_run: sent=%.1f lock=%.1f bug_fail=%.1f overspend=%.1f anomalies=%.1f\n",
		avg(totalSent, n), avg(totalLocks, n), avg(totalBugFails, n), avg(totalOverspend, n), avg(totalAnomalies, n))
	fmt.Fprintf(out, "phase_marker_avg_rounds: first_deliver=%s first_spawn=%s first_death=%s\n",
		avgRoundString(deliverRounds), avgRoundString(spawnRounds), avgRoundString(deathRounds))
	fmt.Fprintf(out, "unique_budget_affected=%d [%s]\n", len(affectedGlobal), joinSet(affectedGlobal))
}

func printHistory(out io.Writer, hist []sim.RunRecord) {
	if len(hist) == 0 {
		return
	}
	byPreset := map[string][4]int{}
	for _, r := range hist {
		c := byPreset[r.Preset]
		c[r.Outcome.Result]++
		byPreset[r.Preset] = c
	}
	names := make([]string, 0, len(byPreset))
	for k := range byPreset {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Fprintf(out, "\n=== Indexed History (%d runs) ===\n", len(hist))
	for _, name := range names {
		c := byPreset[name]
		fmt.Fprintf(out, "  %-24s a=%d b=%d draw=%d inconclusive=%d\n",
			name, c[sim.ResultTeamA], c[sim.ResultTeamB], c[sim.ResultDraw], c[sim.ResultInconclusive])
	}
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgRoundString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func topState(pct map[agent.StateID]float64) string {
	best, bestPct := "", 0.0
	for s := agent.StateID(0); s.Valid(); s++ {
		if p := pct[s]; p > bestPct {
			best, bestPct = s.String(), p
		}
	}
	if best == "" {
		return "none"
	}
	return fmt.Sprintf("%s(%.0f%%)", best, bestPct)
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
