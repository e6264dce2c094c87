package sim

import (
	"context"
	"fmt"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
	"github.com/Garsondee/Swarm-Sense/internal/simlog"
)

// DefaultRounds is the match length used when none is given.
const DefaultRounds = 2000

// MatchConfig describes one headless match.
type MatchConfig struct {
	Scenario string
	Preset   string
	Seed     int64
	Rounds   int
	Params   Params
	ConfigA  agent.Config
	ConfigB  agent.Config
	Verbose  bool

	// ReportEvery is the sampling interval of the window reporter.
	ReportEvery int
	// TracePath, when set, receives a zstd JSONL snapshot per round.
	TracePath string
	// Index, when set, records the outcome.
	Index *ResultsIndex
}

// MatchResult is a finished match.
type MatchResult struct {
	Outcome  Outcome
	Log      *simlog.Log
	World    *World
	Reporter *Reporter
}

// RunMatch plays a match to completion. The match ends early when both
// teams have lost every unit.
func RunMatch(ctx context.Context, mc MatchConfig) (MatchResult, error) {
	sc, ok := LookupScenario(mc.Scenario)
	if !ok {
		return MatchResult{}, fmt.Errorf("unknown scenario %q (have %v)", mc.Scenario, Scenarios())
	}
	if mc.Rounds <= 0 {
		mc.Rounds = DefaultRounds
	}
	if mc.ReportEvery <= 0 {
		mc.ReportEvery = 20
	}
	log := simlog.New(mc.Verbose)
	w, err := sc.Build(mc.Seed, mc.Params, mc.ConfigA, mc.ConfigB, WithLog(log))
	if err != nil {
		return MatchResult{}, err
	}
	rep := NewReporter(reportWindowRounds)

	var trace *TraceWriter
	if mc.TracePath != "" {
		if trace, err = NewTraceWriter(mc.TracePath); err != nil {
			return MatchResult{}, fmt.Errorf("trace: %w", err)
		}
		defer trace.Close()
	}

	for w.Round < mc.Rounds {
		if err := ctx.Err(); err != nil {
			return MatchResult{World: w, Log: log, Reporter: rep, Outcome: DetermineOutcome(w)}, err
		}
		w.Step()
		if w.Round%mc.ReportEvery == 0 {
			rep.Collect(w)
		}
		if trace != nil {
			if err := trace.WriteRound(w); err != nil {
				return MatchResult{}, fmt.Errorf("trace round %d: %w", w.Round, err)
			}
		}
		if len(w.Alive(TeamA)) == 0 && len(w.Alive(TeamB)) == 0 {
			break
		}
	}
	if trace != nil {
		if err := trace.Close(); err != nil {
			return MatchResult{}, fmt.Errorf("trace: %w", err)
		}
	}

	rep.Collect(w)
	res := MatchResult{Outcome: DetermineOutcome(w), Log: log, World: w, Reporter: rep}
	log.Add(w.Round, "--", "--", "sim", "outcome", res.Outcome.Description, float64(res.Outcome.Result))
	if mc.Index != nil {
		if _, err := mc.Index.Record(ctx, RunRecord{
			Scenario: mc.Scenario,
			Preset:   mc.Preset,
			Seed:     mc.Seed,
			Outcome:  res.Outcome,
		}); err != nil {
			return res, err
		}
	}
	return res, nil
}
