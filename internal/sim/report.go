package sim

import (
	"fmt"
	"strings"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
)

// reportWindowRounds is the default sliding window for recent-behaviour reports.
const reportWindowRounds = 200

// TeamReport is one team's state at one round.
type TeamReport struct {
	States   map[agent.StateID]int
	Alive    int
	Dead     int
	Injured  int // health below start but above zero
	Carrying int // units holding cargo
	Cargo    int
	Stock    int
	Slipped  int
}

// RoundReport is a snapshot of the world at one round.
type RoundReport struct {
	Round     int
	Teams     [2]TeamReport
	Remaining int
}

// Reporter collects periodic reports and summarises them over a sliding
// window of rounds.
type Reporter struct {
	history      []RoundReport
	windowRounds int
}

// NewReporter creates a reporter with the given window size.
func NewReporter(windowRounds int) *Reporter {
	if windowRounds <= 0 {
		windowRounds = reportWindowRounds
	}
	return &Reporter{windowRounds: windowRounds}
}

// Collect records the current world state.
func (r *Reporter) Collect(w *World) {
	rpt := RoundReport{Round: w.Round, Remaining: w.ResourceTotal()}
	for i := range rpt.Teams {
		rpt.Teams[i] = TeamReport{States: make(map[agent.StateID]int), Stock: w.teams[i].stock}
	}
	for _, u := range w.Units {
		tr := &rpt.Teams[u.Team]
		if !u.Alive {
			tr.Dead++
			continue
		}
		tr.Alive++
		tr.States[u.machine.Current()]++
		if u.Health < w.Params.StartHealth {
			tr.Injured++
		}
		if u.Carried > 0 {
			tr.Carrying++
			tr.Cargo += u.Carried
		}
		if u.Slipped {
			tr.Slipped++
		}
	}
	r.history = append(r.history, rpt)
}

// Latest returns the most recent report, or nil.
func (r *Reporter) Latest() *RoundReport {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// History returns every collected report.
func (r *Reporter) History() []RoundReport { return r.history }

// TeamWindow is one team's averages over a window.
type TeamWindow struct {
	StatePct    map[agent.StateID]float64
	AvgAlive    float64
	AvgInjured  float64
	AvgCarrying float64
	AvgCargo    float64
	AvgSlipped  float64
	StockGain   int
	Dead        int
}

// WindowReport is an aggregated summary over a window of rounds.
type WindowReport struct {
	FromRound, ToRound int
	SampleCount        int
	Teams              [2]TeamWindow
	Remaining          int
}

// WindowSummary averages the reports within the window ending at the
// latest sample.
func (r *Reporter) WindowSummary() *WindowReport {
	if len(r.history) == 0 {
		return nil
	}
	latest := r.history[len(r.history)-1]
	cutoff := latest.Round - r.windowRounds
	var window []RoundReport
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].Round < cutoff {
			break
		}
		window = append(window, r.history[i])
	}

	n := float64(len(window))
	oldest := window[len(window)-1]
	wr := &WindowReport{
		FromRound:   oldest.Round,
		ToRound:     latest.Round,
		SampleCount: len(window),
		Remaining:   latest.Remaining,
	}
	for i := range wr.Teams {
		tw := &wr.Teams[i]
		tw.StatePct = make(map[agent.StateID]float64)
		total := 0.0
		for _, rpt := range window {
			tr := rpt.Teams[i]
			for s, c := range tr.States {
				tw.StatePct[s] += float64(c)
				total += float64(c)
			}
			tw.AvgAlive += float64(tr.Alive)
			tw.AvgInjured += float64(tr.Injured)
			tw.AvgCarrying += float64(tr.Carrying)
			tw.AvgCargo += float64(tr.Cargo)
			tw.AvgSlipped += float64(tr.Slipped)
		}
		if total > 0 {
			for s, c := range tw.StatePct {
				tw.StatePct[s] = c / total * 100
			}
		}
		tw.AvgAlive /= n
		tw.AvgInjured /= n
		tw.AvgCarrying /= n
		tw.AvgCargo /= n
		tw.AvgSlipped /= n
		tw.StockGain = latest.Teams[i].Stock - oldest.Teams[i].Stock
		tw.Dead = latest.Teams[i].Dead
	}
	return wr
}

// Format returns a multi-line summary.
func (wr *WindowReport) Format() string {
	if wr == nil {
		return "No data collected yet.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Behaviour Report (R=%d..%d, %d samples) ===\n",
		wr.FromRound, wr.ToRound, wr.SampleCount)
	for i, tw := range wr.Teams {
		fmt.Fprintf(&sb, "\n--- Team %s State Distribution ---\n", Team(i))
		for s := agent.StateID(0); s.Valid(); s++ {
			if pct, ok := tw.StatePct[s]; ok && pct > 0.5 {
				fmt.Fprintf(&sb, "  %-14s %5.1f%%\n", s, pct)
			}
		}
	}
	sb.WriteString("\n--- Units ---\n")
	for i, tw := range wr.Teams {
		fmt.Fprintf(&sb, "  %s: alive=%.1f  injured=%.1f  dead=%d  slipped=%.2f\n",
			Team(i), tw.AvgAlive, tw.AvgInjured, tw.Dead, tw.AvgSlipped)
	}
	sb.WriteString("\n--- Economy ---\n")
	for i, tw := range wr.Teams {
		fmt.Fprintf(&sb, "  %s: carrying=%.1f  cargo=%.1f  stock_gain=%d\n",
			Team(i), tw.AvgCarrying, tw.AvgCargo, tw.StockGain)
	}
	fmt.Fprintf(&sb, "  remaining=%d\n", wr.Remaining)
	return sb.String()
}
