package sim

import "fmt"

// Result classifies a finished match.
type Result int

const (
	ResultInconclusive Result = iota
	ResultTeamA
	ResultTeamB
	ResultDraw
)

func (r Result) String() string {
	switch r {
	case ResultTeamA:
		return "team_a"
	case ResultTeamB:
		return "team_b"
	case ResultDraw:
		return "draw"
	case ResultInconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

// TeamOutcome is one team's tally.
type TeamOutcome struct {
	Stock     int  `json:"stock"`
	Collected int  `json:"collected"`
	Delivered int  `json:"delivered"`
	Spawned   int  `json:"spawned"`
	Alive     int  `json:"alive"`
	Dead      int  `json:"dead"`
	Warns     int  `json:"warns"`
	Errs      int  `json:"errs"`
	Faults    int  `json:"faults"`
	LeaderUp  bool `json:"leader_up"`
}

// Outcome summarises a match.
type Outcome struct {
	Rounds      int            `json:"rounds"`
	Result      Result         `json:"result"`
	Description string         `json:"description"`
	Teams       [2]TeamOutcome `json:"teams"`
	Remaining   int            `json:"remaining"`
}

// Score ranks a team: delivered resources plus what its spawns cost.
func (t TeamOutcome) Score(spawnCost int) int {
	return t.Delivered + t.Spawned*spawnCost
}

// DetermineOutcome tallies w. A team whose leader died loses to one whose
// leader lives; otherwise the higher score wins.
func DetermineOutcome(w *World) Outcome {
	out := Outcome{Rounds: w.Round, Remaining: w.ResourceTotal()}
	for i := range out.Teams {
		ts := w.teams[i]
		out.Teams[i] = TeamOutcome{
			Stock:     ts.stock,
			Collected: ts.collected,
			Delivered: ts.delivered,
			Spawned:   ts.spawned,
		}
	}
	for _, u := range w.Units {
		t := &out.Teams[u.Team]
		if u.Alive {
			t.Alive++
			if u.Role.Privileged() {
				t.LeaderUp = true
			}
		} else {
			t.Dead++
		}
		t.Warns += u.ctx.Warns
		t.Errs += u.ctx.Errs
		t.Faults += u.ctx.Faults
	}

	a, b := out.Teams[TeamA], out.Teams[TeamB]
	sa, sb := a.Score(w.Params.SpawnCost), b.Score(w.Params.SpawnCost)
	switch {
	case a.LeaderUp && !b.LeaderUp:
		out.Result, out.Description = ResultTeamA, "team_b_leader_lost"
	case b.LeaderUp && !a.LeaderUp:
		out.Result, out.Description = ResultTeamB, "team_a_leader_lost"
	case !a.LeaderUp && !b.LeaderUp:
		out.Result, out.Description = ResultDraw, "both_leaders_lost"
	case sa == 0 && sb == 0:
		out.Result, out.Description = ResultInconclusive, "nothing_delivered"
	case sa > sb:
		out.Result, out.Description = ResultTeamA, fmt.Sprintf("score_%d_to_%d", sa, sb)
	case sb > sa:
		out.Result, out.Description = ResultTeamB, fmt.Sprintf("score_%d_to_%d", sb, sa)
	default:
		out.Result, out.Description = ResultDraw, fmt.Sprintf("score_tied_%d", sa)
	}
	return out
}
