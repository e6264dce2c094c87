package viewer

import (
	"strings"
	"testing"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
	"github.com/Garsondee/Swarm-Sense/internal/sim"
	"github.com/Garsondee/Swarm-Sense/internal/simlog"
)

func TestClock_Rates(t *testing.T) {
	c := clock{speed: 1}
	total := 0
	for range 8 {
		total += c.tick()
	}
	if total != 2 {
		t.Fatalf("1x over 8 frames = %d rounds, want 2", total)
	}

	c.setSpeed(4)
	if n := c.tick(); n != 1 {
		t.Fatalf("4x frame = %d rounds, want 1", n)
	}

	c.togglePause()
	if n := c.tick(); n != 0 || c.String() != "PAUSED" {
		t.Fatalf("paused clock ran %d rounds (%s)", n, c)
	}
	c.setSpeed(2)
	if c.paused || c.String() != "2x" {
		t.Fatalf("setSpeed should unpause, got %s", c)
	}
}

func newTestViewer(t *testing.T) *Viewer {
	t.Helper()
	w, err := sim.NewWorld(10, 8, 1, sim.DefaultParams(), simlog.New(false))
	if err != nil {
		t.Fatal(err)
	}
	w.Thoughts = simlog.NewThoughts(10)
	if _, err := w.AddUnit(sim.TeamA, agent.Leader, grid.Loc{X: 2, Y: 3}, grid.North); err != nil {
		t.Fatal(err)
	}
	return New(w, Options{CellSize: 10, MaxRounds: 3})
}

func TestViewer_CellMapping(t *testing.T) {
	v := newTestViewer(t)

	l := grid.Loc{X: 2, Y: 3}
	px, py := v.cellOrigin(l)
	if px != float32(margin+20) || py != float32(margin+40) {
		t.Fatalf("origin of %s = (%v,%v)", l, px, py)
	}
	got, ok := v.cellAt(int(px)+5, int(py)+5)
	if !ok || got != l {
		t.Fatalf("cellAt = %s,%v, want %s", got, ok, l)
	}
	if _, ok := v.cellAt(1, 1); ok {
		t.Fatal("margin should not map to a cell")
	}
	if _, ok := v.cellAt(margin+10*10+5, margin); ok {
		t.Fatal("pixels right of the map should not map to a cell")
	}
	w, h := v.WindowSize()
	if w != margin*2+100+panelWidth || h != 480 {
		t.Fatalf("window = %dx%d", w, h)
	}
}

func TestViewer_StopsAtMaxRounds(t *testing.T) {
	v := newTestViewer(t)
	for range 5 {
		if v.outcome == nil {
			v.step()
		}
	}
	if v.world.Round != 3 || v.outcome == nil {
		t.Fatalf("round %d outcome %v", v.world.Round, v.outcome)
	}
	recent := v.thoughts.Recent()
	if len(recent) == 0 || !strings.HasPrefix(recent[len(recent)-1].Message, "match over") {
		t.Fatalf("last thought = %+v", recent)
	}
	lines := strings.Join(v.statusLines(), "\n")
	if !strings.Contains(lines, "result: ") || !strings.Contains(lines, "team A: units=1") {
		t.Fatalf("status:\n%s", lines)
	}
}
