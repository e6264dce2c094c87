// Package viewer renders a running match with ebiten: the grid, both
// swarms, threats, and a panel of recent agent thoughts.
package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
	"github.com/Garsondee/Swarm-Sense/internal/sim"
	"github.com/Garsondee/Swarm-Sense/internal/simlog"
)

const (
	panelWidth = 360
	lineHeight = 14
	margin     = 8

	// baseRate is rounds per frame at 1x.
	baseRate = 0.25
)

var (
	colBackground = color.RGBA{R: 12, G: 14, B: 12, A: 255}
	colGround     = color.RGBA{R: 28, G: 42, B: 28, A: 255}
	colWall       = color.RGBA{R: 90, G: 90, B: 84, A: 255}
	colGridLine   = color.RGBA{R: 36, G: 52, B: 36, A: 255}
	colThreat     = color.RGBA{R: 230, G: 160, B: 40, A: 255}
	colSelected   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colPanel      = color.RGBA{R: 10, G: 12, B: 10, A: 248}
	colPanelEdge  = color.RGBA{R: 50, G: 70, B: 50, A: 255}
	colRecent     = color.RGBA{R: 30, G: 40, B: 30, A: 160}
	colText       = color.RGBA{R: 210, G: 220, B: 210, A: 255}
)

// Options configure a Viewer.
type Options struct {
	// CellSize is the on-screen size of one grid cell in pixels.
	CellSize int
	// MaxRounds stops the match; 0 runs forever.
	MaxRounds int
}

// Viewer is an ebiten.Game that steps a sim.World.
type Viewer struct {
	world    *sim.World
	thoughts *simlog.Thoughts
	opts     Options

	clock    clock
	prevKeys map[ebiten.Key]bool
	prevDown bool
	selected *sim.Unit
	outcome  *sim.Outcome

	face *text.GoXFace
}

// New returns a viewer for w. Thoughts are read from w.Thoughts when set.
func New(w *sim.World, opts Options) *Viewer {
	if opts.CellSize <= 0 {
		opts.CellSize = 16
	}
	return &Viewer{
		world:    w,
		thoughts: w.Thoughts,
		opts:     opts,
		clock:    clock{speed: 1},
		prevKeys: make(map[ebiten.Key]bool),
		face:     text.NewGoXFace(basicfont.Face7x13),
	}
}

// WindowSize is the natural window size for the viewer.
func (v *Viewer) WindowSize() (int, int) {
	return v.layoutWidth(), v.layoutHeight()
}

func (v *Viewer) mapPixels() (int, int) {
	return v.world.W * v.opts.CellSize, v.world.H * v.opts.CellSize
}

func (v *Viewer) layoutWidth() int {
	w, _ := v.mapPixels()
	return margin*2 + w + panelWidth
}

func (v *Viewer) layoutHeight() int {
	_, h := v.mapPixels()
	return max(margin*2+h, 480)
}

// Layout implements ebiten.Game.
func (v *Viewer) Layout(int, int) (int, int) {
	return v.layoutWidth(), v.layoutHeight()
}

// Update implements ebiten.Game.
func (v *Viewer) Update() error {
	v.handleInput()
	if v.outcome != nil {
		return nil
	}
	for range v.clock.tick() {
		v.step()
		if v.outcome != nil {
			break
		}
	}
	return nil
}

func (v *Viewer) step() {
	v.world.Step()
	if v.opts.MaxRounds > 0 && v.world.Round >= v.opts.MaxRounds {
		out := sim.DetermineOutcome(v.world)
		v.outcome = &out
		if v.thoughts != nil {
			v.thoughts.Add(v.world.Round, "--", "--", "match over: "+out.Description)
		}
	}
}

func (v *Viewer) pressed(k ebiten.Key, cur map[ebiten.Key]bool) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !v.prevKeys[k]
}

// handleInput processes keypresses (edge-triggered) and unit selection.
func (v *Viewer) handleInput() {
	cur := map[ebiten.Key]bool{}
	if v.pressed(ebiten.KeySpace, cur) {
		v.clock.togglePause()
	}
	for k, speed := range map[ebiten.Key]float64{ebiten.Key1: 1, ebiten.Key2: 2, ebiten.Key4: 4} {
		if v.pressed(k, cur) {
			v.clock.setSpeed(speed)
		}
	}
	if v.pressed(ebiten.KeyPeriod, cur) && v.clock.paused && v.outcome == nil {
		v.step()
	}
	v.prevKeys = cur

	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if down && !v.prevDown {
		mx, my := ebiten.CursorPosition()
		if l, ok := v.cellAt(mx, my); ok {
			v.selected = v.world.UnitAt(l)
		}
	}
	v.prevDown = down
}

// cellAt maps screen pixels to a grid cell. North is up on screen.
func (v *Viewer) cellAt(px, py int) (grid.Loc, bool) {
	cs := v.opts.CellSize
	x, row := (px-margin)/cs, (py-margin)/cs
	if px < margin || py < margin {
		return grid.Loc{}, false
	}
	l := grid.Loc{X: x, Y: v.world.H - 1 - row}
	return l, v.world.OnMap(l)
}

// cellOrigin is the top-left pixel of l.
func (v *Viewer) cellOrigin(l grid.Loc) (float32, float32) {
	cs := v.opts.CellSize
	return float32(margin + l.X*cs), float32(margin + (v.world.H-1-l.Y)*cs)
}

// Draw implements ebiten.Game.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)
	v.drawWorld(screen)
	mw, _ := v.mapPixels()
	v.drawPanel(screen, margin*2+mw)
}

func (v *Viewer) drawWorld(screen *ebiten.Image) {
	w := v.world
	cs := float32(v.opts.CellSize)
	mw, mh := v.mapPixels()
	vector.FillRect(screen, margin, margin, float32(mw), float32(mh), colGround, false)

	for y := 0; y < w.H; y++ {
		for x := 0; x < w.W; x++ {
			l := grid.Loc{X: x, Y: y}
			px, py := v.cellOrigin(l)
			switch {
			case w.Wall(l):
				vector.FillRect(screen, px, py, cs, cs, colWall, false)
			case w.Resource(l) > 0:
				vector.FillRect(screen, px+cs/4, py+cs/4, cs/2, cs/2, resourceColor(w.Resource(l)), false)
			}
		}
	}
	for x := 0; x <= w.W; x++ {
		fx := float32(margin) + float32(x)*cs
		vector.StrokeLine(screen, fx, margin, fx, float32(margin+mh), 1, colGridLine, false)
	}
	for y := 0; y <= w.H; y++ {
		fy := float32(margin) + float32(y)*cs
		vector.StrokeLine(screen, margin, fy, float32(margin+mw), fy, 1, colGridLine, false)
	}

	for _, th := range w.Threats {
		px, py := v.cellOrigin(th.Loc)
		vector.FillRect(screen, px+2, py+2, cs-4, cs-4, colThreat, false)
	}
	for _, u := range w.Units {
		if !u.Alive {
			continue
		}
		px, py := v.cellOrigin(u.Loc)
		c := teamColor(u.Team)
		r := cs * 0.35
		if u.Role == agent.Leader {
			r = cs * 0.48
		}
		vector.FillCircle(screen, px+cs/2, py+cs/2, r, c, true)
		if u.Carried > 0 {
			vector.FillCircle(screen, px+cs/2, py+cs/2, r/2, resourceColor(u.Carried), true)
		}
		// Facing tick; screen y grows downward.
		dx, dy := u.Facing.DX(), u.Facing.DY()
		vector.StrokeLine(screen, px+cs/2, py+cs/2, px+cs/2+float32(dx)*r, py+cs/2-float32(dy)*r, 2, colSelected, true)
		if u == v.selected {
			vector.StrokeRect(screen, px, py, cs, cs, 2, colSelected, false)
		}
	}
}

func (v *Viewer) drawPanel(screen *ebiten.Image, panelX int) {
	h := v.layoutHeight()
	vector.FillRect(screen, float32(panelX), 0, panelWidth, float32(h), colPanel, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(h), 1, colPanelEdge, false)

	y := margin
	for _, line := range v.statusLines() {
		v.drawText(screen, line, panelX+margin, y, colText)
		y += lineHeight
	}
	y += lineHeight / 2
	vector.StrokeLine(screen, float32(panelX), float32(y), float32(panelX+panelWidth), float32(y), 1, colPanelEdge, false)
	y += lineHeight / 2
	ebitenutil.DebugPrintAt(screen, "THOUGHTS", panelX+margin, y)
	y += lineHeight + 4

	if v.thoughts == nil {
		return
	}
	entries := v.thoughts.Recent()
	visible := max((h-y-margin)/lineHeight, 0)
	if len(entries) > visible {
		entries = entries[len(entries)-visible:]
	}
	for i, e := range entries {
		if i >= len(entries)-3 {
			vector.FillRect(screen, float32(panelX+2), float32(y), panelWidth-4, lineHeight, colRecent, false)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+4), 3, 6, teamLabelColor(e.Team), false)
		v.drawText(screen, fmt.Sprintf("%4d %-3s %s", e.Round, e.Label, e.Message), panelX+12, y, colText)
		y += lineHeight
	}
}

func (v *Viewer) statusLines() []string {
	w := v.world
	lines := []string{
		fmt.Sprintf("round %d  %s", w.Round, v.clock),
		"space=pause 1/2/4=speed .=step click=inspect",
	}
	for _, t := range []sim.Team{sim.TeamA, sim.TeamB} {
		lines = append(lines, fmt.Sprintf("team %s: units=%d stock=%d", t, len(w.Alive(t)), w.Stock(t)))
	}
	lines = append(lines, fmt.Sprintf("resources left %d", w.ResourceTotal()))
	if v.selected != nil {
		u := v.selected
		state := u.Machine().Current().String()
		if !u.Alive {
			state = "dead"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", u.Context(), state, u.Machine().Last()))
	}
	if v.outcome != nil {
		lines = append(lines, fmt.Sprintf("result: %s (%s)", v.outcome.Result, v.outcome.Description))
	}
	return lines
}

func (v *Viewer) drawText(screen *ebiten.Image, s string, x, y int, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, v.face, op)
}

func teamColor(t sim.Team) color.RGBA {
	if t == sim.TeamA {
		return color.RGBA{R: 210, G: 70, B: 70, A: 255}
	}
	return color.RGBA{R: 70, G: 110, B: 210, A: 255}
}

func teamLabelColor(team string) color.RGBA {
	switch team {
	case sim.TeamA.String():
		return teamColor(sim.TeamA)
	case sim.TeamB.String():
		return teamColor(sim.TeamB)
	default:
		return colText
	}
}

// resourceColor shades from dim to bright green with the amount.
func resourceColor(n int) color.RGBA {
	g := 90 + min(n, 15)*11
	return color.RGBA{R: 40, G: uint8(g), B: 60, A: 255}
}
