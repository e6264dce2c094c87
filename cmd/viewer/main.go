package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Swarm-Sense/internal/sim"
	"github.com/Garsondee/Swarm-Sense/internal/simlog"
	"github.com/Garsondee/Swarm-Sense/internal/tuning"
	"github.com/Garsondee/Swarm-Sense/internal/viewer"
)

func main() {
	var scenario, presetA, presetB string
	var seed int64
	var rounds, cell int

	flag.StringVar(&scenario, "scenario", "open-field", "scenario name")
	flag.Int64Var(&seed, "seed", 42, "RNG seed")
	flag.StringVar(&presetA, "preset", tuning.DefaultPreset, "preset for team A")
	flag.StringVar(&presetB, "preset-b", "", "preset for team B (defaults to -preset)")
	flag.IntVar(&rounds, "rounds", sim.DefaultRounds, "rounds before the match is scored")
	flag.IntVar(&cell, "cell", 16, "cell size in pixels")
	flag.Parse()

	if presetB == "" {
		presetB = presetA
	}
	presets, err := tuning.Builtin()
	if err != nil {
		log.Fatal(err)
	}
	cfgA, err := presets.Preset(presetA)
	if err != nil {
		log.Fatal(err)
	}
	cfgB, err := presets.Preset(presetB)
	if err != nil {
		log.Fatal(err)
	}
	sc, ok := sim.LookupScenario(scenario)
	if !ok {
		log.Fatalf("unknown scenario %q (have %v)", scenario, sim.Scenarios())
	}
	w, err := sc.Build(seed, sim.DefaultParams(), cfgA, cfgB,
		sim.WithThoughts(simlog.NewThoughts(simlog.DefaultThoughts)))
	if err != nil {
		log.Fatal(err)
	}

	v := viewer.New(w, viewer.Options{CellSize: cell, MaxRounds: rounds})
	ebiten.SetWindowTitle("Swarm Sense: " + sc.Name)
	ebiten.SetWindowSize(v.WindowSize())
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
