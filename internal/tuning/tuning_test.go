package tuning

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Garsondee/Swarm-Sense/internal/agent"
)

func TestBuiltin_Presets(t *testing.T) {
	p, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if got, want := p.Names(), []string{"aggressive", "cautious", "default"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}

	def, err := p.Preset("")
	if err != nil {
		t.Fatalf("default preset: %v", err)
	}
	if !reflect.DeepEqual(def, agent.DefaultConfig()) {
		t.Fatalf("default preset differs from agent.DefaultConfig:\n%+v", def)
	}

	cautious, err := p.Preset("cautious")
	if err != nil {
		t.Fatalf("cautious: %v", err)
	}
	if cautious.DangerWeight != 20 || cautious.LeashRadius != 15 {
		t.Fatalf("cautious overrides not applied: %+v", cautious)
	}
	if cautious.NavWeight != agent.DefaultConfig().NavWeight {
		t.Fatalf("unset key should keep the default, got nav_weight %d", cautious.NavWeight)
	}
}

func TestPreset_Unknown(t *testing.T) {
	p, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if _, err := p.Preset("reckless"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("err = %v, want ErrUnknownPreset", err)
	}
}

func TestParse_SchemaRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "presets:\n  x:\n    dangr_weight: 3\n",
		"weight too big": "presets:\n  x:\n    danger_weight: 5000\n",
		"ttl past wrap":  "presets:\n  x:\n    ttl_threat: 1024\n",
		"wrong type":     "presets:\n  x:\n    deliver_threshold: lots\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
	if _, err := Parse([]byte("other: 1\n")); err == nil {
		t.Fatalf("document without presets should fail")
	}
}

func TestOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	if err := os.WriteFile(path, []byte("nav_weight: 9\nttl_leader: 30\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Overlay(agent.DefaultConfig(), path)
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}
	if cfg.NavWeight != 9 || cfg.TTLLeader != 30 {
		t.Fatalf("overlay not applied: nav=%d ttl_leader=%d", cfg.NavWeight, cfg.TTLLeader)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("bug_max_depth: 40\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Overlay(agent.DefaultConfig(), bad); err == nil || !strings.Contains(err.Error(), "bad.yaml") {
		t.Fatalf("err = %v, want a schema error naming the file", err)
	}
}
