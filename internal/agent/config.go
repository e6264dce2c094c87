package agent

import (
	"errors"
	"fmt"

	"github.com/Garsondee/Swarm-Sense/internal/comms"
	"github.com/Garsondee/Swarm-Sense/internal/nav"
)

// Config holds the tunables of one agent. Presets differ only here.
type Config struct {
	// Scorer weights, each within ±nav.MaxWeight.
	DangerWeight          int64 `yaml:"danger_weight" json:"danger_weight"`
	InterestWeight        int64 `yaml:"interest_weight" json:"interest_weight"`
	ExploreWeight         int64 `yaml:"explore_weight" json:"explore_weight"`
	SoftOrientationWeight int64 `yaml:"soft_orientation_weight" json:"soft_orientation_weight"`
	NavWeight             int64 `yaml:"nav_weight" json:"nav_weight"`

	DeliverThreshold int `yaml:"deliver_threshold" json:"deliver_threshold"`
	SpawnCost        int `yaml:"spawn_cost" json:"spawn_cost"`
	SpawnReserve     int `yaml:"spawn_reserve" json:"spawn_reserve"`
	LowHealth        int `yaml:"low_health" json:"low_health"`

	DangerRadiusSq       int `yaml:"danger_radius_sq" json:"danger_radius_sq"`
	LeaderThreatRadiusSq int `yaml:"leader_threat_radius_sq" json:"leader_threat_radius_sq"`

	// Staleness windows for shared fields, in rounds.
	TTLLeader      int `yaml:"ttl_leader" json:"ttl_leader"`
	TTLEnemyLeader int `yaml:"ttl_enemy_leader" json:"ttl_enemy_leader"`
	TTLThreat      int `yaml:"ttl_threat" json:"ttl_threat"`
	TTLResource    int `yaml:"ttl_resource" json:"ttl_resource"`
	TTLEnemyUnit   int `yaml:"ttl_enemy_unit" json:"ttl_enemy_unit"`
	TTLMode        int `yaml:"ttl_mode" json:"ttl_mode"`

	// SuccessionRounds is how long past TTLLeader a worker waits before
	// calling for a new leader.
	SuccessionRounds int `yaml:"succession_rounds" json:"succession_rounds"`

	BugMaxDepth        int `yaml:"bug_max_depth" json:"bug_max_depth"`
	BugMaxFollowRounds int `yaml:"bug_max_follow_rounds" json:"bug_max_follow_rounds"`
	// LeashRadius keeps collectors near their leader; 0 disables it.
	LeashRadius float64 `yaml:"leash_radius" json:"leash_radius"`

	BufferCapacity   int `yaml:"buffer_capacity" json:"buffer_capacity"`
	BudgetReserve    int `yaml:"budget_reserve" json:"budget_reserve"`
	MaxStepsPerRound int `yaml:"max_steps_per_round" json:"max_steps_per_round"`

	RetargetRounds int `yaml:"retarget_rounds" json:"retarget_rounds"`
	CommitRound    int `yaml:"commit_round" json:"commit_round"`
}

// DefaultConfig returns the balanced preset.
func DefaultConfig() Config {
	return Config{
		DangerWeight:          8,
		InterestWeight:        4,
		ExploreWeight:         2,
		SoftOrientationWeight: 1,
		NavWeight:             6,

		DeliverThreshold: 10,
		SpawnCost:        50,
		SpawnReserve:     0,
		LowHealth:        40,

		DangerRadiusSq:       13,
		LeaderThreatRadiusSq: 36,

		TTLLeader:      20,
		TTLEnemyLeader: 40,
		TTLThreat:      6,
		TTLResource:    80,
		TTLEnemyUnit:   10,
		TTLMode:        200,

		SuccessionRounds: 10,

		BugMaxDepth:        nav.DefaultMaxDepth,
		BugMaxFollowRounds: nav.DefaultMaxFollowRounds,
		LeashRadius:        0,

		BufferCapacity:   comms.DefaultBufferCapacity,
		BudgetReserve:    500,
		MaxStepsPerRound: 16,

		RetargetRounds: 100,
		CommitRound:    1500,
	}
}

var ErrBadConfig = errors.New("agent: invalid config")

// Validate rejects configurations the core cannot run with.
func (c Config) Validate() error {
	var errs []error
	weights := []struct {
		name string
		w    int64
	}{
		{"danger_weight", c.DangerWeight},
		{"interest_weight", c.InterestWeight},
		{"explore_weight", c.ExploreWeight},
		{"soft_orientation_weight", c.SoftOrientationWeight},
		{"nav_weight", c.NavWeight},
	}
	for _, w := range weights {
		if w.w < -nav.MaxWeight || w.w > nav.MaxWeight {
			errs = append(errs, fmt.Errorf("%s %d outside ±%d", w.name, w.w, nav.MaxWeight))
		}
	}
	if c.NavWeight < 1 {
		errs = append(errs, fmt.Errorf("nav_weight must be positive"))
	}
	ttls := []struct {
		name string
		ttl  int
	}{
		{"ttl_leader", c.TTLLeader},
		{"ttl_enemy_leader", c.TTLEnemyLeader},
		{"ttl_threat", c.TTLThreat},
		{"ttl_resource", c.TTLResource},
		{"ttl_enemy_unit", c.TTLEnemyUnit},
		{"ttl_mode", c.TTLMode},
	}
	for _, t := range ttls {
		if t.ttl < 0 || t.ttl >= comms.Wrap {
			errs = append(errs, fmt.Errorf("%s %d outside [0,%d)", t.name, t.ttl, comms.Wrap))
		}
	}
	if c.SuccessionRounds < 1 {
		errs = append(errs, fmt.Errorf("succession_rounds must be positive"))
	}
	if c.BugMaxDepth < 1 || c.BugMaxDepth > nav.StackCap {
		errs = append(errs, fmt.Errorf("bug_max_depth %d outside [1,%d]", c.BugMaxDepth, nav.StackCap))
	}
	if c.BugMaxFollowRounds < 1 {
		errs = append(errs, fmt.Errorf("bug_max_follow_rounds must be positive"))
	}
	if c.LeashRadius < 0 {
		errs = append(errs, fmt.Errorf("leash_radius must not be negative"))
	}
	if c.BufferCapacity < 1 {
		errs = append(errs, fmt.Errorf("buffer_capacity must be positive"))
	}
	if c.MaxStepsPerRound < 2 {
		errs = append(errs, fmt.Errorf("max_steps_per_round must be at least 2"))
	}
	if c.DeliverThreshold < 1 || c.SpawnCost < 1 {
		errs = append(errs, fmt.Errorf("deliver_threshold and spawn_cost must be positive"))
	}
	if c.BudgetReserve < 0 || c.SpawnReserve < 0 || c.RetargetRounds < 1 {
		errs = append(errs, fmt.Errorf("budget_reserve, spawn_reserve and retarget_rounds out of range"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrBadConfig, errors.Join(errs...))
}
