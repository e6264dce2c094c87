package agent

// StateID names a behaviour.
type StateID uint8

const (
	StateInit StateID = iota
	StateAvoidThreat
	StateCollect
	StateDeliver
	StateExplore
	StateSpawn
	StateLeaderWatch
	StateEndTurn
	StateAskLeader
	StateBecomeLeader

	stateCount
)

func (s StateID) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAvoidThreat:
		return "avoid_threat"
	case StateCollect:
		return "collect"
	case StateDeliver:
		return "deliver"
	case StateExplore:
		return "explore"
	case StateSpawn:
		return "spawn"
	case StateLeaderWatch:
		return "leader_watch"
	case StateEndTurn:
		return "end_turn"
	case StateAskLeader:
		return "ask_leader"
	case StateBecomeLeader:
		return "become_leader"
	default:
		return "unknown"
	}
}

// Valid reports whether s names a defined state.
func (s StateID) Valid() bool { return s < stateCount }

// Guard decides whether an edge applies; nil always applies.
type Guard func(*Context) bool

// Edge is one candidate transition.
type Edge struct {
	To    StateID
	Guard Guard
}

// TransitionTable maps (state, result code) to ordered candidate edges.
// A CodeAny row catches codes without a row of their own. Lookups that
// find nothing return the table's fallback state.
type TransitionTable struct {
	rows     [stateCount][codeCount + 1][]Edge
	fallback StateID
}

// NewTransitionTable returns an empty table with the given fallback.
func NewTransitionTable(fallback StateID) *TransitionTable {
	return &TransitionTable{fallback: fallback}
}

// Fallback is the safe default for unknown combinations.
func (t *TransitionTable) Fallback() StateID { return t.fallback }

// On adds an unconditional edge.
func (t *TransitionTable) On(from StateID, code Code, to StateID) *TransitionTable {
	return t.OnIf(from, code, nil, to)
}

// OnIf adds a guarded edge. Edges are tried in insertion order.
func (t *TransitionTable) OnIf(from StateID, code Code, guard Guard, to StateID) *TransitionTable {
	if !from.Valid() || code > CodeAny {
		return t
	}
	t.rows[from][code] = append(t.rows[from][code], Edge{To: to, Guard: guard})
	return t
}

// Next returns the first matching edge's target. ok is false when neither
// the code's row nor the CodeAny row matched, or from is not a state.
func (t *TransitionTable) Next(from StateID, code Code, ctx *Context) (StateID, bool) {
	if !from.Valid() || code >= codeCount {
		return t.fallback, false
	}
	for _, row := range [2]Code{code, CodeAny} {
		for _, e := range t.rows[from][row] {
			if e.Guard == nil || e.Guard(ctx) {
				return e.To, true
			}
		}
	}
	return t.fallback, false
}

func lowHealthCarrying(c *Context) bool {
	return c.Health <= c.Cfg.LowHealth && c.Carried > 0
}

func loaded(c *Context) bool {
	return c.Carried >= c.Cfg.DeliverThreshold
}

func leaderThreatened(c *Context) bool {
	return c.threatWithin(c.Cfg.LeaderThreatRadiusSq)
}

// WorkerTable is the worker's behaviour graph:
//
//	init -> avoid_threat -> deliver | collect -> explore -> end_turn -> init
//	avoid_threat -> ask_leader -> become_leader -> collect | end_turn
func WorkerTable() *TransitionTable {
	t := NewTransitionTable(StateEndTurn)
	t.On(StateInit, CodeAny, StateAvoidThreat)

	t.OnIf(StateAvoidThreat, CodeAny, leaderLost, StateAskLeader).
		OnIf(StateAvoidThreat, CodeAny, lowHealthCarrying, StateDeliver).
		OnIf(StateAvoidThreat, CodeAny, loaded, StateDeliver).
		On(StateAvoidThreat, CodeAny, StateCollect)

	t.On(StateCollect, CodeAny, StateExplore)

	t.On(StateDeliver, CodeOK, StateCollect).
		On(StateDeliver, CodeCant, StateExplore).
		On(StateDeliver, CodeAny, StateEndTurn)

	t.On(StateExplore, CodeAny, StateEndTurn)

	t.On(StateAskLeader, CodeAny, StateBecomeLeader)
	t.On(StateBecomeLeader, CodeOK, StateCollect).
		On(StateBecomeLeader, CodeAny, StateEndTurn)

	t.On(StateEndTurn, CodeAny, StateInit)
	return t
}

// LeaderTable is the leader's behaviour graph:
//
//	init -> avoid_threat -> end_turn
//	init -> leader_watch -> spawn -> end_turn -> init
func LeaderTable() *TransitionTable {
	t := NewTransitionTable(StateInit)
	t.OnIf(StateInit, CodeAny, leaderThreatened, StateAvoidThreat).
		On(StateInit, CodeAny, StateLeaderWatch)
	t.On(StateAvoidThreat, CodeAny, StateEndTurn)
	t.On(StateLeaderWatch, CodeAny, StateSpawn)
	t.On(StateSpawn, CodeAny, StateEndTurn)
	t.On(StateEndTurn, CodeAny, StateInit)
	return t
}
