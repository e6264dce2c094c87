package agent

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// RunFunc is one behaviour. It must return promptly; it may move, turn
// or act through ctx.Env at most once each.
type RunFunc func(*Context) Result

// Machine drives one agent's behaviours, one round per call to Round.
type Machine struct {
	role    Role
	states  [stateCount]RunFunc
	table   *TransitionTable
	current StateID
	resume  bool
	last    Result
}

// NewMachine returns a machine wired with the role's states and table,
// starting at Init.
func NewMachine(role Role) *Machine {
	m := &Machine{role: role, current: StateInit}
	m.states = [stateCount]RunFunc{
		StateInit:        runInit,
		StateAvoidThreat: runAvoidThreat,
		StateEndTurn:     runEndTurn,
	}
	if role == Leader {
		m.states[StateLeaderWatch] = runLeaderWatch
		m.states[StateSpawn] = runSpawn
		m.table = LeaderTable()
	} else {
		m.states[StateCollect] = runCollect
		m.states[StateDeliver] = runDeliver
		m.states[StateExplore] = runExplore
		m.states[StateAskLeader] = runAskLeader
		m.states[StateBecomeLeader] = runBecomeLeader
		m.table = WorkerTable()
	}
	return m
}

// Current is the state the next step will run.
func (m *Machine) Current() StateID { return m.current }

// SetCurrent forces the next state. Unknown IDs are tolerated and handled
// by the fallback on the next round.
func (m *Machine) SetCurrent(id StateID) {
	m.current = id
	m.resume = false
}

// State returns the behaviour registered for id.
func (m *Machine) State(id StateID) RunFunc {
	if !id.Valid() {
		return nil
	}
	return m.states[id]
}

// SetState replaces the behaviour for id.
func (m *Machine) SetState(id StateID, fn RunFunc) {
	if id.Valid() {
		m.states[id] = fn
	}
}

// Table returns the transition table.
func (m *Machine) Table() *TransitionTable { return m.table }

// SetTable replaces the transition table.
func (m *Machine) SetTable(t *TransitionTable) { m.table = t }

// Resuming reports whether the next round resumes a locked state.
func (m *Machine) Resuming() bool { return m.resume }

// Last is the result of the most recent state run.
func (m *Machine) Last() Result { return m.last }

// Round runs states until end-of-round bookkeeping has yielded. A panic in
// any state is recovered here; the round still ends with a yield and the
// next round starts from Init.
func (m *Machine) Round(ctx *Context) {
	ctx.yielded = false
	ctx.moved = false
	ctx.turned = false
	ctx.acted = false
	defer func() {
		if r := recover(); r != nil {
			ctx.Faults++
			ctx.log("fsm", "fault", fmt.Sprintf("%s: %v [%s]", m.current, r, firstFrame(debug.Stack())), 1)
			m.current = StateInit
			m.resume = false
			ctx.yield()
		}
	}()

	if m.resume {
		m.resume = false
		m.invoke(ctx, StateInit)
	}

	limit := ctx.Cfg.MaxStepsPerRound
	if limit < 2 {
		limit = 2
	}
	for step := 0; ; step++ {
		if step >= limit {
			ctx.logf("fsm", "step_cap", float64(step), "%s after %d steps", m.current, step)
			m.invoke(ctx, StateEndTurn)
			ctx.yield()
			m.current = StateInit
			return
		}
		id := m.current
		res := m.invoke(ctx, id)

		switch res.Code {
		case CodeLock:
			if id != StateEndTurn && id != StateInit {
				ctx.log("fsm", "lock", id.String(), 0)
				m.invoke(ctx, StateEndTurn)
				ctx.yield()
				m.resume = true
				return
			}
		case CodeEndOfTurn:
			if id != StateEndTurn {
				m.current = StateEndTurn
				continue
			}
		case CodeErr:
			ctx.Errs++
			ctx.logf("fsm", "error", 0, "%s: %s", id, res.Msg)
		case CodeWarn:
			ctx.Warns++
		}

		next, found := m.table.Next(id, res.Code, ctx)
		if !found {
			ctx.logf("fsm", "unknown_state", float64(id), "%s/%s -> %s", id, res.Code, next)
		}
		m.current = next
		if id == StateEndTurn {
			ctx.yield()
			return
		}
	}
}

// invoke runs one state, treating unregistered IDs as a protocol anomaly.
func (m *Machine) invoke(ctx *Context, id StateID) Result {
	var fn RunFunc
	if id.Valid() {
		fn = m.states[id]
	}
	if fn == nil {
		m.last = fail("no behaviour for " + id.String())
		return m.last
	}
	m.last = fn(ctx)
	return m.last
}

func firstFrame(stack []byte) string {
	lines := strings.Split(string(stack), "\n")
	// Skip the goroutine header and the debug/panic frames.
	for i := 1; i+1 < len(lines); i += 2 {
		fn := strings.TrimSpace(lines[i])
		if strings.HasPrefix(fn, "runtime/debug.") || strings.HasPrefix(fn, "panic(") ||
			strings.Contains(fn, "agent.(*Machine).Round.func") {
			continue
		}
		return strings.TrimSpace(lines[i+1])
	}
	return "?"
}
