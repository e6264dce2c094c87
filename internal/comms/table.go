package comms

import (
	"errors"
	"fmt"

	"github.com/Garsondee/Swarm-Sense/internal/grid"
)

const (
	// SlotCount is the size of the team's shared array.
	SlotCount = 64
	// SlotMax is the largest value a slot holds (11 bits).
	SlotMax = 2047
	// Wrap is the round window stamps are stored modulo.
	Wrap = 1024
)

var ErrNotPrivileged = errors.New("comms: role may not write shared memory")

// Slot indexes the shared array.
type Slot int

// Shared array layout. Each record's values share the stamp slot that
// follows them. Slots 21-63 are reserved.
const (
	SlotLeaderX Slot = iota
	SlotLeaderY
	SlotLeaderStamp
	SlotEnemyLeaderX
	SlotEnemyLeaderY
	SlotEnemyLeaderStamp
	SlotThreatX
	SlotThreatY
	SlotThreatCount
	SlotThreatStamp
	SlotResourceX
	SlotResourceY
	SlotResourceStamp
	SlotEnemyUnitX
	SlotEnemyUnitY
	SlotEnemyUnitStamp
	SlotMode
	SlotModeStamp
	SlotRallyX
	SlotRallyY
	SlotRallyStamp
)

// Record groups the value slots that share one stamp.
type Record int

const (
	RecLeader Record = iota
	RecEnemyLeader
	RecThreat
	RecResource
	RecEnemyUnit
	RecMode
	// RecRally is where workers gather to pick a successor leader.
	RecRally

	recordCount
)

func (r Record) String() string {
	switch r {
	case RecLeader:
		return "leader"
	case RecEnemyLeader:
		return "enemy_leader"
	case RecThreat:
		return "threat"
	case RecResource:
		return "resource"
	case RecEnemyUnit:
		return "enemy_unit"
	case RecMode:
		return "mode"
	case RecRally:
		return "rally"
	default:
		return "unknown"
	}
}

// Team modes published in SlotMode.
const (
	ModeEconomy = 0
	ModeCommit  = 1
)

type recordLayout struct {
	values []Slot
	stamp  Slot
}

var layout = [recordCount]recordLayout{
	RecLeader:      {values: []Slot{SlotLeaderX, SlotLeaderY}, stamp: SlotLeaderStamp},
	RecEnemyLeader: {values: []Slot{SlotEnemyLeaderX, SlotEnemyLeaderY}, stamp: SlotEnemyLeaderStamp},
	RecThreat:      {values: []Slot{SlotThreatX, SlotThreatY, SlotThreatCount}, stamp: SlotThreatStamp},
	RecResource:    {values: []Slot{SlotResourceX, SlotResourceY}, stamp: SlotResourceStamp},
	RecEnemyUnit:   {values: []Slot{SlotEnemyUnitX, SlotEnemyUnitY}, stamp: SlotEnemyUnitStamp},
	RecMode:        {values: []Slot{SlotMode}, stamp: SlotModeStamp},
	RecRally:       {values: []Slot{SlotRallyX, SlotRallyY}, stamp: SlotRallyStamp},
}

// recordOf maps each value slot to its record; stamps and reserved slots
// map to -1.
var recordOf = func() [SlotCount]Record {
	var out [SlotCount]Record
	for i := range out {
		out[i] = -1
	}
	for r, l := range layout {
		for _, s := range l.values {
			out[s] = Record(r)
		}
	}
	return out
}()

func isStamp(s Slot) bool {
	for _, l := range layout {
		if l.stamp == s {
			return true
		}
	}
	return false
}

// EncodeStamp returns the stored stamp for round: (round mod Wrap)+1, so
// that 0 means never written.
func EncodeStamp(round int) int {
	return mod(round, Wrap) + 1
}

// Age is the modular distance from stamp to round.
func Age(stamp, round int) int {
	return mod(mod(round, Wrap)-(stamp-1), Wrap)
}

// Store is the environment's shared array.
type Store interface {
	ReadShared(i int) int
	WriteShared(i, v int) error
}

// Table is one agent's view of the team's shared memory. Reads always go
// to the store; the last-known cache only serves to skip redundant writes.
type Table struct {
	store      Store
	privileged bool
	round      int
	known      [SlotCount]int
}

// NewTable returns a view over store. Only privileged views may write.
func NewTable(store Store, privileged bool) *Table {
	return &Table{store: store, privileged: privileged}
}

// Privileged reports whether this view may write.
func (t *Table) Privileged() bool { return t.privileged }

// Round is the round passed to the last Sync.
func (t *Table) Round() int { return t.round }

// Sync sets the current round and refreshes the last-known cache of every
// laid-out slot from the store.
func (t *Table) Sync(round int) {
	t.round = round
	for _, l := range layout {
		for _, s := range l.values {
			t.known[s] = t.store.ReadShared(int(s))
		}
		t.known[l.stamp] = t.store.ReadShared(int(l.stamp))
	}
}

// Write stores value in slot and stamps its record. It reports false
// without touching the store when the record was already written with the
// same value.
func (t *Table) Write(slot Slot, value int) (bool, error) {
	if slot < 0 || int(slot) >= SlotCount {
		return false, fmt.Errorf("slot %d: %w", slot, ErrOutOfRange)
	}
	rec := recordOf[slot]
	if rec < 0 {
		if isStamp(slot) {
			return false, fmt.Errorf("slot %d is a stamp: %w", slot, ErrOutOfRange)
		}
		return t.writeRaw(slot, value)
	}
	vals := make([]int, len(layout[rec].values))
	for i, s := range layout[rec].values {
		vals[i] = t.known[s]
		if s == slot {
			vals[i] = value
		}
	}
	return t.writeRecord(rec, vals)
}

// WriteLoc writes an X/Y record.
func (t *Table) WriteLoc(rec Record, loc grid.Loc) (bool, error) {
	if rec < 0 || rec >= recordCount || len(layout[rec].values) < 2 {
		return false, fmt.Errorf("record %s has no position: %w", rec, ErrOutOfRange)
	}
	vals := make([]int, len(layout[rec].values))
	for i, s := range layout[rec].values {
		vals[i] = t.known[s]
	}
	vals[0], vals[1] = loc.X, loc.Y
	return t.writeRecord(rec, vals)
}

// WriteThreat writes the threat position and count.
func (t *Table) WriteThreat(loc grid.Loc, count int) (bool, error) {
	return t.writeRecord(RecThreat, []int{loc.X, loc.Y, count})
}

// Refresh re-stamps rec for the current round without changing its values.
func (t *Table) Refresh(rec Record) error {
	if !t.privileged {
		return ErrNotPrivileged
	}
	if rec < 0 || rec >= recordCount {
		return fmt.Errorf("record %d: %w", rec, ErrOutOfRange)
	}
	stamp := EncodeStamp(t.round)
	slot := layout[rec].stamp
	if t.known[slot] == stamp {
		return nil
	}
	if err := t.store.WriteShared(int(slot), stamp); err != nil {
		return fmt.Errorf("refresh %s: %w", rec, err)
	}
	t.known[slot] = stamp
	return nil
}

func (t *Table) writeRecord(rec Record, vals []int) (bool, error) {
	if !t.privileged {
		return false, ErrNotPrivileged
	}
	l := layout[rec]
	for _, v := range vals {
		if v < 0 || v > SlotMax {
			return false, fmt.Errorf("%s value %d: %w", rec, v, ErrOutOfRange)
		}
	}
	changed := t.known[l.stamp] == 0
	for i, s := range l.values {
		if t.known[s] != vals[i] {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	for i, s := range l.values {
		if t.known[s] == vals[i] && t.known[l.stamp] != 0 {
			continue
		}
		if err := t.store.WriteShared(int(s), vals[i]); err != nil {
			return false, fmt.Errorf("write %s: %w", rec, err)
		}
		t.known[s] = vals[i]
	}
	stamp := EncodeStamp(t.round)
	if err := t.store.WriteShared(int(l.stamp), stamp); err != nil {
		return false, fmt.Errorf("stamp %s: %w", rec, err)
	}
	t.known[l.stamp] = stamp
	return true, nil
}

func (t *Table) writeRaw(slot Slot, value int) (bool, error) {
	if !t.privileged {
		return false, ErrNotPrivileged
	}
	if value < 0 || value > SlotMax {
		return false, fmt.Errorf("slot %d value %d: %w", slot, value, ErrOutOfRange)
	}
	if t.known[slot] == value {
		return false, nil
	}
	if err := t.store.WriteShared(int(slot), value); err != nil {
		return false, fmt.Errorf("write slot %d: %w", slot, err)
	}
	t.known[slot] = value
	return true, nil
}

// Read returns the value of slot if its record was stamped within ttl
// rounds. Reserved slots carry no stamp and are always present.
func (t *Table) Read(slot Slot, ttl int) (int, bool) {
	if slot < 0 || int(slot) >= SlotCount {
		return 0, false
	}
	rec := recordOf[slot]
	if rec >= 0 && !t.fresh(rec, ttl) {
		return 0, false
	}
	return t.store.ReadShared(int(slot)), true
}

// ReadLoc returns the position held by an X/Y record if fresh.
func (t *Table) ReadLoc(rec Record, ttl int) (grid.Loc, bool) {
	if rec < 0 || rec >= recordCount || len(layout[rec].values) < 2 {
		return grid.Loc{}, false
	}
	if !t.fresh(rec, ttl) {
		return grid.Loc{}, false
	}
	l := layout[rec]
	return grid.Loc{
		X: t.store.ReadShared(int(l.values[0])),
		Y: t.store.ReadShared(int(l.values[1])),
	}, true
}

// RecordAge returns how many rounds ago rec was stamped.
func (t *Table) RecordAge(rec Record) (int, bool) {
	if rec < 0 || rec >= recordCount {
		return 0, false
	}
	stamp := t.store.ReadShared(int(layout[rec].stamp))
	if stamp <= 0 {
		return 0, false
	}
	return Age(stamp, t.round), true
}

func (t *Table) fresh(rec Record, ttl int) bool {
	age, ok := t.RecordAge(rec)
	return ok && age <= ttl
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
