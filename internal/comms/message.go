package comms

import (
	"errors"
	"fmt"

	"github.com/Garsondee/Swarm-Sense/internal/grid"
)

// Wire layout of a Message:
//
//	bits 28-31  type tag
//	bits 12-27  aux (entity id mod 65536, or a count)
//	bits  6-11  x
//	bits  0-5   y
const (
	TypeShift = 28
	AuxShift  = 12
	XShift    = 6

	CoordBits = 6
	CoordMask = 1<<CoordBits - 1
	AuxMask   = 1<<16 - 1
	TypeMask  = 0xF

	// MaxMapDim is the largest map side the codec can carry.
	MaxMapDim = 1 << CoordBits
)

var (
	ErrUnknownType = errors.New("comms: unknown message type")
	ErrCorrupt     = errors.New("comms: corrupt message position")
	ErrOutOfRange  = errors.New("comms: value out of range")
)

// MsgType tags a broadcast message.
type MsgType uint8

const (
	MsgEmpty MsgType = iota
	MsgLeader
	MsgEnemyLeader
	MsgThreat
	MsgResource
	MsgEnemyUnit
	// MsgAskLeader is a worker's call for a successor. Loc is the rally
	// point and Aux the caller's id.
	MsgAskLeader

	msgTypeCount
)

func (t MsgType) String() string {
	switch t {
	case MsgEmpty:
		return "empty"
	case MsgLeader:
		return "leader"
	case MsgEnemyLeader:
		return "enemy_leader"
	case MsgThreat:
		return "threat"
	case MsgResource:
		return "resource"
	case MsgEnemyUnit:
		return "enemy_unit"
	case MsgAskLeader:
		return "ask_leader"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Known reports whether t is a recognised tag.
func (t MsgType) Known() bool { return t < msgTypeCount }

// Message is one decoded broadcast.
type Message struct {
	Type MsgType
	Loc  grid.Loc
	Aux  int
}

func (m Message) String() string {
	return fmt.Sprintf("%s@%s aux=%d", m.Type, m.Loc, m.Aux)
}

// Encode packs a message. Coordinates must fit in CoordBits and aux in 16
// bits; anything else is ErrOutOfRange.
func Encode(t MsgType, loc grid.Loc, aux int) (uint32, error) {
	if uint8(t) > TypeMask {
		return 0, fmt.Errorf("type %d: %w", t, ErrOutOfRange)
	}
	if loc.X < 0 || loc.X > CoordMask || loc.Y < 0 || loc.Y > CoordMask {
		return 0, fmt.Errorf("position %s: %w", loc, ErrOutOfRange)
	}
	if aux < 0 || aux > AuxMask {
		return 0, fmt.Errorf("aux %d: %w", aux, ErrOutOfRange)
	}
	return uint32(t)<<TypeShift | uint32(aux)<<AuxShift | uint32(loc.X)<<XShift | uint32(loc.Y), nil
}

// Pack is Encode for a Message value. Aux is reduced mod 65536.
func (m Message) Pack() (uint32, error) {
	return Encode(m.Type, m.Loc, m.Aux&AuxMask)
}

// Decode unpacks raw and validates it against a w×h map. Unknown tags
// return ErrUnknownType with the tag set; positions outside the map return
// ErrCorrupt.
func Decode(raw uint32, w, h int) (Message, error) {
	m := Message{
		Type: MsgType(raw >> TypeShift & TypeMask),
		Aux:  int(raw >> AuxShift & AuxMask),
		Loc: grid.Loc{
			X: int(raw >> XShift & CoordMask),
			Y: int(raw & CoordMask),
		},
	}
	if !m.Type.Known() {
		return m, fmt.Errorf("tag %d: %w", m.Type, ErrUnknownType)
	}
	if m.Type == MsgEmpty {
		return m, nil
	}
	if m.Loc.X >= w || m.Loc.Y >= h {
		return m, fmt.Errorf("%s outside %dx%d: %w", m.Loc, w, h, ErrCorrupt)
	}
	return m, nil
}
