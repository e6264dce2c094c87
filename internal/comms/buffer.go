package comms

// Tier is the urgency class of an outgoing fact.
type Tier uint8

const (
	Routine Tier = iota
	Important
	Critical

	tierCount
)

func (t Tier) String() string {
	switch t {
	case Routine:
		return "routine"
	case Important:
		return "important"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// DefaultBufferCapacity is the per-tier capacity used when none is given.
const DefaultBufferCapacity = 16

// ring is a fixed-capacity LIFO that overwrites its oldest entry when full.
type ring struct {
	items []Message
	head  int
	size  int
}

func (r *ring) push(m Message) {
	r.items[r.head] = m
	r.head = (r.head + 1) % len(r.items)
	if r.size < len(r.items) {
		r.size++
	}
}

func (r *ring) pop() (Message, bool) {
	if r.size == 0 {
		return Message{}, false
	}
	r.head = (r.head - 1 + len(r.items)) % len(r.items)
	r.size--
	return r.items[r.head], true
}

// PriorityBuffer stages candidate broadcasts for one agent. Pop drains
// Critical before Important before Routine, newest first within a tier.
type PriorityBuffer struct {
	tiers [tierCount]ring
}

// NewPriorityBuffer returns a buffer holding up to capacity messages per
// tier.
func NewPriorityBuffer(capacity int) *PriorityBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	b := &PriorityBuffer{}
	for i := range b.tiers {
		b.tiers[i].items = make([]Message, capacity)
	}
	return b
}

// Push stages m. Tiers above Critical are treated as Critical.
func (b *PriorityBuffer) Push(m Message, tier Tier) {
	if tier >= tierCount {
		tier = Critical
	}
	b.tiers[tier].push(m)
}

// Pop removes the most urgent, most recent message.
func (b *PriorityBuffer) Pop() (Message, Tier, bool) {
	for t := Critical; ; t-- {
		if m, ok := b.tiers[t].pop(); ok {
			return m, t, true
		}
		if t == Routine {
			return Message{}, Routine, false
		}
	}
}

// Len is the number of staged messages across tiers.
func (b *PriorityBuffer) Len() int {
	n := 0
	for i := range b.tiers {
		n += b.tiers[i].size
	}
	return n
}

// TierLen is the number of staged messages in one tier.
func (b *PriorityBuffer) TierLen(t Tier) int {
	if t >= tierCount {
		return 0
	}
	return b.tiers[t].size
}

// Reset drops every staged message.
func (b *PriorityBuffer) Reset() {
	for i := range b.tiers {
		b.tiers[i].head = 0
		b.tiers[i].size = 0
	}
}
