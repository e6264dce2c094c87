package simlog

// DefaultThoughts is the ring capacity used by the viewer.
const DefaultThoughts = 60

// Thought is a single line in the thought ring.
type Thought struct {
	Round   int
	Label   string
	Team    string
	Message string
}

// Thoughts is a ring buffer of recent agent thoughts.
type Thoughts struct {
	entries []Thought
	head    int
	count   int
}

// NewThoughts creates a ring holding up to capacity thoughts.
func NewThoughts(capacity int) *Thoughts {
	if capacity <= 0 {
		capacity = DefaultThoughts
	}
	return &Thoughts{entries: make([]Thought, capacity)}
}

// Add appends a thought, overwriting the oldest when full.
func (t *Thoughts) Add(round int, label, team, msg string) {
	t.entries[t.head] = Thought{
		Round:   round,
		Label:   label,
		Team:    team,
		Message: msg,
	}
	t.head = (t.head + 1) % len(t.entries)
	if t.count < len(t.entries) {
		t.count++
	}
}

// Recent returns thoughts in chronological order (oldest first).
func (t *Thoughts) Recent() []Thought {
	n := len(t.entries)
	result := make([]Thought, t.count)
	for i := 0; i < t.count; i++ {
		idx := (t.head - t.count + i + n) % n
		result[i] = t.entries[idx]
	}
	return result
}

// Tee forwards every entry to a Log and mirrors selected categories into a
// Thoughts ring.
type Tee struct {
	Log      *Log
	Thoughts *Thoughts
	// Mirror lists the categories copied into Thoughts; empty mirrors all.
	Mirror []string
}

// Add implements the agent logger.
func (t *Tee) Add(round int, agent, team, category, key, value string, num float64) {
	if t.Log != nil {
		t.Log.Add(round, agent, team, category, key, value, num)
	}
	if t.Thoughts == nil {
		return
	}
	if len(t.Mirror) > 0 {
		keep := false
		for _, c := range t.Mirror {
			if c == category {
				keep = true
				break
			}
		}
		if !keep {
			return
		}
	}
	t.Thoughts.Add(round, agent, team, key+": "+value)
}
