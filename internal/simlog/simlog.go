// Package simlog records structured match events. Log is unbounded and
// machine-readable (tests, reports, traces); Thoughts is a small ring of
// recent lines for the viewer.
package simlog

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is one recorded event.
type Entry struct {
	Round    int
	Agent    string  // label e.g. "A0", "B3", or "--" for global events
	Team     string  // "A", "B", or "--"
	Category string  // fsm, nav, comms, budget, action, sim
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	Num      float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[R=0042] A3   fsm       state            collect -> explore
func (e Entry) String() string {
	return fmt.Sprintf("[R=%04d] %-4s %-9s %-16s %s",
		e.Round, e.Agent, e.Category, e.Key, e.Value)
}

// Log collects structured events for one match.
type Log struct {
	entries []Entry
	verbose bool
}

// New creates a Log. If verbose is true, per-round position and score
// entries are recorded too.
func New(verbose bool) *Log {
	return &Log{verbose: verbose}
}

// Verbose reports whether verbose entries are kept.
func (l *Log) Verbose() bool { return l.verbose }

// Add records a new entry.
func (l *Log) Add(round int, agent, team, category, key, value string, num float64) {
	l.entries = append(l.entries, Entry{
		Round:    round,
		Agent:    agent,
		Team:     team,
		Category: category,
		Key:      key,
		Value:    value,
		Num:      num,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (l *Log) AddVerbose(round int, agent, team, category, key, value string, num float64) {
	if !l.verbose {
		return
	}
	l.Add(round, agent, team, category, key, value, num)
}

// Entries returns all recorded entries.
func (l *Log) Entries() []Entry {
	return l.entries
}

// Len is the number of recorded entries.
func (l *Log) Len() int { return len(l.entries) }

// Since returns the entries recorded after the first n.
func (l *Log) Since(n int) []Entry {
	if n < 0 {
		n = 0
	}
	if n >= len(l.entries) {
		return nil
	}
	return l.entries[n:]
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (l *Log) Filter(category, key string) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterAgent returns entries for a specific agent label.
func (l *Log) FilterAgent(label string) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Agent == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterRoundRange returns entries within [from, to] inclusive.
func (l *Log) FilterRoundRange(from, to int) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Round >= from && e.Round <= to {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many entries match the given category and key.
func (l *Log) Count(category, key string) int {
	n := 0
	for _, e := range l.entries {
		if (category == "" || e.Category == category) && (key == "" || e.Key == key) {
			n++
		}
	}
	return n
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (l *Log) LastOf(category, key string) (Entry, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if (category == "" || e.Category == category) && (key == "" || e.Key == key) {
			return e, true
		}
	}
	return Entry{}, false
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (l *Log) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range l.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (l *Log) Format() string {
	var sb strings.Builder
	for _, e := range l.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatRange returns a log string filtered to a round range.
func (l *Log) FormatRange(from, to int) string {
	var sb strings.Builder
	for _, e := range l.FilterRoundRange(from, to) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary counts entries per category/key, sorted by key.
func (l *Log) Summary() string {
	counts := map[string]int{}
	for _, e := range l.entries {
		counts[e.Category+"/"+e.Key]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%-28s %d\n", k, counts[k])
	}
	return sb.String()
}
