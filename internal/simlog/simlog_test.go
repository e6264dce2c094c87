package simlog

import (
	"strings"
	"testing"
)

func TestLogFilters(t *testing.T) {
	l := New(false)
	l.Add(1, "A0", "A", "fsm", "state", "init -> collect", 0)
	l.Add(2, "A1", "A", "comms", "unknown_type", "tag 9", 9)
	l.Add(3, "A0", "A", "fsm", "state", "collect -> explore", 0)
	l.AddVerbose(3, "A0", "A", "nav", "pos", "(1,1)", 0)

	if l.Len() != 3 {
		t.Fatalf("verbose entry recorded with verbose off: %d entries", l.Len())
	}
	if n := l.Count("fsm", "state"); n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}
	last, ok := l.LastOf("fsm", "state")
	if !ok || last.Round != 3 {
		t.Fatalf("LastOf = %+v, %v", last, ok)
	}
	if !l.HasEntry("comms", "", "tag 9") || l.HasEntry("comms", "", "tag 7") {
		t.Fatal("HasEntry substring match is wrong")
	}
	if got := len(l.FilterAgent("A0")); got != 2 {
		t.Fatalf("FilterAgent = %d entries, want 2", got)
	}
	if got := len(l.FilterRoundRange(2, 3)); got != 2 {
		t.Fatalf("FilterRoundRange = %d entries, want 2", got)
	}
	if got := len(l.Since(2)); got != 1 {
		t.Fatalf("Since(2) = %d entries, want 1", got)
	}
	if !strings.Contains(l.Summary(), "fsm/state") {
		t.Fatalf("summary missing fsm/state:\n%s", l.Summary())
	}
}

func TestThoughtsRing(t *testing.T) {
	th := NewThoughts(3)
	for i := 0; i < 5; i++ {
		th.Add(i, "A0", "A", "x")
	}
	got := th.Recent()
	if len(got) != 3 || got[0].Round != 2 || got[2].Round != 4 {
		t.Fatalf("Recent = %+v", got)
	}
}

func TestTeeMirrorsSelectedCategories(t *testing.T) {
	tee := &Tee{Log: New(false), Thoughts: NewThoughts(8), Mirror: []string{"fsm"}}
	tee.Add(1, "A0", "A", "fsm", "state", "init -> collect", 0)
	tee.Add(1, "A0", "A", "nav", "bug_fail", "blocked", 0)
	if tee.Log.Len() != 2 {
		t.Fatalf("log has %d entries, want 2", tee.Log.Len())
	}
	if r := tee.Thoughts.Recent(); len(r) != 1 || r[0].Message != "state: init -> collect" {
		t.Fatalf("thoughts = %+v", r)
	}
}
