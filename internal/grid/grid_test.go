package grid

import "testing"

func TestRotateRoundTrip(t *testing.T) {
	for _, d := range Compass {
		if d.RotateLeft().RotateRight() != d {
			t.Fatalf("%s: left then right should be identity", d)
		}
		if d.Rotate(8) != d || d.Rotate(-8) != d {
			t.Fatalf("%s: full rotation should be identity", d)
		}
		if d.Opposite().Opposite() != d {
			t.Fatalf("%s: double opposite should be identity", d)
		}
	}
	if Center.RotateLeft() != Center || Center.Opposite() != Center {
		t.Fatal("center should not rotate")
	}
	if North.RotateLeft() != NorthWest || North.RotateRight() != NorthEast {
		t.Fatalf("unexpected neighbours of N: %s %s", North.RotateLeft(), North.RotateRight())
	}
}

func TestDirectionTo(t *testing.T) {
	from := Loc{X: 10, Y: 10}
	cases := []struct {
		to   Loc
		want Direction
	}{
		{Loc{X: 20, Y: 10}, East},
		{Loc{X: 20, Y: 11}, East},
		{Loc{X: 20, Y: 19}, NorthEast},
		{Loc{X: 10, Y: 2}, South},
		{Loc{X: 4, Y: 3}, SouthWest},
		{Loc{X: 9, Y: 20}, North},
		{Loc{X: 5, Y: 14}, NorthWest},
		{Loc{X: 10, Y: 10}, Center},
	}
	for _, c := range cases {
		if got := from.DirectionTo(c.to); got != c.want {
			t.Fatalf("DirectionTo(%s) = %s, want %s", c.to, got, c.want)
		}
	}
}

func TestAddAndAdjacent(t *testing.T) {
	l := Loc{X: 3, Y: 3}
	for _, d := range Compass {
		n := l.Add(d)
		if !l.Adjacent(n) {
			t.Fatalf("%s of %s should be adjacent", d, l)
		}
		if n.Add(d.Opposite()) != l {
			t.Fatalf("moving %s then back should return to %s", d, l)
		}
	}
	if l.Adjacent(Loc{X: 5, Y: 3}) {
		t.Fatal("two cells away is not adjacent")
	}
}
