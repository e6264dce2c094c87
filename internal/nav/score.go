package nav

import (
	"fmt"
	"strings"

	"github.com/Garsondee/Swarm-Sense/internal/grid"
)

const (
	// CanonicalMagnitude is the absolute value the largest entry of a
	// normalized heuristic is scaled to at weight 1.
	CanonicalMagnitude int64 = 100_000
	// MaxWeight bounds the weight accepted by AddNormalized.
	MaxWeight int64 = 1000
	// SafeLimit is the saturation bound of every score entry.
	SafeLimit int64 = 1 << 52
)

// ScoreVector accumulates one score per direction. Index 8 is grid.Center.
type ScoreVector [9]int64

// Reset zeroes all 9 slots.
func (s *ScoreVector) Reset() {
	*s = ScoreVector{}
}

// ResetBase seeds the 8 movement slots with v and zeroes Center.
func (s *ScoreVector) ResetBase(v int64) {
	for i := range 8 {
		s[i] = clamp(v)
	}
	s[grid.Center] = 0
}

// Add sums values into the vector without normalization.
func (s *ScoreVector) Add(values [9]int64) {
	for i, v := range values {
		s[i] = satAdd(s[i], v)
	}
}

// AddNormalized scales values so that the largest magnitude becomes
// CanonicalMagnitude*weight, then sums them in. An all-zero input is a no-op.
func (s *ScoreVector) AddNormalized(values [9]int64, weight int64) {
	if weight > MaxWeight {
		weight = MaxWeight
	} else if weight < -MaxWeight {
		weight = -MaxWeight
	}
	var maxAbs int64
	for _, v := range values {
		if a := absInt64(clamp(v)); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 || weight == 0 {
		return
	}
	scale := float64(CanonicalMagnitude*weight) / float64(maxAbs)
	for i, v := range values {
		s[i] = satAdd(s[i], int64(float64(clamp(v))*scale))
	}
}

// Best returns the highest scoring direction accepted by allowed. Center's
// own score is considered first, then N through NW; ties keep the earlier
// one. When nothing scores above zero the result is grid.Center.
// A nil allowed accepts every direction.
func (s *ScoreVector) Best(allowed func(grid.Direction) bool) grid.Direction {
	best := grid.Center
	var bestScore int64
	if s[grid.Center] > 0 {
		bestScore = s[grid.Center]
	}
	for _, d := range grid.Compass {
		if s[d] <= bestScore {
			continue
		}
		if allowed != nil && !allowed(d) {
			continue
		}
		best = d
		bestScore = s[d]
	}
	return best
}

// ApplyOrientationBias keeps dir, halves its two neighbours and zeroes the
// five slots of the back arc centred on dir.Opposite(). Center is untouched.
func (s *ScoreVector) ApplyOrientationBias(dir grid.Direction) {
	if dir == grid.Center || !dir.Valid() {
		return
	}
	s[dir.RotateLeft()] /= 2
	s[dir.RotateRight()] /= 2
	back := dir.Opposite()
	for n := -2; n <= 2; n++ {
		s[back.Rotate(n)] = 0
	}
}

// Exclude drives dir to the lower saturation bound so it can never win.
func (s *ScoreVector) Exclude(dir grid.Direction) {
	if !dir.Valid() {
		return
	}
	s[dir] = -SafeLimit
}

// Get returns the score of dir.
func (s *ScoreVector) Get(dir grid.Direction) int64 {
	if !dir.Valid() {
		return 0
	}
	return s[dir]
}

func (s *ScoreVector) String() string {
	var b strings.Builder
	for i, v := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%d", grid.Direction(i), v)
	}
	return b.String()
}

func satAdd(a, b int64) int64 {
	return clamp(clamp(a) + clamp(b))
}

func clamp(v int64) int64 {
	if v > SafeLimit {
		return SafeLimit
	}
	if v < -SafeLimit {
		return -SafeLimit
	}
	return v
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
