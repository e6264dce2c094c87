package viewer

import "fmt"

// clock converts frames into simulation rounds. Fractional rates
// accumulate across frames.
type clock struct {
	speed  float64
	paused bool
	accum  float64
}

// tick advances one frame and returns how many rounds to run.
func (c *clock) tick() int {
	if c.paused || c.speed <= 0 {
		return 0
	}
	c.accum += baseRate * c.speed
	n := int(c.accum)
	c.accum -= float64(n)
	return n
}

func (c *clock) togglePause() { c.paused = !c.paused }

func (c *clock) setSpeed(s float64) {
	c.speed = s
	c.paused = false
}

func (c clock) String() string {
	if c.paused {
		return "PAUSED"
	}
	return fmt.Sprintf("%gx", c.speed)
}
