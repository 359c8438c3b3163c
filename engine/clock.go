package engine

import (
	"math/rand"
	"time"
)

// clock is a thread-local logical timeline. Every tick advances by a random
// step inside the configured bounds, so child dates always land strictly
// after their parent's.
type clock struct {
	now      time.Time
	min, max time.Duration
}

func newClock(start time.Time, min, max time.Duration) *clock {
	return &clock{now: start, min: min, max: max}
}

func (c *clock) tick(rng *rand.Rand) time.Time {
	step := c.min
	if c.max > c.min {
		step += time.Duration(rng.Int63n(int64(c.max - c.min)))
	}
	c.now = c.now.Add(step)
	return c.now
}
