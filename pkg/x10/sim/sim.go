// Package sim provides a deterministic mains and power line for running
// the X10 engine without hardware.
//
// Time is virtual: each read of the zero-crossing input advances the
// clock by PollStep and every Delay advances it by its argument, so a
// transmission produces the same pulse timeline on every run.
package sim

import (
	"time"
)

// DefaultPollStep is the virtual time consumed by one input poll.
const DefaultPollStep = 2 * time.Microsecond

// Clock is a virtual x10.Clock.
type Clock struct {
	now time.Duration
}

// Now implements x10.Clock.
func (c *Clock) Now() time.Duration {
	return c.now
}

// Delay implements x10.Clock.
func (c *Clock) Delay(d time.Duration) {
	if d > 0 {
		c.now += d
	}
}

// Set moves the clock to t, never backwards.
func (c *Clock) Set(t time.Duration) {
	if t > c.now {
		c.now = t
	}
}

// Mains is a square wave zero-crossing signal, high on even half cycles.
// A zero Frequency models a missing mains signal.
type Mains struct {
	Frequency float64
}

// HalfCycle returns the half cycle length, 0 without mains.
func (m Mains) HalfCycle() time.Duration {
	if m.Frequency <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / (2 * m.Frequency))
}

// Level returns the zero-crossing input at t.
func (m Mains) Level(t time.Duration) bool {
	half := m.HalfCycle()
	if half == 0 {
		return true
	}
	return (t/half)%2 == 0
}

// Edge returns the time of the n-th edge, n >= 1.
func (m Mains) Edge(n int) time.Duration {
	return time.Duration(n) * m.HalfCycle()
}

// HalfCycleIndex returns the index of the half cycle containing t.
func (m Mains) HalfCycleIndex(t time.Duration) int {
	half := m.HalfCycle()
	if half == 0 {
		return 0
	}
	return int(t / half)
}

// Pulse is one carrier burst on the line.
type Pulse struct {
	Start time.Duration
	End   time.Duration
}

// Width returns the pulse duration.
func (p Pulse) Width() time.Duration {
	return p.End - p.Start
}
