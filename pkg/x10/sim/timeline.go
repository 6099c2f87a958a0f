package sim

import (
	"strings"
	"time"
)

// Slot is the carrier seen in one half cycle.
type Slot struct {
	HalfCycle int
	// Offset of the first burst from the zero crossing.
	Offset time.Duration
	Bursts int
	Width  time.Duration
}

// Timeline groups pulses by the half cycle they start in.
func (m Mains) Timeline(pulses []Pulse) []Slot {
	var slots []Slot
	for _, p := range pulses {
		n := m.HalfCycleIndex(p.Start)
		if len(slots) == 0 || slots[len(slots)-1].HalfCycle != n {
			slots = append(slots, Slot{
				HalfCycle: n,
				Offset:    p.Start - m.Edge(n),
				Width:     p.Width(),
			})
		}
		slots[len(slots)-1].Bursts++
	}
	return slots
}

// Bits renders every half cycle from the first burst to the last as 1
// with carrier and 0 without.
func (m Mains) Bits(pulses []Pulse) string {
	slots := m.Timeline(pulses)
	if len(slots) == 0 {
		return ""
	}
	first := slots[0].HalfCycle
	bits := []byte(strings.Repeat("0", slots[len(slots)-1].HalfCycle-first+1))
	for _, s := range slots {
		bits[s.HalfCycle-first] = '1'
	}
	return string(bits)
}
