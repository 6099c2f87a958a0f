package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeline(t *testing.T) {
	m := Mains{Frequency: 50}
	ms := time.Millisecond
	pulses := []Pulse{
		{Start: 10*ms + 500*time.Microsecond, End: 11*ms + 300*time.Microsecond},
		{Start: 13 * ms, End: 14 * ms},
		{Start: 30 * ms, End: 31 * ms},
		{Start: 50 * ms, End: 51 * ms},
	}
	slots := m.Timeline(pulses)
	require.Equal(t, []Slot{
		{HalfCycle: 1, Offset: 500 * time.Microsecond, Bursts: 2, Width: 800 * time.Microsecond},
		{HalfCycle: 3, Bursts: 1, Width: ms},
		{HalfCycle: 5, Bursts: 1, Width: ms},
	}, slots)
	require.Equal(t, "10101", m.Bits(pulses))
	require.Empty(t, m.Bits(nil))
}
