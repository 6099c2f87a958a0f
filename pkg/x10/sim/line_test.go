package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMains(t *testing.T) {
	m := Mains{Frequency: 50}
	require.Equal(t, 10*time.Millisecond, m.HalfCycle())
	require.True(t, m.Level(0))
	require.True(t, m.Level(9999*time.Microsecond))
	require.False(t, m.Level(10*time.Millisecond))
	require.True(t, m.Level(20*time.Millisecond))
	require.Equal(t, 3, m.HalfCycleIndex(35*time.Millisecond))
	require.Equal(t, 30*time.Millisecond, m.Edge(3))

	none := Mains{}
	require.Zero(t, none.HalfCycle())
	require.True(t, none.Level(time.Hour))
}

func TestLineDriveAndReceive(t *testing.T) {
	l := NewLine(60)
	l.Clock.Set(time.Millisecond)
	l.Drive(true)
	l.Drive(true)
	l.Clock.Delay(800 * time.Microsecond)
	l.Drive(false)
	l.Drive(false)
	pulses := l.Pulses()
	require.Len(t, pulses, 1)
	require.Equal(t, Pulse{Start: time.Millisecond, End: 1800 * time.Microsecond}, pulses[0])

	l.Carrier = pulses
	l.Clock.Set(1500 * time.Microsecond)
	require.False(t, l.Receive())
	l.Clock.Set(2 * time.Millisecond)
	require.True(t, l.Receive())
}

func TestRunEdges(t *testing.T) {
	l := NewLine(50)
	var at []time.Duration
	require.NoError(t, l.Attach(func() {
		at = append(at, l.Clock.Now())
		if len(at) == 2 {
			// overrun the next two edges
			l.Clock.Delay(25 * time.Millisecond)
		}
	}))
	l.RunEdges(60 * time.Millisecond)
	require.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		50 * time.Millisecond,
		60 * time.Millisecond,
	}, at)
	require.Equal(t, 60*time.Millisecond, l.Clock.Now())

	require.NoError(t, l.Detach())
	require.False(t, l.Attached())
	require.Error(t, l.Attach(nil))
}

func TestReplayShiftsWholeCycles(t *testing.T) {
	l := NewLine(50)
	l.Clock.Set(105 * time.Millisecond)
	var edges int
	require.NoError(t, l.Attach(func() { edges++ }))
	l.Replay([]Pulse{{Start: 10 * time.Millisecond, End: 10*time.Millisecond + 800*time.Microsecond}})
	require.Len(t, l.Carrier, 1)
	// index 10 now, +2 then rounded to an even shift from index 1
	require.Equal(t, 130*time.Millisecond, l.Carrier[0].Start)
	require.Equal(t, 13+ReplayTail-10, edges)
}
