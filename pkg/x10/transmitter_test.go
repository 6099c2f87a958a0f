package x10_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/x10.go/pkg/x10"
	"github.com/robotalks/x10.go/pkg/x10/sim"
)

// burstsPerHalfCycle maps each half cycle index to the number of bursts
// starting in it.
func burstsPerHalfCycle(line *sim.Line) map[int]int {
	counts := make(map[int]int)
	for _, p := range line.Pulses() {
		counts[line.Mains.HalfCycleIndex(p.Start)]++
	}
	return counts
}

func TestTransmitBitSequence(t *testing.T) {
	line := sim.NewLine(60)
	tx := x10.NewTransmitter(line, line.Clock, x10.Profile60Hz)
	require.NoError(t, tx.Transmit(x10.HouseA, x10.UnitCode(1), 1))

	// start code once, then house 0110 and unit 01100 each bit
	// followed by its complement
	expected := "1110" + "01101001" + "0110100101"
	counts := burstsPerHalfCycle(line)
	for n, ch := range expected {
		want := 0
		if ch == '1' {
			want = x10.Phases
		}
		require.Equal(t, want, counts[n+1], "half cycle %d", n+1)
	}
	for idx := range counts {
		require.True(t, idx >= 1 && idx <= len(expected), "burst outside frame at %d", idx)
	}
	for _, p := range line.Pulses() {
		require.Equal(t, x10.Profile60Hz.BitLength, p.Width())
	}
	// guard of 6 crossings after the frame
	require.True(t, line.Clock.Now() >= line.Mains.Edge(len(expected)+x10.GuardCrossings))
}

func TestTransmitPhaseSpacing(t *testing.T) {
	line := sim.NewLine(50)
	tx := x10.NewTransmitter(line, line.Clock, x10.Profile50Hz)
	require.NoError(t, tx.Transmit(x10.HouseM, x10.On, 1))
	pulses := line.Pulses()
	require.NotEmpty(t, pulses)
	require.Zero(t, len(pulses)%x10.Phases)
	period := x10.Profile50Hz.BitLength + x10.Profile50Hz.BitDelay
	for n := 0; n < len(pulses); n += x10.Phases {
		require.Equal(t, period, pulses[n+1].Start-pulses[n].Start)
		require.Equal(t, period, pulses[n+2].Start-pulses[n+1].Start)
	}
}

func TestTransmitDimSkipsGuard(t *testing.T) {
	frameCrossings := 4 + 2*(4+5)

	line := sim.NewLine(60)
	tx := x10.NewTransmitter(line, line.Clock, x10.Profile60Hz)
	require.NoError(t, tx.Transmit(x10.HouseA, x10.Dim, 1))
	require.True(t, line.Clock.Now() < line.Mains.Edge(frameCrossings+1))

	line = sim.NewLine(60)
	tx = x10.NewTransmitter(line, line.Clock, x10.Profile60Hz)
	require.NoError(t, tx.Transmit(x10.HouseA, x10.Off, 1))
	require.True(t, line.Clock.Now() >= line.Mains.Edge(frameCrossings+x10.GuardCrossings))
}

func TestTransmitRepeats(t *testing.T) {
	line := sim.NewLine(60)
	tx := x10.NewTransmitter(line, line.Clock, x10.Profile60Hz)
	require.NoError(t, tx.Transmit(x10.HouseA, x10.Bright, 3))
	single := sim.NewLine(60)
	require.NoError(t, x10.NewTransmitter(single, single.Clock, x10.Profile60Hz).Transmit(x10.HouseA, x10.Bright, 1))
	require.Equal(t, 3*len(single.Pulses()), len(line.Pulses()))

	// copies follow each other with no gap
	frameCrossings := 4 + 2*(4+5)
	pulses, n := line.Pulses(), len(single.Pulses())
	first := line.Mains.HalfCycleIndex(pulses[0].Start)
	for k := 1; k < 3; k++ {
		require.Equal(t, k*frameCrossings, line.Mains.HalfCycleIndex(pulses[k*n].Start)-first)
	}
}

type watchedLine struct {
	*sim.Line
	t        *testing.T
	detaches int
	attaches int
}

func (l *watchedLine) Drive(level bool) {
	if level {
		require.False(l.t, l.Line.Attached(), "receiver attached while driving")
	}
	l.Line.Drive(level)
}

func (l *watchedLine) Attach(h func()) error {
	l.attaches++
	return l.Line.Attach(h)
}

func (l *watchedLine) Detach() error {
	l.detaches++
	return l.Line.Detach()
}

func TestTransmitDetachesReceiver(t *testing.T) {
	line := &watchedLine{Line: sim.NewLine(60), t: t}
	handler := func() {}
	require.NoError(t, line.Attach(handler))
	tx := x10.NewTransmitter(line, line.Clock, x10.Profile60Hz)
	tx.Handler = handler
	require.NoError(t, tx.SendCommand(x10.HouseB, 2, x10.On, 1))
	require.Equal(t, 2, line.detaches)
	require.Equal(t, 3, line.attaches)
	require.True(t, line.Attached())
}

func TestTransmitErrors(t *testing.T) {
	line := sim.NewLine(60)
	tx := x10.NewTransmitter(line, line.Clock, x10.Profile60Hz)
	require.True(t, errors.Is(tx.Transmit(x10.HouseA, x10.On, 0), x10.ErrInvalidRepeat))
	require.True(t, errors.Is(tx.Transmit(x10.HouseA, x10.UnitCode(17), 1), x10.ErrInvalidUnit))
	require.True(t, errors.Is(tx.Transmit(x10.HouseCode('Z'), x10.On, 1), x10.ErrUnknownCode))
	require.Empty(t, line.Pulses())

	dead := sim.NewLine(0)
	tx = x10.NewTransmitter(dead, dead.Clock, x10.Profile60Hz)
	tx.EdgeTimeout = 50 * time.Millisecond
	require.True(t, errors.Is(tx.Transmit(x10.HouseA, x10.On, 1), x10.ErrNoZeroCross))
}

func TestTransmitBitsRendering(t *testing.T) {
	line := sim.NewLine(50)
	tx := x10.NewTransmitter(line, line.Clock, x10.Profile50Hz)
	require.NoError(t, tx.Transmit(x10.HouseA, x10.On, 1))
	// house 0110, ON 00101; the final complement is 0 and ends the
	// rendering one half cycle early
	require.Equal(t, "1110"+"01101001"+"010110011", line.Mains.Bits(line.Pulses()))
	for _, slot := range line.Mains.Timeline(line.Pulses()) {
		require.Equal(t, x10.Phases, slot.Bursts)
	}
}
