package x10_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/x10.go/pkg/x10"
	"github.com/robotalks/x10.go/pkg/x10/sim"
)

func relay(t *testing.T, freq float64, profile x10.Profile, v x10.Validation, send func(*x10.Transmitter) error) (*x10.Receiver, *sim.Line) {
	txLine := sim.NewLine(freq)
	require.NoError(t, send(x10.NewTransmitter(txLine, txLine.Clock, profile)))

	rxLine := sim.NewLine(freq)
	rx := x10.NewReceiver(rxLine, rxLine.Clock, profile, v)
	require.NoError(t, rxLine.Attach(rx.HandleZeroCross))
	rxLine.Replay(txLine.Pulses())
	return rx, rxLine
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		freq    float64
		profile x10.Profile
	}{
		{50, x10.Profile50Hz},
		{60, x10.Profile60Hz},
	} {
		t.Run(fmt.Sprintf("%vHz", tc.freq), func(t *testing.T) {
			for h := x10.HouseA; h <= x10.HouseP; h++ {
				unit := x10.UnitCode(h-x10.HouseA) + 1
				rx, rxLine := relay(t, tc.freq, tc.profile, x10.StrictValidation, func(tx *x10.Transmitter) error {
					return tx.SendCommand(h, unit, x10.On, 1)
				})
				cmd, ok := rx.Take()
				require.True(t, ok, "%s%d", h, unit)
				require.Equal(t, h, cmd.House)
				require.Equal(t, unit, cmd.Unit)
				require.Equal(t, x10.On, cmd.Function)
				require.Equal(t, x10.StartCode, cmd.Start)
				require.False(t, rxLine.Indicator())
				require.Equal(t, 2, rxLine.Indications)
			}
		})
	}
}

func TestRoundTripFunctions(t *testing.T) {
	for _, fn := range []x10.Function{
		x10.AllUnitsOff, x10.AllLightsOn, x10.Off, x10.Dim, x10.Bright,
		x10.AllLightsOff, x10.HailRequest, x10.PresetDim, x10.StatusRequest,
	} {
		t.Run(fn.String(), func(t *testing.T) {
			rx, _ := relay(t, 60, x10.Profile60Hz, x10.Validation{}, func(tx *x10.Transmitter) error {
				return tx.Transmit(x10.HouseK, fn, 1)
			})
			require.True(t, rx.Ready())
			require.Equal(t, x10.HouseK, rx.House())
			require.Equal(t, fn, rx.Function())
		})
	}
}

func TestRoundTripUnitFrame(t *testing.T) {
	for u := x10.UnitCode(1); u <= 16; u++ {
		rx, _ := relay(t, 50, x10.Profile50Hz, x10.Validation{}, func(tx *x10.Transmitter) error {
			return tx.Transmit(x10.HouseG, u, 1)
		})
		require.False(t, rx.Ready())
		require.Equal(t, u, rx.Unit())
		require.Equal(t, x10.HouseG, rx.House())
		require.EqualValues(t, 1, rx.Stats().Frames)
	}
}

func TestTransceiverEcho(t *testing.T) {
	line := sim.NewLine(60)
	line.Echo = true
	tr, err := x10.NewTransceiver(line, line.Clock, x10.Options{
		Receive:    true,
		Validation: x10.StrictValidation,
	})
	require.NoError(t, err)
	require.Equal(t, x10.Profile60Hz, tr.Profile())
	require.NotNil(t, tr.Calibration())
	require.True(t, line.Attached())

	require.NoError(t, tr.SendCommand(x10.HouseC, 5, x10.Off, 1))
	cmd, ok := tr.Take()
	require.True(t, ok)
	require.Equal(t, x10.HouseC, cmd.House)
	require.Equal(t, x10.UnitCode(5), cmd.Unit)
	require.Equal(t, x10.Off, cmd.Function)
	require.False(t, tr.Ready())

	c, err := tr.Calibrate()
	require.NoError(t, err)
	require.Equal(t, 60, c.Frequency)
	require.True(t, line.Attached())
	tr.Debug()

	require.NoError(t, tr.Close())
	require.False(t, line.Attached())
}

func TestTransceiverForcedProfile(t *testing.T) {
	line := sim.NewLine(0)
	profile := x10.Profile50Hz
	tr, err := x10.NewTransceiver(line, line.Clock, x10.Options{Profile: &profile})
	require.NoError(t, err)
	require.Nil(t, tr.Calibration())
	require.Equal(t, x10.Profile50Hz, tr.Profile())
	require.False(t, line.Attached())

	dead := sim.NewLine(0)
	_, err = x10.NewTransceiver(dead, dead.Clock, x10.Options{EdgeTimeout: 100 * time.Millisecond})
	require.True(t, errors.Is(err, x10.ErrNoZeroCross))
}

func TestTransceiverHouseWideFunction(t *testing.T) {
	line := sim.NewLine(50)
	line.Echo = true
	tr, err := x10.NewTransceiver(line, line.Clock, x10.Options{
		Receive:    true,
		Validation: x10.StrictValidation,
	})
	require.NoError(t, err)
	require.Equal(t, x10.Profile50Hz, tr.Profile())

	require.NoError(t, tr.SendFunction(x10.HouseJ, x10.AllLightsOn, 1))
	cmd, ok := tr.Take()
	require.True(t, ok)
	require.Equal(t, x10.HouseJ, cmd.House)
	require.Equal(t, x10.AllLightsOn, cmd.Function)
	require.Zero(t, cmd.Unit)

	require.NoError(t, tr.SendFunction(x10.HouseJ, x10.On, 1))
	require.False(t, tr.Ready())
	require.EqualValues(t, 1, tr.Receiver().Stats().Rejected)
}

func TestRoundTripRepeats(t *testing.T) {
	for _, tc := range []struct {
		name       string
		validation x10.Validation
		repeats    int
		frames     uint64
		repeated   uint64
	}{
		// the copy right after a decoded frame falls into the settle hold
		{"strict x2", x10.StrictValidation, 2, 2, 0},
		{"strict x3", x10.StrictValidation, 3, 4, 2},
		{"baseline x2", x10.Validation{}, 2, 2, 0},
		{"baseline x3", x10.Validation{}, 3, 4, 2},
		{"baseline x5", x10.Validation{}, 5, 6, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for h := x10.HouseA; h <= x10.HouseP; h++ {
				unit := x10.UnitCode(16 - (h - x10.HouseA))
				rx, _ := relay(t, 60, x10.Profile60Hz, tc.validation, func(tx *x10.Transmitter) error {
					return tx.SendCommand(h, unit, x10.On, tc.repeats)
				})
				cmd, ok := rx.Take()
				require.True(t, ok, "%s%d", h, unit)
				require.Equal(t, h, cmd.House)
				require.Equal(t, unit, cmd.Unit)
				require.Equal(t, x10.On, cmd.Function)
				require.Equal(t, x10.StartCode, cmd.Start)

				stats := rx.Stats()
				require.EqualValues(t, tc.frames, stats.Frames, "%s%d", h, unit)
				require.EqualValues(t, tc.repeated, stats.Repeats)
				require.EqualValues(t, 1, stats.Commands)
				require.Zero(t, stats.Rejected)
			}
		})
	}
}

func TestRoundTripDimBurst(t *testing.T) {
	for _, tc := range []struct {
		freq    float64
		profile x10.Profile
	}{
		{50, x10.Profile50Hz},
		{60, x10.Profile60Hz},
	} {
		t.Run(fmt.Sprintf("%vHz", tc.freq), func(t *testing.T) {
			rx, _ := relay(t, tc.freq, tc.profile, x10.StrictValidation, func(tx *x10.Transmitter) error {
				if err := tx.SendCommand(x10.HouseA, 1, x10.Dim, 19); err != nil {
					return err
				}
				return tx.Transmit(x10.HouseA, x10.Bright, 3)
			})
			cmd, ok := rx.Take()
			require.True(t, ok)
			require.Equal(t, x10.HouseA, cmd.House)
			require.Equal(t, x10.UnitCode(1), cmd.Unit)
			require.Equal(t, x10.Bright, cmd.Function)

			stats := rx.Stats()
			require.EqualValues(t, 2, stats.Commands)
			require.Zero(t, stats.Rejected)
			// every other copy is decoded, BRIGHT follows DIM with no guard
			// so its first copy falls into the hold after the last DIM
			require.EqualValues(t, 10+10+1, stats.Frames)
			require.EqualValues(t, 9+9, stats.Repeats)
		})
	}
}

func TestRoundTripSeparateSends(t *testing.T) {
	// the same command sent twice with the guard in between is two commands
	rx, _ := relay(t, 60, x10.Profile60Hz, x10.StrictValidation, func(tx *x10.Transmitter) error {
		if err := tx.SendCommand(x10.HouseF, 3, x10.Off, 1); err != nil {
			return err
		}
		return tx.SendFunction(x10.HouseF, x10.Off, 1)
	})
	stats := rx.Stats()
	require.EqualValues(t, 2, stats.Commands)
	require.Zero(t, stats.Repeats)
	cmd, ok := rx.Take()
	require.True(t, ok)
	require.Equal(t, x10.Off, cmd.Function)
	require.Equal(t, x10.UnitCode(3), cmd.Unit)
}

var errAttach = errors.New("edge interrupt unavailable")

type flakyLine struct {
	*sim.Line
	failAttach bool
}

func (l *flakyLine) Attach(h func()) error {
	if l.failAttach {
		return errAttach
	}
	return l.Line.Attach(h)
}

func TestTransceiverReattachError(t *testing.T) {
	line := &flakyLine{Line: sim.NewLine(60)}
	tr, err := x10.NewTransceiver(line, line.Clock, x10.Options{Receive: true})
	require.NoError(t, err)
	require.True(t, line.Attached())

	line.failAttach = true
	c, err := tr.Calibrate()
	require.True(t, errors.Is(err, errAttach))
	require.Equal(t, 60, c.Frequency)
	require.False(t, line.Attached())

	err = tr.Transmit(x10.HouseA, x10.On, 1)
	require.True(t, errors.Is(err, errAttach))

	line.failAttach = false
	_, err = tr.Calibrate()
	require.NoError(t, err)
	require.True(t, line.Attached())
}
