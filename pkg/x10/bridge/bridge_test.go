package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/x10.go/pkg/x10"
	"github.com/robotalks/x10.go/pkg/x10/msgs"
)

type fakeSwitch struct {
	states []string
}

func (s *fakeSwitch) Update(state string) error {
	s.states = append(s.states, state)
	return nil
}

type fakeFactory map[Address]*fakeSwitch

func (f fakeFactory) create(house x10.HouseCode, unit x10.UnitCode) (Switch, error) {
	sw := &fakeSwitch{}
	f[Address{house, unit}] = sw
	return sw, nil
}

func command(house string, unit uint32, fn x10.Function) *msgs.X10Command {
	return msgs.CommandFrom(x10.Command{
		Start:    x10.StartCode,
		House:    x10.HouseCode(house[0]),
		Unit:     x10.UnitCode(unit),
		Function: fn,
	})
}

func TestBridgeApply(t *testing.T) {
	switches := fakeFactory{}
	b := New(switches.create)
	require.NoError(t, b.Declare(Address{x10.HouseA, 2}))

	require.NoError(t, b.Apply(command("A", 1, x10.On)))
	require.NoError(t, b.Apply(command("B", 1, x10.On)))
	require.NoError(t, b.Apply(command("A", 1, x10.Off)))
	require.NoError(t, b.Apply(command("A", 0, x10.AllLightsOn)))
	require.NoError(t, b.Apply(command("A", 1, x10.Dim)))

	require.Equal(t, []string{"1", "0", "1"}, switches[Address{x10.HouseA, 1}].states)
	require.Equal(t, []string{"1"}, switches[Address{x10.HouseA, 2}].states)
	require.Equal(t, []string{"1"}, switches[Address{x10.HouseB, 1}].states)

	require.NoError(t, b.Apply(command("A", 0, x10.AllUnitsOff)))
	on, known := b.State(Address{x10.HouseA, 2})
	require.True(t, known)
	require.False(t, on)
	on, _ = b.State(Address{x10.HouseB, 1})
	require.True(t, on)

	require.Equal(t, []Address{{x10.HouseA, 1}, {x10.HouseA, 2}, {x10.HouseB, 1}}, b.Addresses())
}

func TestBridgeSentAndReceived(t *testing.T) {
	switches := fakeFactory{}
	b := New(switches.create)
	a5 := Address{x10.HouseA, 5}

	// a command sent by the controller updates the switch with no echo
	taken, err := b.handle(&msgs.X10Sent{Command: command("A", 5, x10.On)})
	require.True(t, taken)
	require.NoError(t, err)
	on, known := b.State(a5)
	require.True(t, known)
	require.True(t, on)

	// hearing it back changes nothing
	taken, err = b.handle(&msgs.X10Received{Command: command("A", 5, x10.On)})
	require.True(t, taken)
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, switches[a5].states)

	taken, err = b.handle(&msgs.X10Received{Command: command("A", 5, x10.Off)})
	require.True(t, taken)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "0"}, switches[a5].states)

	taken, err = b.handle(&msgs.X10Sent{})
	require.True(t, taken)
	require.NoError(t, err)

	taken, _ = b.handle(&msgs.X10Send{House: "A", Unit: 5, Function: "ON"})
	require.False(t, taken)
}

func TestBridgeFactoryError(t *testing.T) {
	boom := errors.New("boom")
	b := New(func(x10.HouseCode, x10.UnitCode) (Switch, error) { return nil, boom })
	err := b.Apply(command("C", 3, x10.On))
	require.True(t, errors.Is(err, boom))
	require.Empty(t, b.Addresses())
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("p16")
	require.NoError(t, err)
	require.Equal(t, Address{x10.HouseP, 16}, addr)
	require.Equal(t, "P16", addr.String())

	for _, s := range []string{"", "A", "Q1", "A0", "A17", "Ax"} {
		_, err := ParseAddress(s)
		require.Error(t, err, s)
	}
}
