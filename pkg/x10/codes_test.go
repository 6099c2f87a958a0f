package x10

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHouseRoundTrip(t *testing.T) {
	seen := make(map[byte]HouseCode)
	for h := HouseA; h <= HouseP; h++ {
		pattern := h.Pattern()
		require.True(t, pattern < 0x10)
		_, dup := seen[pattern]
		require.False(t, dup, "pattern %04b used twice", pattern)
		seen[pattern] = h
		decoded, err := HouseFromPattern(pattern)
		require.NoError(t, err)
		require.Equal(t, h, decoded)
	}
	require.Len(t, seen, 16)
	require.Equal(t, byte(0x6), HouseA.Pattern())
	require.Equal(t, byte(0xc), HouseP.Pattern())
}

func TestUnitRoundTrip(t *testing.T) {
	seen := make(map[byte]bool)
	for u := UnitCode(1); u <= 16; u++ {
		pattern := u.Pattern()
		require.Zero(t, pattern&1, "unit %d pattern must be even", u)
		require.False(t, seen[pattern])
		seen[pattern] = true
		decoded, err := UnitFromPattern(pattern)
		require.NoError(t, err)
		require.Equal(t, u, decoded)
	}
	require.Equal(t, byte(0x0c), UnitCode(1).Pattern())
	require.Equal(t, byte(0x18), UnitCode(16).Pattern())
}

func TestFunctionPatternsOdd(t *testing.T) {
	for fn, name := range functionNames {
		require.Equal(t, byte(1), fn.Pattern()&1, name)
		require.True(t, fn.Known())
		require.Equal(t, name, fn.String())
	}
	require.Equal(t, "FUNC(0x17)", Function(0x17).String())
	require.False(t, Function(0x17).Known())
}

func TestUnknownPatterns(t *testing.T) {
	_, err := UnitFromPattern(0x01)
	require.True(t, errors.Is(err, ErrUnknownCode))
	var codeErr *CodeError
	require.True(t, errors.As(err, &codeErr))
	require.Equal(t, KindUnit, codeErr.Kind)

	_, err = HouseFromPattern(0x10)
	require.True(t, errors.Is(err, ErrUnknownCode))

	require.Equal(t, "?", HouseCode(0).String())
	require.Zero(t, HouseCode('Q').Pattern())
}

func TestParseCodes(t *testing.T) {
	h, err := ParseHouse("c")
	require.NoError(t, err)
	require.Equal(t, HouseC, h)
	_, err = ParseHouse("Q")
	require.True(t, errors.Is(err, ErrUnknownCode))

	for _, tc := range []struct {
		in  string
		out UnitCode
		ok  bool
	}{
		{"1", 1, true},
		{" 16", 16, true},
		{"0", 0, false},
		{"17", 0, false},
		{"x", 0, false},
	} {
		t.Run(fmt.Sprintf("unit %q", tc.in), func(t *testing.T) {
			u, err := ParseUnit(tc.in)
			if !tc.ok {
				require.True(t, errors.Is(err, ErrInvalidUnit))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.out, u)
		})
	}

	for _, tc := range []struct {
		in  string
		out Function
		ok  bool
	}{
		{"on", On, true},
		{"ALL_UNITS_OFF", AllUnitsOff, true},
		{"0x13", HailAcknowledge, true},
		{"23", Function(0x17), true},
		{"0x04", 0, false},
		{"blink", 0, false},
	} {
		t.Run(fmt.Sprintf("function %q", tc.in), func(t *testing.T) {
			fn, err := ParseFunction(tc.in)
			if !tc.ok {
				require.True(t, errors.Is(err, ErrUnknownCode))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.out, fn)
		})
	}
}

func TestFrame(t *testing.T) {
	f, err := NewFrame(HouseA, On)
	require.NoError(t, err)
	require.Equal(t, Frame(0x1cc5), f)
	require.Equal(t, "1110 0110 00101", f.String())
	require.True(t, f.IsFunction())
	require.Equal(t, StartCode, f.Start())
	require.Equal(t, byte(0x6), f.HousePattern())
	require.Equal(t, byte(0x05), f.PayloadPattern())

	f, err = NewFrame(HouseA, UnitCode(1))
	require.NoError(t, err)
	require.False(t, f.IsFunction())
	require.Equal(t, "1110 0110 01100", f.String())

	_, err = NewFrame(HouseA, UnitCode(17))
	require.True(t, errors.Is(err, ErrInvalidUnit))
	_, err = NewFrame(HouseA, Function(0x04))
	require.True(t, errors.Is(err, ErrUnknownCode))
	_, err = NewFrame(HouseCode(0), On)
	require.True(t, errors.Is(err, ErrUnknownCode))
	_, err = NewFrame(HouseA, nil)
	require.Error(t, err)
}
