package x10

import (
	"fmt"
	"strconv"
	"strings"
)

// HouseCode is one of the 16 house letters 'A' to 'P'.
// The zero value means no house.
type HouseCode byte

// House codes.
const (
	HouseA HouseCode = 'A' + iota
	HouseB
	HouseC
	HouseD
	HouseE
	HouseF
	HouseG
	HouseH
	HouseI
	HouseJ
	HouseK
	HouseL
	HouseM
	HouseN
	HouseO
	HouseP
)

// UnitCode is a unit number 1 to 16. The zero value means no unit.
type UnitCode byte

// Function is a 5-bit function (command) pattern. Values not listed
// below are carried through uninterpreted.
type Function byte

// Functions, valued by their wire pattern.
const (
	AllUnitsOff     Function = 0x01 // 00001
	AllLightsOn     Function = 0x03 // 00011
	On              Function = 0x05 // 00101
	Off             Function = 0x07 // 00111
	Dim             Function = 0x09 // 01001
	Bright          Function = 0x0b // 01011
	AllLightsOff    Function = 0x0d // 01101
	ExtendedCode    Function = 0x0f // 01111
	HailRequest     Function = 0x11 // 10001
	HailAcknowledge Function = 0x13 // 10011
	PresetDim       Function = 0x15 // 10101
	ExtendedData    Function = 0x19 // 11001
	StatusOn        Function = 0x1b // 11011
	StatusOff       Function = 0x1d // 11101
	StatusRequest   Function = 0x1f // 11111
)

// Payload is the last 5 bits of a frame: a UnitCode or a Function.
type Payload interface {
	Pattern() byte
}

var (
	housePatterns = [16]byte{
		0x6, // A 0110
		0xe, // B 1110
		0x2, // C 0010
		0xa, // D 1010
		0x1, // E 0001
		0x9, // F 1001
		0x5, // G 0101
		0xd, // H 1101
		0x7, // I 0111
		0xf, // J 1111
		0x3, // K 0011
		0xb, // L 1011
		0x0, // M 0000
		0x8, // N 1000
		0x4, // O 0100
		0xc, // P 1100
	}

	unitPatterns = [16]byte{
		0x0c, // 1  01100
		0x1c, // 2  11100
		0x04, // 3  00100
		0x14, // 4  10100
		0x02, // 5  00010
		0x12, // 6  10010
		0x0a, // 7  01010
		0x1a, // 8  11010
		0x0e, // 9  01110
		0x1e, // 10 11110
		0x06, // 11 00110
		0x16, // 12 10110
		0x00, // 13 00000
		0x10, // 14 10000
		0x08, // 15 01000
		0x18, // 16 11000
	}

	functionNames = map[Function]string{
		AllUnitsOff:     "ALL_UNITS_OFF",
		AllLightsOn:     "ALL_LIGHTS_ON",
		On:              "ON",
		Off:             "OFF",
		Dim:             "DIM",
		Bright:          "BRIGHT",
		AllLightsOff:    "ALL_LIGHTS_OFF",
		ExtendedCode:    "EXTENDED_CODE",
		HailRequest:     "HAIL_REQUEST",
		HailAcknowledge: "HAIL_ACKNOWLEDGE",
		PresetDim:       "PRESET_DIM",
		ExtendedData:    "EXTENDED_DATA",
		StatusOn:        "STATUS_ON",
		StatusOff:       "STATUS_OFF",
		StatusRequest:   "STATUS_REQUEST",
	}
)

// Valid tells whether h is one of 'A' to 'P'.
func (h HouseCode) Valid() bool {
	return h >= HouseA && h <= HouseP
}

// Pattern returns the 4-bit wire pattern, 0 for an invalid house.
func (h HouseCode) Pattern() byte {
	if !h.Valid() {
		return 0
	}
	return housePatterns[h-HouseA]
}

func (h HouseCode) String() string {
	if !h.Valid() {
		return "?"
	}
	return string(rune(h))
}

// HouseFromPattern maps a 4-bit pattern back to the house letter.
func HouseFromPattern(pattern byte) (HouseCode, error) {
	for n, p := range housePatterns {
		if p == pattern {
			return HouseA + HouseCode(n), nil
		}
	}
	return 0, &CodeError{Kind: KindHouse, Pattern: pattern}
}

// ParseHouse parses a house letter, case insensitive.
func ParseHouse(s string) (HouseCode, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		if h := HouseCode(strings.ToUpper(s)[0]); h.Valid() {
			return h, nil
		}
	}
	return 0, &CodeError{Kind: KindHouse, Name: s}
}

// Valid tells whether u is within 1..16.
func (u UnitCode) Valid() bool {
	return u >= 1 && u <= 16
}

// Pattern implements Payload. It returns 0 for an invalid unit which
// happens to be the pattern of unit 13, so callers validate first.
func (u UnitCode) Pattern() byte {
	if !u.Valid() {
		return 0
	}
	return unitPatterns[u-1]
}

func (u UnitCode) String() string {
	return strconv.Itoa(int(u))
}

// UnitFromPattern maps a 5-bit pattern back to the unit number.
func UnitFromPattern(pattern byte) (UnitCode, error) {
	for n, p := range unitPatterns {
		if p == pattern {
			return UnitCode(n + 1), nil
		}
	}
	return 0, &CodeError{Kind: KindUnit, Pattern: pattern}
}

// ParseUnit parses a unit number 1..16.
func ParseUnit(s string) (UnitCode, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 16 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidUnit)
	}
	return UnitCode(n), nil
}

// Pattern implements Payload.
func (f Function) Pattern() byte {
	return byte(f) & 0x1f
}

// Known tells whether f is one of the defined functions.
func (f Function) Known() bool {
	_, ok := functionNames[f]
	return ok
}

func (f Function) String() string {
	if name, ok := functionNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FUNC(0x%02x)", byte(f))
}

// ParseFunction parses a function name like "ON" or "all_units_off".
// A number is accepted as a raw odd pattern.
func ParseFunction(s string) (Function, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for f, n := range functionNames {
		if n == name {
			return f, nil
		}
	}
	if v, err := strconv.ParseUint(name, 0, 8); err == nil && v < 0x20 && v&1 == 1 {
		return Function(v), nil
	}
	return 0, &CodeError{Kind: KindFunction, Name: s}
}

// HouseWide tells whether f addresses all units of a house and so is
// meaningful without a preceding unit frame.
func (f Function) HouseWide() bool {
	switch f {
	case AllUnitsOff, AllLightsOn, AllLightsOff:
		return true
	}
	return false
}
