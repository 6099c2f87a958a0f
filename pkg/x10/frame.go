package x10

import "fmt"

// StartCode is the 4-bit preamble of every frame.
const StartCode byte = 0xe // 1110

// Frame bit sizes.
const (
	StartBits   = 4
	HouseBits   = 4
	PayloadBits = 5
	FrameBits   = StartBits + HouseBits + PayloadBits
)

// Frame is a 13-bit X10 frame, most significant bit first on the wire.
type Frame uint16

// NewFrame assembles a frame from house and payload.
func NewFrame(house HouseCode, payload Payload) (Frame, error) {
	if !house.Valid() {
		return 0, &CodeError{Kind: KindHouse, Name: house.String()}
	}
	pattern, err := payloadPattern(payload)
	if err != nil {
		return 0, err
	}
	return Frame(uint16(StartCode)<<9 | uint16(house.Pattern())<<5 | uint16(pattern)), nil
}

func payloadPattern(payload Payload) (byte, error) {
	switch p := payload.(type) {
	case nil:
		return 0, fmt.Errorf("nil payload: %w", ErrUnknownCode)
	case UnitCode:
		if !p.Valid() {
			return 0, fmt.Errorf("unit %d: %w", p, ErrInvalidUnit)
		}
	case Function:
		if p&1 == 0 || p > 0x1f {
			return 0, &CodeError{Kind: KindFunction, Pattern: byte(p)}
		}
	}
	return payload.Pattern() & 0x1f, nil
}

// Start returns the 4-bit start code.
func (f Frame) Start() byte {
	return byte(f>>9) & 0xf
}

// HousePattern returns the 4-bit house pattern.
func (f Frame) HousePattern() byte {
	return byte(f>>5) & 0xf
}

// PayloadPattern returns the 5-bit unit or function pattern.
func (f Frame) PayloadPattern() byte {
	return byte(f) & 0x1f
}

// IsFunction tells whether the frame carries a function; unit patterns
// are even, function patterns odd.
func (f Frame) IsFunction() bool {
	return f&1 == 1
}

// String formats the frame as "1110 0110 00101".
func (f Frame) String() string {
	return fmt.Sprintf("%04b %04b %05b", f.Start(), f.HousePattern(), f.PayloadPattern())
}
