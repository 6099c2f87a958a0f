package x10

import (
	"fmt"
	"time"

	"github.com/golang/glog"
)

// Phases is the number of bursts sent per bit, one per mains phase.
const Phases = 3

// GuardCrossings is the silence after a frame, 3 mains cycles.
const GuardCrossings = 6

// Transmitter sends frames on a Line.
type Transmitter struct {
	Line    Line
	Clock   Clock
	Profile Profile
	// Handler is the receive edge handler. When set it is detached for
	// the duration of a transmission and attached again afterwards.
	Handler func()
	// EdgeTimeout bounds each zero-crossing wait, 0 waits forever.
	EdgeTimeout time.Duration
}

// NewTransmitter creates a Transmitter.
func NewTransmitter(line Line, clock Clock, profile Profile) *Transmitter {
	return &Transmitter{Line: line, Clock: clock, Profile: profile}
}

// Transmit sends the frame made of house and payload repeats times,
// followed by the guard gap unless payload is DIM or BRIGHT so those
// can be sent back to back.
func (t *Transmitter) Transmit(house HouseCode, payload Payload, repeats int) (err error) {
	if repeats < 1 {
		return fmt.Errorf("%d: %w", repeats, ErrInvalidRepeat)
	}
	frame, err := NewFrame(house, payload)
	if err != nil {
		return err
	}
	if t.Handler != nil {
		if err = t.Line.Detach(); err != nil {
			return err
		}
		defer func() {
			if attachErr := t.Line.Attach(t.Handler); err == nil {
				err = attachErr
			}
		}()
	}
	defer t.Line.Drive(false)

	glog.V(2).Infof("TX %s [%s/%v] x%d", frame, house, payload, repeats)
	for i := 0; i < repeats; i++ {
		if err = t.sendBits(uint16(frame.Start()), StartBits, true); err != nil {
			return err
		}
		if err = t.sendBits(uint16(frame.HousePattern()), HouseBits, false); err != nil {
			return err
		}
		if err = t.sendBits(uint16(frame.PayloadPattern()), PayloadBits, false); err != nil {
			return err
		}
	}
	if fn, ok := payload.(Function); !ok || (fn != Dim && fn != Bright) {
		err = waitZeroCross(t.Line, t.Clock, GuardCrossings, t.EdgeTimeout)
	}
	return err
}

// SendCommand addresses unit and then sends fn to it, the usual two
// frame exchange.
func (t *Transmitter) SendCommand(house HouseCode, unit UnitCode, fn Function, repeats int) error {
	if err := t.Transmit(house, unit, repeats); err != nil {
		return err
	}
	return t.Transmit(house, fn, repeats)
}

// SendFunction sends fn alone. Receivers act on it when it is house
// wide or when a unit of house was addressed before.
func (t *Transmitter) SendFunction(house HouseCode, fn Function, repeats int) error {
	return t.Transmit(house, fn, repeats)
}

func (t *Transmitter) sendBits(value uint16, n int, isStart bool) error {
	for i := n - 1; i >= 0; i-- {
		if err := waitZeroCross(t.Line, t.Clock, 1, t.EdgeTimeout); err != nil {
			return err
		}
		bit := value&(1<<uint(i)) != 0
		t.burst(bit)
		if isStart {
			continue
		}
		if err := waitZeroCross(t.Line, t.Clock, 1, t.EdgeTimeout); err != nil {
			return err
		}
		t.burst(!bit)
	}
	return nil
}

func (t *Transmitter) burst(bit bool) {
	for phase := 0; phase < Phases; phase++ {
		t.Line.Drive(bit)
		t.Clock.Delay(t.Profile.BitLength)
		t.Line.Drive(false)
		t.Clock.Delay(t.Profile.BitDelay)
	}
}
