package x10

import (
	"sync"
	"time"

	"github.com/golang/glog"
)

// Options configures a Transceiver.
type Options struct {
	// Profile forces the timing profile. When nil the mains frequency
	// is measured on start.
	Profile *Profile
	// Receive attaches the receiver to the line.
	Receive bool
	// Validation applies to received frames.
	Validation Validation
	// EdgeTimeout bounds every zero-crossing wait. With 0 a missing
	// mains signal blocks Transmit and Calibrate forever.
	EdgeTimeout time.Duration
}

// Transceiver owns one line with its transmitter and receiver. There
// must be only one per zero-crossing input.
type Transceiver struct {
	line        Line
	clock       Clock
	opts        Options
	tx          *Transmitter
	rx          *Receiver
	calibration *Calibration

	lock sync.Mutex
}

// NewTransceiver sets up the line, measures the mains frequency unless
// a profile is forced and attaches the receiver when enabled.
func NewTransceiver(line Line, clock Clock, opts Options) (*Transceiver, error) {
	t := &Transceiver{line: line, clock: clock, opts: opts}
	profile := Profile60Hz
	if opts.Profile != nil {
		profile = *opts.Profile
	}
	t.tx = NewTransmitter(line, clock, profile)
	t.tx.EdgeTimeout = opts.EdgeTimeout
	t.rx = NewReceiver(line, clock, profile, opts.Validation)
	if opts.Receive {
		t.tx.Handler = t.rx.HandleZeroCross
	}
	line.Drive(false)
	line.Indicate(false)

	if opts.Profile == nil {
		if _, err := t.calibrate(); err != nil {
			return nil, err
		}
	} else {
		glog.Infof("x10: forced profile %s", profile)
	}
	if opts.Receive {
		if err := line.Attach(t.rx.HandleZeroCross); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Transmit sends one frame, see Transmitter.Transmit.
func (t *Transceiver) Transmit(house HouseCode, payload Payload, repeats int) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.tx.Transmit(house, payload, repeats)
}

// SendCommand sends a unit frame followed by a function frame.
func (t *Transceiver) SendCommand(house HouseCode, unit UnitCode, fn Function, repeats int) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.tx.SendCommand(house, unit, fn, repeats)
}

// SendFunction sends a function frame alone.
func (t *Transceiver) SendFunction(house HouseCode, fn Function, repeats int) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.tx.SendFunction(house, fn, repeats)
}

// Calibrate measures the mains frequency again and switches profile.
// The receiver is detached meanwhile.
func (t *Transceiver) Calibrate() (c Calibration, err error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.opts.Receive {
		if err = t.line.Detach(); err != nil {
			return c, err
		}
		defer func() {
			if attachErr := t.line.Attach(t.rx.HandleZeroCross); err == nil {
				err = attachErr
			}
		}()
	}
	return t.calibrate()
}

func (t *Transceiver) calibrate() (Calibration, error) {
	c, err := Calibrate(t.line, t.clock, t.opts.EdgeTimeout)
	if err != nil {
		glog.Errorf("x10: calibration failed: %v", err)
		return c, err
	}
	glog.Infof("x10: %s", c)
	t.calibration = &c
	t.tx.Profile = c.Profile
	t.rx.SetProfile(c.Profile)
	return c, nil
}

// Profile returns the timing profile in use.
func (t *Transceiver) Profile() Profile {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.tx.Profile
}

// Calibration returns the last measurement, nil when the profile was
// forced.
func (t *Transceiver) Calibration() *Calibration {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.calibration
}

// Receiver exposes the receiver for Ready, Reset, Take and accessors.
func (t *Transceiver) Receiver() *Receiver {
	return t.rx
}

// Ready tells whether a unit/function pair has been received.
func (t *Transceiver) Ready() bool { return t.rx.Ready() }

// Reset clears the ready flag.
func (t *Transceiver) Reset() { t.rx.Reset() }

// Take returns the received pair and clears the ready flag.
func (t *Transceiver) Take() (Command, bool) { return t.rx.Take() }

// Debug logs the timing profile and the last received pair.
func (t *Transceiver) Debug() {
	glog.Infof("x10: profile %s", t.Profile())
	if c := t.Calibration(); c != nil {
		glog.Infof("x10: %s", c)
	}
	glog.Infof("x10: last %s", t.rx.Last())
}

// Close detaches the receiver and releases the line output.
func (t *Transceiver) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.line.Drive(false)
	t.line.Indicate(false)
	if t.opts.Receive {
		return t.line.Detach()
	}
	return nil
}
