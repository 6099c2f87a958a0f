// Package xtb programs the mode options of an XTB-IIR power line
// interface by sending the key sequence a Maxi controller would.
//
// Every sequence is 9-8-2 on the programming house code, then the unit
// key of the option and finally ON or OFF. The interface only accepts
// keys less than 4 seconds apart.
package xtb

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/x10.go/pkg/x10"
)

// Mode is a mode option, numbered by its unit key 1..16.
type Mode int

// Mode options.
const (
	ReturnAllBits      Mode = 1
	ProgrammingHouse   Mode = 2
	PreWindowAGC       Mode = 3
	PostWindowAGC      Mode = 4
	HighAGCThreshold   Mode = 5
	HighSensitivity    Mode = 6
	HighStormThreshold Mode = 7
	SingleRepeat       Mode = 8
	SmartBrightDim     Mode = 9
	AbortOnCollision   Mode = 10
	AutoRetransmit     Mode = 11
	ReducedPower       Mode = 12
	DelayBurst         Mode = 13
	ThreePhase         Mode = 14
	TW523              Mode = 15
	Repeater           Mode = 16
)

var modeInfo = [16]struct {
	name string
	on   bool
}{
	{"return-all-bits", false},
	{"programming-house", false},
	{"pre-window-agc", true},
	{"post-window-agc", true},
	{"high-agc-threshold", false},
	{"high-sensitivity", true},
	{"high-storm-threshold", false},
	{"single-repeat", false},
	{"smart-bright-dim", true},
	{"abort-on-collision", false},
	{"auto-retransmit", false},
	{"reduced-power", false},
	{"delay-burst", false},
	{"three-phase", false},
	{"tw523", false},
	{"repeater", true},
}

// Valid tells whether m is 1..16.
func (m Mode) Valid() bool {
	return m >= 1 && m <= 16
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeInfo[m-1].name
}

// Default returns the factory setting.
func (m Mode) Default() bool {
	return m.Valid() && modeInfo[m-1].on
}

// ParseMode accepts a mode name or number.
func ParseMode(s string) (Mode, error) {
	for n, info := range modeInfo {
		if info.name == s {
			return Mode(n + 1), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && Mode(n).Valid() {
		return Mode(n), nil
	}
	return 0, fmt.Errorf("unknown XTB mode %q", s)
}

// Sender transmits frames, implemented by x10.Transceiver.
type Sender interface {
	Transmit(house x10.HouseCode, payload x10.Payload, repeats int) error
}

// DefaultHouse is the factory programming house code.
const DefaultHouse = x10.HouseP

// DefaultKeyDelay is the pause after each key.
const DefaultKeyDelay = time.Second

// Programmer sends programming sequences.
type Programmer struct {
	Sender   Sender
	House    x10.HouseCode
	KeyDelay time.Duration
	Repeats  int
	Sleep    func(time.Duration)
}

// NewProgrammer creates a Programmer with factory defaults.
func NewProgrammer(s Sender) *Programmer {
	return &Programmer{
		Sender:   s,
		House:    DefaultHouse,
		KeyDelay: DefaultKeyDelay,
		Repeats:  2,
		Sleep:    time.Sleep,
	}
}

var prefix = []x10.UnitCode{9, 8, 2}

// SetMode turns a mode option on or off.
func (p *Programmer) SetMode(m Mode, enable bool) error {
	fn := x10.Off
	if enable {
		fn = x10.On
	}
	return p.Program(m, fn)
}

// Program sends 9-8-2-<mode> followed by fn, which is ON or OFF for
// most options and DIM, ALL_UNITS_OFF or ALL_LIGHTS_ON for the special
// forms of option 2.
func (p *Programmer) Program(m Mode, fn x10.Function) error {
	if !m.Valid() {
		return fmt.Errorf("%v: %w", m, x10.ErrInvalidUnit)
	}
	glog.Infof("xtb: program %s %s on house %s", m, fn, p.House)
	keys := append(append([]x10.UnitCode(nil), prefix...), x10.UnitCode(m))
	for _, key := range keys {
		if err := p.key(key); err != nil {
			return err
		}
	}
	return p.key(fn)
}

func (p *Programmer) key(payload x10.Payload) error {
	repeats := p.Repeats
	if repeats < 1 {
		repeats = 1
	}
	if err := p.Sender.Transmit(p.House, payload, repeats); err != nil {
		return fmt.Errorf("xtb key %v: %w", payload, err)
	}
	if p.Sleep != nil {
		p.Sleep(p.KeyDelay)
	}
	return nil
}
