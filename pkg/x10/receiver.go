package x10

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Validation selects the checks applied to decoded frames. The zero
// value accepts every frame as it is decoded.
type Validation struct {
	// StartCode drops frames whose start code is not 1110.
	StartCode bool
	// HouseMatch drops a function frame whose house differs from the
	// preceding unit frame. House-wide functions need no unit frame.
	HouseMatch bool
	// KnownCodes drops frames with a house, unit or function pattern
	// missing from the code tables.
	KnownCodes bool
	// DropPhantomP16 drops the spurious P-16 pair some interfaces emit.
	DropPhantomP16 bool
}

// StrictValidation enables the start code, house match and known code checks.
var StrictValidation = Validation{StartCode: true, HouseMatch: true, KnownCodes: true}

// Command is a decoded unit/function pair.
type Command struct {
	Start        byte
	House        HouseCode
	HousePattern byte
	Unit         UnitCode
	UnitPattern  byte
	Function     Function
}

// String formats the command for diagnostics.
func (c Command) String() string {
	s := fmt.Sprintf("SC-%04b HOUSE-%s UNIT-%d CMND-%d", c.Start, c.House, c.Unit, c.Function)
	switch c.Function {
	case On, Off:
		s += " (" + c.Function.String() + ")"
	}
	return s
}

// ReceiverStats counts receiver activity. Repeats counts copies of a
// frame sent back to back, which are decoded once.
type ReceiverStats struct {
	Frames   uint64
	Commands uint64
	Rejected uint64
	Repeats  uint64
}

// repeatGap is the longest silence, in half cycles, between the last
// burst of a frame and the start code of its next copy.
const repeatGap = 3

// Receiver decodes frames from bursts sampled on zero-crossing edges.
type Receiver struct {
	line  Line
	clock Clock

	// accumulator, owned by HandleZeroCross
	isrLock    sync.Mutex
	profile    Profile
	validation Validation
	bitCount   int
	crossCount int
	mask       uint16
	buf        uint16
	// start code window while hunting, with the sample times
	window      byte
	windowLen   int
	windowAt    [StartBits]time.Duration
	lastCarrier time.Duration
	contiguous  bool
	lastFrame   Frame
	haveFrame   bool

	lock      sync.Mutex
	cmd       Command
	ready     bool
	addressed bool
	unitHouse HouseCode
	stats     ReceiverStats
}

// NewReceiver creates a Receiver.
func NewReceiver(line Line, clock Clock, profile Profile, validation Validation) *Receiver {
	return &Receiver{line: line, clock: clock, profile: profile, validation: validation}
}

// SetProfile replaces the timing profile.
func (r *Receiver) SetProfile(p Profile) {
	r.isrLock.Lock()
	r.profile = p
	r.isrLock.Unlock()
}

// SetValidation replaces the validation settings.
func (r *Receiver) SetValidation(v Validation) {
	r.isrLock.Lock()
	r.validation = v
	r.isrLock.Unlock()
}

// HandleZeroCross is the edge handler to Attach on the zero-crossing
// input. It must see both edges.
//
// Until a start code is found every edge is sampled into a window which
// only locks on 1110. Inside complemented data every bit pair carries
// exactly one burst, so the window cannot lock in the middle of a frame
// and copies sent back to back are picked up at their own start code.
func (r *Receiver) HandleZeroCross() {
	r.isrLock.Lock()
	defer r.isrLock.Unlock()

	if r.bitCount < StartBits {
		r.clock.Delay(r.profile.OffsetDelay)
		r.hunt(!r.line.Receive(), r.clock.Now())
		return
	}

	r.crossCount++
	// past the start code only odd crossings carry data, even ones
	// carry the complement
	if r.crossCount&1 == 0 {
		return
	}
	r.clock.Delay(r.profile.OffsetDelay)
	if !r.line.Receive() {
		r.buf |= r.mask
		r.lastCarrier = r.clock.Now()
	}
	r.mask >>= 1
	r.bitCount++
	if r.bitCount < FrameBits {
		return
	}
	for i := 0; i < 5; i++ {
		r.clock.Delay(r.profile.HalfCycleDelay)
	}
	r.line.Indicate(false)
	r.bitCount = 0
	f := Frame(r.buf)
	if r.contiguous && r.haveFrame && f == r.lastFrame {
		r.repeated(f)
	} else {
		r.parse(f)
	}
	r.lastFrame, r.haveFrame = f, true
}

// hunt shifts one sample into the start code window and drops leading
// samples until the window is a prefix of the start code again.
func (r *Receiver) hunt(carrier bool, now time.Duration) {
	if r.windowLen == 0 {
		if !carrier {
			return
		}
		r.line.Indicate(true)
	}
	r.window <<= 1
	if carrier {
		r.window |= 1
	}
	r.windowAt[r.windowLen] = now
	r.windowLen++
	for r.windowLen > 0 && r.window != StartCode>>uint(StartBits-r.windowLen) {
		r.windowLen--
		if r.window>>uint(r.windowLen)&1 != 0 {
			r.lastCarrier = r.windowAt[0]
		}
		r.window &= 1<<uint(r.windowLen) - 1
		copy(r.windowAt[:], r.windowAt[1:])
	}
	switch r.windowLen {
	case 0:
		r.line.Indicate(false)
	case StartBits:
		r.contiguous = r.windowAt[0]-r.lastCarrier < repeatGap*r.profile.HalfCycleDelay
		r.lastCarrier = r.windowAt[StartBits-2]
		r.buf = uint16(StartCode) << (FrameBits - StartBits)
		r.mask = 1 << (FrameBits - StartBits - 1)
		r.bitCount = StartBits
		r.crossCount = StartBits
		r.window, r.windowLen = 0, 0
	}
}

func (r *Receiver) repeated(f Frame) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.stats.Frames++
	r.stats.Repeats++
	glog.V(2).Infof("RX %s repeated", f)
}

func (r *Receiver) parse(f Frame) {
	v := r.validation
	start := f.Start()
	house, houseErr := HouseFromPattern(f.HousePattern())

	r.lock.Lock()
	defer r.lock.Unlock()
	r.stats.Frames++

	reject := func(reason string) {
		r.stats.Rejected++
		r.ready = false
		glog.V(1).Infof("RX %s rejected: %s", f, reason)
	}

	if v.StartCode && start != StartCode {
		reject("bad start code")
		return
	}
	if v.KnownCodes && houseErr != nil {
		reject(houseErr.Error())
		return
	}

	if !f.IsFunction() {
		unit, err := UnitFromPattern(f.PayloadPattern())
		if v.KnownCodes && err != nil {
			reject(err.Error())
			return
		}
		r.cmd = Command{
			Start:        start,
			House:        house,
			HousePattern: f.HousePattern(),
			Unit:         unit,
			UnitPattern:  f.PayloadPattern(),
		}
		r.ready = false
		r.addressed = true
		r.unitHouse = house
		glog.V(2).Infof("RX %s unit %s%s", f, house, unit)
		return
	}

	fn := Function(f.PayloadPattern())
	if v.KnownCodes && !fn.Known() {
		reject(fmt.Sprintf("unknown function %05b", byte(fn)))
		return
	}
	if v.HouseMatch && !fn.HouseWide() && (!r.addressed || r.unitHouse != house) {
		reject("house mismatch")
		return
	}
	if v.DropPhantomP16 && house == HouseP && r.cmd.Unit == 16 {
		reject("phantom P-16")
		return
	}
	if fn.HouseWide() && (!r.addressed || r.unitHouse != house) {
		r.cmd.Unit, r.cmd.UnitPattern = 0, 0
	}
	r.cmd.Start = start
	r.cmd.House = house
	r.cmd.HousePattern = f.HousePattern()
	r.cmd.Function = fn
	r.ready = true
	r.stats.Commands++
	glog.V(2).Infof("RX %s function %s %s", f, house, fn)
}

// Ready tells whether a complete unit/function pair has been decoded.
// The flag stays set until Reset or Take.
func (r *Receiver) Ready() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.ready
}

// Reset clears the ready flag.
func (r *Receiver) Reset() {
	r.lock.Lock()
	r.ready = false
	r.lock.Unlock()
}

// House returns the house of the last decoded frame.
func (r *Receiver) House() HouseCode {
	return r.Last().House
}

// Unit returns the last decoded unit.
func (r *Receiver) Unit() UnitCode {
	return r.Last().Unit
}

// Function returns the last decoded function.
func (r *Receiver) Function() Function {
	return r.Last().Function
}

// Last returns a snapshot of the decoded results.
func (r *Receiver) Last() Command {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.cmd
}

// Take returns the decoded pair and clears the ready flag, ok is false
// if no pair is ready.
func (r *Receiver) Take() (cmd Command, ok bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if !r.ready {
		return Command{}, false
	}
	r.ready = false
	return r.cmd, true
}

// Stats returns the counters.
func (r *Receiver) Stats() ReceiverStats {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.stats
}
