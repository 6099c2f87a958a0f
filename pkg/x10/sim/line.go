package sim

import (
	"errors"
	"time"
)

// Line is a virtual x10.Line. It records the bursts it drives and plays
// Carrier bursts to its receive input. It is not safe for concurrent
// use; the owning Transceiver serializes access.
type Line struct {
	Clock    *Clock
	Mains    Mains
	PollStep time.Duration
	// Carrier holds incoming bursts, ordered by start time.
	Carrier []Pulse
	// Echo replays the bursts sent while the handler was detached as
	// soon as it is attached again, so the line hears itself.
	Echo bool

	driving    bool
	pulseStart time.Duration
	pulses     []Pulse
	detachMark int
	handler    func()
	indicator  bool

	// Indications counts indicator switch-ons.
	Indications int
}

// NewLine creates a Line on its own clock.
func NewLine(freq float64) *Line {
	return &Line{
		Clock:    &Clock{},
		Mains:    Mains{Frequency: freq},
		PollStep: DefaultPollStep,
	}
}

// ZeroCross implements x10.Line.
func (l *Line) ZeroCross() bool {
	step := l.PollStep
	if step <= 0 {
		step = DefaultPollStep
	}
	l.Clock.Delay(step)
	return l.Mains.Level(l.Clock.Now())
}

// Receive implements x10.Line. It is low while a burst is present.
func (l *Line) Receive() bool {
	return !l.CarrierAt(l.Clock.Now())
}

// CarrierAt tells whether an incoming burst covers t.
func (l *Line) CarrierAt(t time.Duration) bool {
	for _, p := range l.Carrier {
		if p.Start > t {
			break
		}
		if t <= p.End {
			return true
		}
	}
	return false
}

// Drive implements x10.Line.
func (l *Line) Drive(level bool) {
	switch {
	case level && !l.driving:
		l.pulseStart = l.Clock.Now()
	case !level && l.driving:
		l.pulses = append(l.pulses, Pulse{Start: l.pulseStart, End: l.Clock.Now()})
	}
	l.driving = level
}

// Indicate implements x10.Line.
func (l *Line) Indicate(on bool) {
	if on && !l.indicator {
		l.Indications++
	}
	l.indicator = on
}

// Indicator returns the indicator state.
func (l *Line) Indicator() bool {
	return l.indicator
}

// Attach implements x10.Line.
func (l *Line) Attach(handler func()) error {
	if handler == nil {
		return errors.New("nil edge handler")
	}
	l.handler = handler
	if l.Echo && l.detachMark < len(l.pulses) {
		sent := l.pulses[l.detachMark:]
		l.detachMark = len(l.pulses)
		l.Replay(sent)
	}
	return nil
}

// Detach implements x10.Line.
func (l *Line) Detach() error {
	l.handler = nil
	l.detachMark = len(l.pulses)
	return nil
}

// Attached tells whether an edge handler is installed.
func (l *Line) Attached() bool {
	return l.handler != nil
}

// Pulses returns the bursts driven so far.
func (l *Line) Pulses() []Pulse {
	return append([]Pulse(nil), l.pulses...)
}

// RunEdges advances the clock edge by edge up to until, calling the
// edge handler on every edge not already passed. Edges overrun by a
// slow handler are lost as they would be on hardware.
func (l *Line) RunEdges(until time.Duration) {
	half := l.Mains.HalfCycle()
	if half == 0 {
		l.Clock.Set(until)
		return
	}
	for n := l.Mains.HalfCycleIndex(l.Clock.Now()) + 1; l.Mains.Edge(n) <= until; n++ {
		edge := l.Mains.Edge(n)
		if edge < l.Clock.Now() {
			continue
		}
		l.Clock.Set(edge)
		if h := l.handler; h != nil {
			h()
		}
	}
	l.Clock.Set(until)
}

// ReplayTail is the number of half cycles run after the last replayed
// burst, enough for the receiver to finish its frame.
const ReplayTail = 8

// Replay plays pulses recorded on any line with the same mains to the
// receive input, shifted by a whole number of cycles into the future,
// and runs the edges until they are over.
func (l *Line) Replay(pulses []Pulse) {
	half := l.Mains.HalfCycle()
	if len(pulses) == 0 || half == 0 {
		return
	}
	shift := l.Mains.HalfCycleIndex(l.Clock.Now()) + 2 - l.Mains.HalfCycleIndex(pulses[0].Start)
	if shift%2 != 0 {
		shift++
	}
	offset := time.Duration(shift) * half
	carrier := make([]Pulse, len(pulses))
	for n, p := range pulses {
		carrier[n] = Pulse{Start: p.Start + offset, End: p.End + offset}
	}
	l.Carrier = carrier
	last := l.Mains.HalfCycleIndex(carrier[len(carrier)-1].End)
	l.RunEdges(l.Mains.Edge(last + ReplayTail))
}
