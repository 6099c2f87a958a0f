// Package bridge mirrors X10 unit states into a home automation system.
// Every house/unit seen on the line becomes a switch; ALL_* functions
// update every known switch of the house.
package bridge

import (
	"fmt"
	"sort"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/x10"
	"github.com/robotalks/x10.go/pkg/x10/msgs"
)

// Switch receives the state of one unit, "1" for on and "0" for off.
type Switch interface {
	Update(state string) error
}

// Factory creates the Switch of a unit.
type Factory func(house x10.HouseCode, unit x10.UnitCode) (Switch, error)

// Address names a unit, e.g. A1.
type Address struct {
	House x10.HouseCode
	Unit  x10.UnitCode
}

func (a Address) String() string {
	return fmt.Sprintf("%s%d", a.House, a.Unit)
}

// ParseAddress parses A1 .. P16.
func ParseAddress(s string) (Address, error) {
	if len(s) < 2 {
		return Address{}, fmt.Errorf("invalid address %q", s)
	}
	house, err := x10.ParseHouse(s[:1])
	if err != nil {
		return Address{}, err
	}
	unit, err := x10.ParseUnit(s[1:])
	if err != nil {
		return Address{}, err
	}
	return Address{House: house, Unit: unit}, nil
}

// Bridge tracks switches and applies received commands.
type Bridge struct {
	Factory Factory

	lock     sync.Mutex
	switches map[Address]Switch
	states   map[Address]bool
}

// New creates a Bridge.
func New(factory Factory) *Bridge {
	return &Bridge{
		Factory:  factory,
		switches: make(map[Address]Switch),
		states:   make(map[Address]bool),
	}
}

// Declare creates the switch of addr ahead of any traffic.
func (b *Bridge) Declare(addr Address) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	_, err := b.switchFor(addr)
	return err
}

// Addresses lists the known units in order.
func (b *Bridge) Addresses() []Address {
	b.lock.Lock()
	defer b.lock.Unlock()
	addrs := make([]Address, 0, len(b.switches))
	for addr := range b.switches {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		if addrs[i].House != addrs[j].House {
			return addrs[i].House < addrs[j].House
		}
		return addrs[i].Unit < addrs[j].Unit
	})
	return addrs
}

// State returns the last known state of addr.
func (b *Bridge) State(addr Address) (on, known bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	on, known = b.states[addr]
	return
}

func (b *Bridge) switchFor(addr Address) (Switch, error) {
	if sw := b.switches[addr]; sw != nil {
		return sw, nil
	}
	sw, err := b.Factory(addr.House, addr.Unit)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", addr, err)
	}
	b.switches[addr] = sw
	glog.Infof("bridge: %s added", addr)
	return sw, nil
}

// set pushes a state change. The same state arrives twice when a sent
// command is heard back from the line.
func (b *Bridge) set(addr Address, sw Switch, on bool) error {
	if cur, known := b.states[addr]; known && cur == on {
		return nil
	}
	b.states[addr] = on
	state := "0"
	if on {
		state = "1"
	}
	return sw.Update(state)
}

// Apply updates the switches affected by a received or sent command.
func (b *Bridge) Apply(cmd *msgs.X10Command) error {
	house, err := x10.ParseHouse(cmd.House)
	if err != nil {
		return err
	}
	fn := x10.Function(cmd.FunctionPattern)
	b.lock.Lock()
	defer b.lock.Unlock()
	switch fn {
	case x10.On, x10.Off:
		if cmd.Unit == 0 {
			return nil
		}
		addr := Address{House: house, Unit: x10.UnitCode(cmd.Unit)}
		sw, err := b.switchFor(addr)
		if err != nil {
			return err
		}
		return b.set(addr, sw, fn == x10.On)
	case x10.AllUnitsOff, x10.AllLightsOff, x10.AllLightsOn:
		var errs fx.AggregatedError
		for addr, sw := range b.switches {
			if addr.House == house {
				errs.Add(b.set(addr, sw, fn == x10.AllLightsOn))
			}
		}
		return errs.Aggregate()
	}
	glog.V(1).Infof("bridge: %s %s ignored", house, fn)
	return nil
}

// Control implements Controller, taking X10Received and X10Sent events.
func (b *Bridge) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		taken, err := b.handle(mctx.CurrentMessage())
		if taken {
			mctx.MessageTaken()
		}
		if err != nil {
			glog.Errorf("bridge: %v", err)
		}
	}))
	return nil
}

func (b *Bridge) handle(msg fx.Message) (bool, error) {
	var cmd *msgs.X10Command
	switch ev := msg.(type) {
	case *msgs.X10Received:
		cmd = ev.Command
	case *msgs.X10Sent:
		cmd = ev.Command
	default:
		return false, nil
	}
	if cmd == nil {
		return true, nil
	}
	return true, b.Apply(cmd)
}

// AddToLoop implements LoopAdder.
func (b *Bridge) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, b)
}
