// Package controller exposes an X10 transceiver as an L1 controller.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/l1"
	l1msgs "github.com/robotalks/x10.go/pkg/l1/msgs"
	"github.com/robotalks/x10.go/pkg/x10"
	"github.com/robotalks/x10.go/pkg/x10/msgs"
	"github.com/robotalks/x10.go/pkg/x10/xtb"
)

// Type is the controller type registered by x10d.
const Type = "x10"

// Controller is an L1 controller driving one transceiver. Transmission
// and calibration block for a long time and run on a worker, replies
// are sent when they finish.
type Controller struct {
	Registrar    l1.Registrar
	Transceiver  *x10.Transceiver
	Repeat       int
	XTBKeyDelay  time.Duration
	PollInterval time.Duration

	jobs chan *job
}

// NewController creates a Controller.
func NewController(reg l1.Registrar, t *x10.Transceiver) *Controller {
	return &Controller{
		Registrar:    reg,
		Transceiver:  t,
		Repeat:       defaultConfig.Repeat,
		XTBKeyDelay:  defaultConfig.XTBKeyDelay,
		PollInterval: defaultConfig.PollInterval,
		jobs:         make(chan *job, 16),
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("x10-worker", fx.RunFunc(c.runJobs)))
	loop.AddRunnable(fx.NamedRun("x10-receiver", fx.RunFunc(c.pollReceiver)))
	loop.AddController(fx.PrLvControl, c)
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *l1.CommandMsg:
			switch m := msg.Command.Msg().(type) {
			case *msgs.X10StatusQuery:
				mctx.MessageTaken()
				msg.Command.Done(c.status())
			case *msgs.X10Send:
				mctx.MessageTaken()
				c.enqueue(msg.Command, func(ctx context.Context) fx.Message { return c.send(ctx, m) })
			case *msgs.X10Calibrate:
				mctx.MessageTaken()
				c.enqueue(msg.Command, func(context.Context) fx.Message { return c.calibrate() })
			case *msgs.X10ProgramXTB:
				mctx.MessageTaken()
				c.enqueue(msg.Command, func(context.Context) fx.Message { return c.programXTB(m) })
			}
		case *receivedMsg:
			mctx.MessageTaken()
			if err := c.Registrar.SendEvent(cc.Context(), &msgs.X10Received{Command: msgs.CommandFrom(msg.cmd)}); err != nil {
				glog.Errorf("x10: send event error: %v", err)
			}
		}
	}))
	return nil
}

type job struct {
	cmd l1.Command
	fn  func(context.Context) fx.Message
}

func (c *Controller) enqueue(cmd l1.Command, fn func(context.Context) fx.Message) {
	select {
	case c.jobs <- &job{cmd: cmd, fn: fn}:
	default:
		cmd.Done(l1msgs.NewCommandErrFromMsg("x10: busy"))
	}
}

func (c *Controller) runJobs(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-c.jobs:
			if err := j.cmd.Done(j.fn(ctx)); err != nil {
				glog.Errorf("x10: reply error: %v", err)
			}
		}
	}
}

func (c *Controller) pollReceiver(ctx context.Context) error {
	interval := c.PollInterval
	if interval <= 0 {
		interval = defaultConfig.PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	loopCtl := fx.LoopCtlFrom(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if cmd, ok := c.Transceiver.Take(); ok {
				glog.Infof("x10: received %s", cmd)
				loopCtl.PostMessage(&receivedMsg{cmd: cmd})
				loopCtl.TriggerNext()
			}
		}
	}
}

func (c *Controller) status() *msgs.X10Status {
	stats := c.Transceiver.Receiver().Stats()
	st := &msgs.X10Status{
		Timing:   msgs.TimingFrom(c.Transceiver.Profile()),
		Last:     msgs.CommandFrom(c.Transceiver.Receiver().Last()),
		Ready:    c.Transceiver.Ready(),
		Frames:   stats.Frames,
		Commands: stats.Commands,
		Rejected: stats.Rejected,
		Repeats:  stats.Repeats,
	}
	if cal := c.Transceiver.Calibration(); cal != nil {
		st.MeasuredHz = uint32(cal.Frequency)
	}
	return st
}

func (c *Controller) repeats(n uint32) int {
	if n > 0 {
		return int(n)
	}
	if c.Repeat > 0 {
		return c.Repeat
	}
	return 1
}

// send transmits m and announces it with X10Sent, unless only a unit
// frame was sent.
func (c *Controller) send(ctx context.Context, m *msgs.X10Send) fx.Message {
	sent, err := c.transmit(m)
	if err != nil {
		glog.Errorf("x10: send %s: %v", m, err)
		return l1msgs.NewCommandErr(err)
	}
	if sent != nil {
		if err := c.Registrar.SendEvent(ctx, &msgs.X10Sent{Command: msgs.CommandFrom(*sent)}); err != nil {
			glog.Errorf("x10: send event error: %v", err)
		}
	}
	return l1msgs.NewCommandOK()
}

func (c *Controller) transmit(m *msgs.X10Send) (*x10.Command, error) {
	house, err := x10.ParseHouse(m.House)
	if err != nil {
		return nil, err
	}
	repeats := c.repeats(m.Repeat)
	var fn x10.Function
	if m.Function != "" {
		if fn, err = x10.ParseFunction(m.Function); err != nil {
			return nil, err
		}
	}
	sent := &x10.Command{
		Start:        x10.StartCode,
		House:        house,
		HousePattern: house.Pattern(),
		Function:     fn,
	}
	switch {
	case m.Unit == 0 && m.Function == "":
		return nil, fmt.Errorf("x10: nothing to send")
	case m.Unit == 0:
		return sent, c.Transceiver.SendFunction(house, fn, repeats)
	case m.Unit > 16:
		return nil, fmt.Errorf("unit %d: %w", m.Unit, x10.ErrInvalidUnit)
	case m.Function == "":
		return nil, c.Transceiver.Transmit(house, x10.UnitCode(m.Unit), repeats)
	}
	sent.Unit = x10.UnitCode(m.Unit)
	sent.UnitPattern = sent.Unit.Pattern()
	return sent, c.Transceiver.SendCommand(house, sent.Unit, fn, repeats)
}

func (c *Controller) calibrate() fx.Message {
	if _, err := c.Transceiver.Calibrate(); err != nil {
		return l1msgs.NewCommandErr(err)
	}
	return c.status()
}

func (c *Controller) programXTB(m *msgs.X10ProgramXTB) fx.Message {
	p := xtb.NewProgrammer(c.Transceiver)
	p.KeyDelay = c.XTBKeyDelay
	if m.House != "" {
		house, err := x10.ParseHouse(m.House)
		if err != nil {
			return l1msgs.NewCommandErr(err)
		}
		p.House = house
	}
	if err := p.SetMode(xtb.Mode(m.Mode), m.Enable); err != nil {
		return l1msgs.NewCommandErr(err)
	}
	return l1msgs.NewCommandOK()
}

type receivedMsg struct {
	cmd x10.Command
}

func (m *receivedMsg) NewMessage() fx.Message { return &receivedMsg{} }
