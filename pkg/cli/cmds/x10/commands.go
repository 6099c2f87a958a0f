package x10

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/x10.go/pkg/cli/sh"
	fx "github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/x10"
	"github.com/robotalks/x10.go/pkg/x10/msgs"
	"github.com/robotalks/x10.go/pkg/x10/xtb"
)

// ParseSend builds an X10Send from HOUSE [UNIT] [FUNCTION] [REPEAT].
// A single token after the house is a unit when numeric, otherwise a
// function.
func ParseSend(args []string) (*msgs.X10Send, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("HOUSE and UNIT or FUNCTION required")
	}
	house, err := x10.ParseHouse(args[0])
	if err != nil {
		return nil, err
	}
	msg := &msgs.X10Send{House: house.String()}
	rest := args[1:]
	if _, err := strconv.Atoi(rest[0]); err == nil {
		unit, err := x10.ParseUnit(rest[0])
		if err != nil {
			return nil, err
		}
		msg.Unit = uint32(unit)
		rest = rest[1:]
	}
	if len(rest) > 0 {
		fn, err := x10.ParseFunction(rest[0])
		if err != nil {
			return nil, err
		}
		msg.Function = fn.String()
		rest = rest[1:]
	}
	if len(rest) > 0 {
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid REPEAT %q: %w", rest[0], x10.ErrInvalidRepeat)
		}
		msg.Repeat = uint32(n)
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected %q", rest[0])
	}
	return msg, nil
}

// ParseXTB builds an X10ProgramXTB from MODE on|off [HOUSE].
func ParseXTB(args []string) (*msgs.X10ProgramXTB, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("MODE and on|off required")
	}
	mode, err := xtb.ParseMode(args[0])
	if err != nil {
		return nil, err
	}
	msg := &msgs.X10ProgramXTB{Mode: uint32(mode)}
	switch args[1] {
	case "on", "ON", "1":
		msg.Enable = true
	case "off", "OFF", "0":
	default:
		return nil, fmt.Errorf("expect on or off, not %q", args[1])
	}
	if len(args) > 2 {
		house, err := x10.ParseHouse(args[2])
		if err != nil {
			return nil, err
		}
		msg.House = house.String()
	}
	return msg, nil
}

var (
	// SendCmd exposes X10Send command.
	SendCmd = ishell.Cmd{
		Name:    "x10.send",
		Aliases: []string{"send", "s"},
		Help:    "HOUSE [UNIT] [FUNCTION] [REPEAT], e.g. A 1 ON, A ALL_LIGHTS_OFF, A 1 DIM 19",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseSend(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// StatusCmd exposes X10StatusQuery command.
	StatusCmd = ishell.Cmd{
		Name:    "x10.status",
		Aliases: []string{"status", "st"},
		Help:    "timing profile, last received command and counters",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.X10StatusQuery{})
		}),
	}

	// CalibrateCmd exposes X10Calibrate command.
	CalibrateCmd = ishell.Cmd{
		Name:    "x10.calibrate",
		Aliases: []string{"calibrate"},
		Help:    "measure the mains frequency again",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.X10Calibrate{})
		}),
	}

	// XTBCmd exposes X10ProgramXTB command.
	XTBCmd = ishell.Cmd{
		Name: "x10.xtb",
		Help: "MODE on|off [HOUSE], program an XTB-IIR option",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseXTB(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// XTBModesCmd lists XTB-IIR options.
	XTBModesCmd = ishell.Cmd{
		Name: "x10.xtb.modes",
		Help: "list XTB-IIR options",
		Func: func(c *ishell.Context) {
			for m := xtb.Mode(1); m.Valid(); m++ {
				def := "off"
				if m.Default() {
					def = "on"
				}
				c.Printf("%2d %-32s default %s\n", int(m), m, def)
			}
		},
	}
)

// FormatMessage renders X10 replies and events for the console.
func FormatMessage(msg fx.Message) (string, bool) {
	switch m := msg.(type) {
	case *msgs.X10Received:
		if m.Command == nil {
			return "received nothing", true
		}
		return "received " + m.Command.Summary(), true
	case *msgs.X10Sent:
		if m.Command == nil {
			return "sent nothing", true
		}
		return "sent " + m.Command.Summary(), true
	case *msgs.X10Status:
		var w strings.Builder
		if t := m.Timing; t != nil {
			fmt.Fprintf(&w, "timing  %dHz bit %dus delay %dus offset %dus half cycle %dus\n",
				t.MainsHz, t.BitLength, t.BitDelay, t.OffsetDelay, t.HalfCycleDelay)
		}
		if m.MeasuredHz != 0 {
			fmt.Fprintf(&w, "mains   %dHz measured\n", m.MeasuredHz)
		}
		if m.Last != nil {
			fmt.Fprintf(&w, "last    %s (ready %v)\n", m.Last.Summary(), m.Ready)
		}
		fmt.Fprintf(&w, "frames  %d, %d commands, %d rejected, %d repeats", m.Frames, m.Commands, m.Rejected, m.Repeats)
		return w.String(), true
	}
	return "", false
}

func init() {
	sh.AddFormatters(FormatMessage)
	sh.AddCmds(
		&SendCmd,
		&StatusCmd,
		&CalibrateCmd,
		&XTBCmd,
		&XTBModesCmd,
	)
}
