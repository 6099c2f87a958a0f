package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/robotalks/x10.go/pkg/x10"
	"github.com/robotalks/x10.go/pkg/x10/sim"
)

var (
	mains      = 60.0
	forceHz    int
	house      = "A"
	unit       = 1
	function   = "ON"
	repeat     = 1
	validation = "strict"
	timeline   bool
)

func init() {
	flag.Float64Var(&mains, "mains", mains, "Simulated mains frequency.")
	flag.IntVar(&forceHz, "profile", forceHz, "Force the 50 or 60 Hz profile, 0 to calibrate.")
	flag.StringVar(&house, "house", house, "House code A-P.")
	flag.IntVar(&unit, "unit", unit, "Unit 1-16, 0 sends the function alone.")
	flag.StringVar(&function, "function", function, "Function name, empty sends the unit alone.")
	flag.IntVar(&repeat, "repeat", repeat, "Frame repeat count.")
	flag.StringVar(&validation, "validation", validation, "Receiver validation: strict or none.")
	flag.BoolVar(&timeline, "timeline", timeline, "Print every half cycle with carrier.")
}

func main() {
	flag.Parse()

	h, err := x10.ParseHouse(house)
	if err != nil {
		log.Fatalln(err)
	}
	var fn x10.Function
	if function != "" {
		if fn, err = x10.ParseFunction(function); err != nil {
			log.Fatalln(err)
		}
	}
	v := x10.StrictValidation
	if validation == "none" {
		v = x10.Validation{}
	}

	txLine := sim.NewLine(mains)
	var profile x10.Profile
	if forceHz != 0 {
		if profile, err = x10.ProfileFor(forceHz); err != nil {
			log.Fatalln(err)
		}
	} else {
		cal, err := x10.Calibrate(txLine, txLine.Clock, 0)
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Println("calibration:", cal)
		profile = cal.Profile
	}
	fmt.Println("profile:", profile)

	tx := x10.NewTransmitter(txLine, txLine.Clock, profile)
	start := txLine.Clock.Now()
	switch {
	case unit == 0 && function == "":
		log.Fatalln("nothing to send")
	case unit == 0:
		err = tx.SendFunction(h, fn, repeat)
	case function == "":
		err = tx.Transmit(h, x10.UnitCode(unit), repeat)
	default:
		err = tx.SendCommand(h, x10.UnitCode(unit), fn, repeat)
	}
	if err != nil {
		log.Fatalln(err)
	}
	pulses := txLine.Pulses()
	fmt.Printf("sent: %d bursts in %v\n", len(pulses), txLine.Clock.Now()-start)
	bits := txLine.Mains.Bits(pulses)
	for len(bits) > 0 {
		n := len(bits)
		if n > 64 {
			n = 64
		}
		fmt.Println("  " + bits[:n])
		bits = bits[n:]
	}
	if timeline {
		for _, s := range txLine.Mains.Timeline(pulses) {
			fmt.Printf("  half-cycle %4d +%-8v %d x %v\n", s.HalfCycle, s.Offset, s.Bursts, s.Width)
		}
	}

	rxLine := sim.NewLine(mains)
	rx := x10.NewReceiver(rxLine, rxLine.Clock, profile, v)
	if err := rxLine.Attach(rx.HandleZeroCross); err != nil {
		log.Fatalln(err)
	}
	rxLine.Replay(pulses)
	stats := rx.Stats()
	fmt.Printf("received: frames=%d commands=%d rejected=%d repeats=%d\n", stats.Frames, stats.Commands, stats.Rejected, stats.Repeats)
	if cmd, ok := rx.Take(); ok {
		fmt.Println("  " + cmd.String())
	} else {
		fmt.Printf("  no command, last unit %s%d\n", rx.House(), rx.Unit())
	}
}
