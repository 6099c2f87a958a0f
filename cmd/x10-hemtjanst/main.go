package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"lib.hemtjan.st/client"
	"lib.hemtjan.st/device"
	"lib.hemtjan.st/feature"
	"lib.hemtjan.st/transport/mqtt"

	"github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/l1"
	env "github.com/robotalks/x10.go/pkg/l1/env/connector"
	"github.com/robotalks/x10.go/pkg/x10"
	"github.com/robotalks/x10.go/pkg/x10/bridge"
	"github.com/robotalks/x10.go/pkg/x10/controller"
	"github.com/robotalks/x10.go/pkg/x10/msgs"
)

const featureOn = string(feature.On)

var (
	topicPrefix = "x10"
	units       string
)

func init() {
	if env.Default().Ref.Type == "" {
		env.Default().Ref.Type = controller.Type
	}
	env.SetupFlags()
	flag.StringVar(&topicPrefix, "topic", topicPrefix, "Topic prefix of hemtjanst devices.")
	flag.StringVar(&units, "units", units, "Comma separated units to announce up front, e.g. A1,A2,B5.")
}

func main() {
	mqFlags := mqtt.MustFlags(flag.String, flag.Bool)
	flag.Parse()

	ctx := context.Background()
	mq, err := mqtt.New(ctx, mqFlags())
	if err != nil {
		log.Fatalf("connecting to mqtt: %v", err)
	}
	go func() {
		for {
			ok, err := mq.Start()
			if err != nil {
				log.Printf("MQTT Error: %s", err)
			}
			if !ok {
				os.Exit(1)
			}
			time.Sleep(3 * time.Second)
			log.Printf("MQTT: Reconnecting")
		}
	}()

	conf := env.NewConfig()
	conn := conf.MustConnect()

	b := bridge.New(func(house x10.HouseCode, unit x10.UnitCode) (bridge.Switch, error) {
		addr := bridge.Address{House: house, Unit: unit}
		d, err := client.NewDevice(&device.Info{
			Topic:        topicPrefix + "/" + strings.ToLower(addr.String()),
			Name:         "X10 " + addr.String(),
			Manufacturer: "X10",
			Features:     map[string]*feature.Info{featureOn: {}},
			Type:         "switch",
		}, mq)
		if err != nil {
			return nil, err
		}
		sw := d.Feature(featureOn)
		err = sw.OnSetFunc(func(msg string) {
			fn := "OFF"
			if msg == "1" || msg == "true" {
				fn = "ON"
			}
			send(conn, &msgs.X10Send{House: house.String(), Unit: uint32(unit), Function: fn})
		})
		return sw, err
	})
	for _, s := range strings.Split(units, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		addr, err := bridge.ParseAddress(s)
		if err != nil {
			log.Fatalln(err)
		}
		if err := b.Declare(addr); err != nil {
			log.Fatalln(err)
		}
	}

	loop := framework.NewLoop()
	if adder, ok := conn.(framework.LoopAdder); ok {
		loop.Add(adder)
	}
	loop.Add(b)
	loop.RunOrFail()
}

// send transmits a state set from hemtjanst. The new state comes back
// with the X10Sent event once the controller has transmitted it.
func send(conn l1.ControllerConn, msg *msgs.X10Send) {
	go func() {
		res := <-conn.DoCommand(msg).ResultChan()
		if res.Err != nil {
			log.Printf("%s%d %s: %v", msg.House, msg.Unit, msg.Function, res.Err)
		}
	}()
}
