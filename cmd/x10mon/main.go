package main

import (
	"flag"
	"log"
	"os"
	"reflect"

	"github.com/robotalks/x10.go/pkg/l1/comm/mqtt"
	l1msgs "github.com/robotalks/x10.go/pkg/l1/msgs"
	"github.com/robotalks/x10.go/pkg/x10/msgs"
)

var (
	mqttURL    = "mqtt://localhost:1883/x10/"
	eventsOnly bool
)

func init() {
	if val := os.Getenv("X10_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&eventsOnly, "events", eventsOnly, "Print received X10 commands only.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		_, kind, ok := mqtt.SplitTopic(topic)
		if !ok || kind == mqtt.KindCmd && eventsOnly {
			return
		}
		if kind == mqtt.KindMeta {
			if !eventsOnly {
				log.Printf("%s: %s", topic, string(payload))
			}
			return
		}
		typed, err := l1msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		switch ev := msg.(type) {
		case *msgs.X10Received:
			if c := ev.Command; c != nil {
				log.Printf("%s: %s (start=%04b house=%04b unit=%05b)",
					topic, c.Summary(), c.Start, c.HousePattern, c.UnitPattern)
				return
			}
		case *msgs.X10Sent:
			if c := ev.Command; c != nil {
				log.Printf("%s: sent %s", topic, c.Summary())
				return
			}
		}
		if !eventsOnly {
			log.Printf("%s: [%s] %s", topic,
				reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
				msg.(l1msgs.SerializableMessage).Serializable().String())
		}
	}))
	<-(chan struct{})(nil)
}
