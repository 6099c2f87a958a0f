package controller

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	fx "github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/l1"
	"github.com/robotalks/x10.go/pkg/l1/comm"
	"github.com/robotalks/x10.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/x10.go/pkg/l1/comm/serial"
	"github.com/robotalks/x10.go/pkg/l1/comm/websocket"
	"github.com/robotalks/x10.go/pkg/l1/env"
)

// Config provides common options to setup an env for L1 controllers.
type Config struct {
	Info l1.ControllerInfo

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `toml:"mqtt"`
	// WebsocketAddr serves the controller over websocket, e.g. :8010.
	WebsocketAddr string `toml:"websocket"`
	// SerialPort serves the controller on a serial port.
	SerialPort string `toml:"serial"`
	SerialBaud int    `toml:"serial_baud"`
}

var defaultConfig = Config{
	MQTTBrokerURL: "mqtt://localhost:1883/x10/",
	SerialBaud:    serial.DefaultBaud,
}

func init() {
	if val := os.Getenv("X10_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("X10_WEBSOCKET_ADDR"); val != "" {
		defaultConfig.WebsocketAddr = val
	}
	if val := os.Getenv("X10_SERIAL_PORT"); val != "" {
		defaultConfig.SerialPort = val
	}
	if val, err := strconv.Atoi(os.Getenv("X10_SERIAL_BAUD")); err == nil && val > 0 {
		defaultConfig.SerialBaud = val
	}
	defaultConfig.Info.Ref.ID = env.MachineID()
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Controller type")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Controller ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket listen address")
	flag.StringVar(&defaultConfig.SerialPort, "serial", defaultConfig.SerialPort, "Serial port to serve on")
	flag.IntVar(&defaultConfig.SerialBaud, "serial-baud", defaultConfig.SerialBaud, "Serial port baud rate")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// SetControllerType should be called in init with basic info about the controller.
func SetControllerType(typ string, meta l1.ControllerMeta) {
	defaultConfig.Info.Ref.Type = typ
	defaultConfig.Info.Meta = meta
}

// Env is the env for L1 controllers.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("controller type and id must be specified")
	}
	env := &Env{
		Config:    c,
		Registrar: &comm.RegistrarMux{},
	}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT registrar error: %v", err)
		}
		env.Registrar.Add(reg)
		env.RegistryURLs = append(env.RegistryURLs, c.MQTTBrokerURL)
	}
	if c.WebsocketAddr != "" {
		env.Registrar.Add(websocket.NewRegistrar(c.WebsocketAddr, c.Info))
		env.RegistryURLs = append(env.RegistryURLs, "ws://"+c.WebsocketAddr+websocket.DefaultPath)
	}
	if c.SerialPort != "" {
		reg, err := serial.NewRegistrar(c.SerialPort, c.SerialBaud, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create serial registrar error: %v", err)
		}
		env.Registrar.Add(reg)
		env.RegistryURLs = append(env.RegistryURLs, fmt.Sprintf("serial://%s?baud=%d", c.SerialPort, c.SerialBaud))
	}
	if len(env.Registrar.Registrars) == 0 {
		return nil, fmt.Errorf("at least one registrar is required")
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop adds controllers/runners to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar)
	loop.Add(&comm.UnsupportedCommands{})
}
