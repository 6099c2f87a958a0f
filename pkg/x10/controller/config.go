package controller

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	env "github.com/robotalks/x10.go/pkg/l1/env/controller"
	"github.com/robotalks/x10.go/pkg/x10"
	"github.com/robotalks/x10.go/pkg/x10/gpio"
	"github.com/robotalks/x10.go/pkg/x10/sim"
)

// Line drivers.
const (
	DriverGPIO = "gpio"
	DriverSim  = "sim"
)

// Validation modes.
const (
	ValidationStrict = "strict"
	ValidationNone   = "none"
)

// Config defines the configurations for the controller.
type Config struct {
	Driver string
	Pins   gpio.Pins
	// MainsFrequency forces the 50 or 60 Hz profile, 0 measures it.
	MainsFrequency int
	// SimFrequency is the mains frequency of the sim driver.
	SimFrequency   float64
	Validation     string
	DropPhantomP16 bool
	Receive        bool
	Repeat         int
	EdgeTimeout    time.Duration
	XTBKeyDelay    time.Duration
	PollInterval   time.Duration
}

var defaultConfig = Config{
	Driver:       DriverGPIO,
	Pins:         gpio.Pins{ZeroCross: 17, Transmit: 18, Receive: 27},
	SimFrequency: 60,
	Validation:   ValidationStrict,
	Receive:      true,
	Repeat:       1,
	EdgeTimeout:  time.Second,
	XTBKeyDelay:  time.Second,
	PollInterval: 20 * time.Millisecond,
}

func init() {
	if val := os.Getenv("X10_DRIVER"); val != "" {
		defaultConfig.Driver = val
	}
	if val, err := strconv.Atoi(os.Getenv("X10_MAINS_HZ")); err == nil {
		defaultConfig.MainsFrequency = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Driver, "driver", defaultConfig.Driver, "Line driver: gpio or sim")
	flag.IntVar(&defaultConfig.Pins.ZeroCross, "pin-zc", defaultConfig.Pins.ZeroCross, "Zero-crossing input GPIO")
	flag.IntVar(&defaultConfig.Pins.Transmit, "pin-tx", defaultConfig.Pins.Transmit, "Transmit output GPIO")
	flag.IntVar(&defaultConfig.Pins.Receive, "pin-rx", defaultConfig.Pins.Receive, "Receive input GPIO, 0 to disable")
	flag.IntVar(&defaultConfig.Pins.Indicator, "pin-led", defaultConfig.Pins.Indicator, "Indicator output GPIO, 0 to disable")
	flag.IntVar(&defaultConfig.MainsFrequency, "mains", defaultConfig.MainsFrequency, "Force 50 or 60 Hz, 0 to measure")
	flag.Float64Var(&defaultConfig.SimFrequency, "sim-mains", defaultConfig.SimFrequency, "Mains frequency of the sim driver")
	flag.StringVar(&defaultConfig.Validation, "validation", defaultConfig.Validation, "Received frame validation: strict or none")
	flag.BoolVar(&defaultConfig.DropPhantomP16, "drop-p16", defaultConfig.DropPhantomP16, "Drop phantom P-16 pairs")
	flag.BoolVar(&defaultConfig.Receive, "receive", defaultConfig.Receive, "Decode incoming frames")
	flag.IntVar(&defaultConfig.Repeat, "repeat", defaultConfig.Repeat, "Default frame repeat count")
	flag.DurationVar(&defaultConfig.EdgeTimeout, "edge-timeout", defaultConfig.EdgeTimeout, "Zero-crossing wait bound, 0 waits forever")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ValidationOptions converts the validation settings.
func (c *Config) ValidationOptions() (x10.Validation, error) {
	var v x10.Validation
	switch strings.ToLower(c.Validation) {
	case ValidationStrict, "":
		v = x10.StrictValidation
	case ValidationNone:
	default:
		return v, fmt.Errorf("unknown validation %q", c.Validation)
	}
	v.DropPhantomP16 = c.DropPhantomP16
	return v, nil
}

// Options converts the config into transceiver options.
func (c *Config) Options() (x10.Options, error) {
	v, err := c.ValidationOptions()
	if err != nil {
		return x10.Options{}, err
	}
	opts := x10.Options{
		Receive:     c.Receive,
		Validation:  v,
		EdgeTimeout: c.EdgeTimeout,
	}
	if c.MainsFrequency != 0 {
		p, err := x10.ProfileFor(c.MainsFrequency)
		if err != nil {
			return opts, err
		}
		opts.Profile = &p
	}
	return opts, nil
}

// OpenLine opens the configured line driver with its clock.
func (c *Config) OpenLine() (x10.Line, x10.Clock, error) {
	switch c.Driver {
	case DriverGPIO:
		line, err := gpio.Open(c.Pins)
		if err != nil {
			return nil, nil, err
		}
		return line, x10.NewSystemClock(), nil
	case DriverSim:
		line := sim.NewLine(c.SimFrequency)
		line.Echo = true
		return line, line.Clock, nil
	default:
		return nil, nil, fmt.Errorf("unknown line driver %q", c.Driver)
	}
}

// NewTransceiver opens the line and starts a transceiver on it.
func (c *Config) NewTransceiver() (*x10.Transceiver, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	line, clock, err := c.OpenLine()
	if err != nil {
		return nil, err
	}
	return x10.NewTransceiver(line, clock, opts)
}

// MustNewTransceiver creates the transceiver and fails on error.
func (c *Config) MustNewTransceiver() *x10.Transceiver {
	t, err := c.NewTransceiver()
	if err != nil {
		log.Fatalln(err)
	}
	return t
}

// NewController creates a controller using the config.
func (c *Config) NewController(e *env.Env, t *x10.Transceiver) *Controller {
	ctl := NewController(e.Registrar, t)
	ctl.Repeat = c.Repeat
	ctl.XTBKeyDelay = c.XTBKeyDelay
	ctl.PollInterval = c.PollInterval
	return ctl
}

type fileConfig struct {
	X10 struct {
		Driver         string    `toml:"driver"`
		Pins           gpio.Pins `toml:"pins"`
		MainsFrequency int       `toml:"mains_frequency"`
		SimFrequency   float64   `toml:"sim_frequency"`
		Validation     string    `toml:"validation"`
		DropPhantomP16 bool      `toml:"drop_phantom_p16"`
		Receive        bool      `toml:"receive"`
		Repeat         int       `toml:"repeat"`
		EdgeTimeout    string    `toml:"edge_timeout"`
		XTBKeyDelay    string    `toml:"xtb_key_delay"`
		PollInterval   string    `toml:"poll_interval"`
	} `toml:"x10"`
	Controller struct {
		Type       string `toml:"type"`
		ID         string `toml:"id"`
		MQTT       string `toml:"mqtt"`
		Websocket  string `toml:"websocket"`
		Serial     string `toml:"serial"`
		SerialBaud int    `toml:"serial_baud"`
	} `toml:"controller"`
}

// LoadConfigFile reads a TOML file into the default x10 and controller
// env configs. Flags given on the command line win over the file.
func LoadConfigFile(path string) error {
	return loadConfigFile(path, &defaultConfig, env.Default(), flag.CommandLine)
}

func loadConfigFile(path string, conf *Config, envConf *env.Config, flags *flag.FlagSet) error {
	explicit := make(map[string]string)
	if flags != nil {
		flags.Visit(func(f *flag.Flag) {
			explicit[f.Name] = f.Value.String()
		})
	}
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		glog.Warningf("config %s: unknown key %s", path, key)
	}

	x := &raw.X10
	if meta.IsDefined("x10", "driver") {
		conf.Driver = x.Driver
	}
	for _, pin := range []struct {
		key string
		dst *int
		val int
	}{
		{"zero_cross", &conf.Pins.ZeroCross, x.Pins.ZeroCross},
		{"transmit", &conf.Pins.Transmit, x.Pins.Transmit},
		{"receive", &conf.Pins.Receive, x.Pins.Receive},
		{"indicator", &conf.Pins.Indicator, x.Pins.Indicator},
	} {
		if meta.IsDefined("x10", "pins", pin.key) {
			*pin.dst = pin.val
		}
	}
	if meta.IsDefined("x10", "mains_frequency") {
		conf.MainsFrequency = x.MainsFrequency
	}
	if meta.IsDefined("x10", "sim_frequency") {
		conf.SimFrequency = x.SimFrequency
	}
	if meta.IsDefined("x10", "validation") {
		conf.Validation = x.Validation
	}
	if meta.IsDefined("x10", "drop_phantom_p16") {
		conf.DropPhantomP16 = x.DropPhantomP16
	}
	if meta.IsDefined("x10", "receive") {
		conf.Receive = x.Receive
	}
	if meta.IsDefined("x10", "repeat") {
		conf.Repeat = x.Repeat
	}
	for _, d := range []struct {
		key string
		dst *time.Duration
		val string
	}{
		{"edge_timeout", &conf.EdgeTimeout, x.EdgeTimeout},
		{"xtb_key_delay", &conf.XTBKeyDelay, x.XTBKeyDelay},
		{"poll_interval", &conf.PollInterval, x.PollInterval},
	} {
		if !meta.IsDefined("x10", d.key) {
			continue
		}
		if *d.dst, err = time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("config %s: x10.%s: %w", path, d.key, err)
		}
	}

	ctl := &raw.Controller
	if meta.IsDefined("controller", "type") {
		envConf.Info.Ref.Type = ctl.Type
	}
	if meta.IsDefined("controller", "id") {
		envConf.Info.Ref.ID = ctl.ID
	}
	if meta.IsDefined("controller", "mqtt") {
		envConf.MQTTBrokerURL = ctl.MQTT
	}
	if meta.IsDefined("controller", "websocket") {
		envConf.WebsocketAddr = ctl.Websocket
	}
	if meta.IsDefined("controller", "serial") {
		envConf.SerialPort = ctl.Serial
	}
	if meta.IsDefined("controller", "serial_baud") {
		envConf.SerialBaud = ctl.SerialBaud
	}

	for name, val := range explicit {
		if err := flags.Set(name, val); err != nil {
			return err
		}
	}
	return nil
}
