package connector

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/x10.go/pkg/l1"
	"github.com/robotalks/x10.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/x10.go/pkg/l1/comm/serial"
	"github.com/robotalks/x10.go/pkg/l1/comm/websocket"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref l1.ControllerRef

	// RegistryURL specifies the URL of controller registry.
	// e.g. mqtt://host:port/topic-prefix, ws://host:port/l1 or
	// serial:///dev/ttyUSB0?baud=115200
	RegistryURL string
}

var defaultConfig = Config{
	RegistryURL: "mqtt://localhost:1883/x10/",
}

func init() {
	if val := os.Getenv("X10_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("X10_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("X10_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "controller-type", defaultConfig.Ref.Type, "Controller type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "controller-id", defaultConfig.Ref.ID, "Controller ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "registry", defaultConfig.RegistryURL, "Registry URL: mqtt://, ws:// or serial://")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt":
		return mqtt.NewConnector(c.RegistryURL)
	case "ws", "wss":
		return websocket.NewConnector(c.RegistryURL)
	case "serial":
		return serial.NewConnector(c.RegistryURL)
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Resolve completes Ref. Without an ID the controller is discovered,
// exactly one of Ref.Type must be found. A serial link has nothing to
// discover and takes serial.DirectID.
func (c *Config) Resolve(ctx context.Context, connector l1.Connector) (l1.ControllerRef, error) {
	ref := c.Ref
	if ref.IsValid() {
		return ref, nil
	}
	if ref.Type == "" {
		return ref, fmt.Errorf("controller type must be specified")
	}
	found, err := connector.Discover(ctx)
	if errors.Is(err, serial.ErrNoDiscovery) {
		ref.ID = serial.DirectID
		return ref, nil
	}
	if err != nil {
		return ref, err
	}
	var matches []l1.ControllerRef
	for _, info := range found {
		if info.Ref.Type == ref.Type {
			matches = append(matches, info.Ref)
		}
	}
	if len(matches) != 1 {
		return ref, fmt.Errorf("%d controllers of type %q discovered, specify the id", len(matches), ref.Type)
	}
	return matches[0], nil
}

// Connect connects to the configured controller.
func (c *Config) Connect() (l1.ControllerConn, error) {
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	ref, err := c.Resolve(context.TODO(), connector)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.TODO(), ref)
}

// MustConnect connects to L1 controller for fail.
func (c *Config) MustConnect() l1.ControllerConn {
	conn, err := c.Connect()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
