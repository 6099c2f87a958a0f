// Package serial carries L1 messages over a serial port, for a
// controller tethered to its host by USB or UART.
package serial

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/golang/glog"
	"github.com/tarm/serial"

	"github.com/robotalks/x10.go/pkg/l1"
	"github.com/robotalks/x10.go/pkg/l1/comm"
	"github.com/robotalks/x10.go/pkg/l1/comm/stream"
)

// DefaultBaud is used when no baud rate is given.
const DefaultBaud = 115200

// DirectID names the controller on the other end of the port.
const DirectID = "direct"

// ErrNoDiscovery is returned by Connector.Discover, a serial link has
// exactly one peer and nothing to enumerate.
var ErrNoDiscovery = errors.New("serial: discovery not supported")

// Open opens the port as a packet stream.
func Open(port string, baud int) (*stream.ReadWriter, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud})
	if err != nil {
		return nil, err
	}
	return stream.New(p), nil
}

// ParseURL parses serial:///dev/ttyUSB0?baud=9600.
func ParseURL(rawURL string) (port string, baud int, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, err
	}
	if u.Scheme != "serial" {
		return "", 0, fmt.Errorf("serial: unexpected scheme %q", u.Scheme)
	}
	port = u.Host + u.Path
	if port == "" {
		return "", 0, fmt.Errorf("serial: missing port in %q", rawURL)
	}
	baud = DefaultBaud
	if val := u.Query().Get("baud"); val != "" {
		if baud, err = strconv.Atoi(val); err != nil {
			return "", 0, fmt.Errorf("serial: invalid baud %q", val)
		}
	}
	return port, baud, nil
}

// Registrar implements l1.Registrar on a serial port.
type Registrar struct {
	comm.Registrar
	Port string
	Info l1.ControllerInfo
}

// NewRegistrar opens port and creates a Registrar.
func NewRegistrar(port string, baud int, info l1.ControllerInfo) (*Registrar, error) {
	rw, err := Open(port, baud)
	if err != nil {
		return nil, err
	}
	r := &Registrar{Port: port, Info: info}
	r.Init(rw)
	glog.Infof("serial: serving %s on %s", info.Ref.Name(), port)
	return r, nil
}

// Connector implements l1.Connector on a serial port.
type Connector struct {
	Port string
	Baud int
}

// NewConnector creates a Connector from a serial:// URL.
func NewConnector(rawURL string) (*Connector, error) {
	port, baud, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &Connector{Port: port, Baud: baud}, nil
}

// Discover implements Connector.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	return nil, ErrNoDiscovery
}

// Connect implements Connector. ref is not checked, whatever is on the
// other end of the port answers.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	rw, err := Open(c.Port, c.Baud)
	if err != nil {
		return nil, err
	}
	cc := &comm.ControllerConn{}
	cc.Init(rw)
	return cc, nil
}
