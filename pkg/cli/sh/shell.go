// Package sh is the interactive shell of x10cli. Command packages add
// their ishell commands and message formatters from init.
package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"reflect"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/l1"
	"github.com/robotalks/x10.go/pkg/l1/comm"
	"github.com/robotalks/x10.go/pkg/l1/comm/serial"
	env "github.com/robotalks/x10.go/pkg/l1/env/connector"
	"github.com/robotalks/x10.go/pkg/l1/msgs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	ShowEvents  bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is an open controller connection with the loop serving it.
type Conn struct {
	l1.ControllerConn
	Ref    l1.ControllerRef
	Cancel func()
}

// Formatter renders a message for the console, ok false passes it on.
type Formatter func(msg fx.Message) (text string, ok bool)

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool
	showEvents = true
	timeout    = comm.DefaultCommandExpiration

	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
	formatters []Formatter
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&showEvents, "events", showEvents, "Print events from the controller.")
	flag.DurationVar(&timeout, "timeout", timeout, "Command timeout.")
}

// AddCmds is used by command packages from init.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// AddFormatters is used by command packages from init.
func AddFormatters(fns ...Formatter) {
	formatters = append(formatters, fns...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		ShowEvents:  showEvents,
		Timeout:     timeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps a command which needs a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatInfo renders a discovered controller with its labels.
func FormatInfo(info l1.ControllerInfo) string {
	text := info.Ref.Name()
	if info.Meta.Description != "" {
		text += ": " + info.Meta.Description
	}
	for _, key := range []string{"driver", "timing"} {
		if val, ok := info.Meta.Labels[key]; ok {
			text += fmt.Sprintf(" [%s=%s]", key, val)
		}
	}
	return text
}

// FormatMessage renders a message with the registered formatters, or as
// its type name and text form.
func FormatMessage(msg fx.Message) string {
	for _, fn := range formatters {
		if text, ok := fn(msg); ok {
			return text
		}
	}
	name := reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
	if s, ok := msg.(msgs.SerializableMessage); ok {
		return name + " " + s.Serializable().String()
	}
	return name
}

func (s *Shell) print(msg fx.Message, prefix string) error {
	if s.OutputJSON {
		sm, ok := msg.(msgs.SerializableMessage)
		if !ok {
			return msgs.ErrNotSerializable
		}
		out, err := json.Marshal(sm.Serializable())
		if err != nil {
			return err
		}
		s.Shell.Println(string(out))
		return nil
	}
	if _, ok := msg.(*msgs.CommandOK); ok {
		s.Shell.Println(prefix + "OK")
		return nil
	}
	s.Shell.Println(prefix + FormatMessage(msg))
	return nil
}

// DoCommand runs a command and prints the reply.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	select {
	case res := <-s.Conn.DoCommand(msg).ResultChan():
		err := res.Err
		if err == nil {
			err = s.print(res.Msg, "")
		}
		if err != nil {
			c.Err(err)
		}
		return err
	case <-time.After(s.Timeout):
		c.Err(fmt.Errorf("command timeout"))
		return context.DeadlineExceeded
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Discover lists controllers, of typ only unless it's empty.
func (s *Shell) Discover(typ string) ([]l1.ControllerInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	found, err := connector.Discover(context.TODO())
	if err != nil || typ == "" {
		return found, err
	}
	infoList := make([]l1.ControllerInfo, 0, len(found))
	for _, info := range found {
		if info.Ref.Type == typ {
			infoList = append(infoList, info)
		}
	}
	return infoList, nil
}

// Select discovers controllers of typ and asks for a choice when there
// are several.
func (s *Shell) Select(typ string) (l1.ControllerRef, error) {
	infoList, err := s.Discover(typ)
	if errors.Is(err, serial.ErrNoDiscovery) {
		return l1.ControllerRef{Type: typ, ID: serial.DirectID}, nil
	}
	if err != nil {
		return l1.ControllerRef{}, err
	}
	switch {
	case len(infoList) == 0:
		return l1.ControllerRef{}, fmt.Errorf("no controller discovered")
	case len(infoList) == 1:
		return infoList[0].Ref, nil
	case !s.Interactive:
		return l1.ControllerRef{}, fmt.Errorf("%d controllers discovered in non-interactive mode", len(infoList))
	}
	items := make([]string, len(infoList))
	for n, info := range infoList {
		items[n] = FormatInfo(info)
	}
	return infoList[s.Shell.MultiChoice(items, "Which one to connect?")].Ref, nil
}

// Connect replaces the current connection with one to ref.
func (s *Shell) Connect(ref l1.ControllerRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	cc, err := connector.Connect(ctx, ref)
	if err != nil {
		cancel()
		return err
	}
	if exp, ok := cc.(interface{ SetExpiration(time.Duration) }); ok {
		exp.SetExpiration(s.Timeout)
	}
	loop := fx.NewLoop()
	if adder, ok := cc.(fx.LoopAdder); ok {
		loop.Add(adder)
	}
	loop.AddController(fx.PrLvIdle, fx.ControlFunc(s.printEvents))
	s.Disconnect()
	s.Conn = &Conn{ControllerConn: cc, Ref: ref, Cancel: cancel}
	go loop.Run(ctx)
	s.Shell.SetPrompt(ref.Name() + " > ")
	return nil
}

// printEvents takes every event so they don't pile up in the loop.
func (s *Shell) printEvents(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		mctx.MessageTaken()
		if s.ShowEvents {
			s.print(mctx.CurrentMessage(), "< ")
		}
	}))
	return nil
}

// Disconnect closes the current connection.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run connects when configured and runs args as a single command, or
// the interactive shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Ref.Type != "" {
		ref := s.Config.Ref
		if !ref.IsValid() {
			var err error
			if ref, err = s.Select(ref.Type); err != nil {
				log.Fatalln(err)
			}
		}
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", ref.Name())
		}
		if err := s.Connect(ref); err != nil {
			log.Fatalf("connect %q failed: %v", ref.Name(), err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd lists controllers.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "[TYPE], list registered controllers",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var typ string
			if len(c.Args) > 0 {
				typ = c.Args[0]
			}
			infoList, err := s.Discover(typ)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if infoList == nil {
					infoList = []l1.ControllerInfo{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No controllers found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a controller.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE [ID]], connect a controller, discovering when ID is omitted",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var ref l1.ControllerRef
			var err error
			if len(c.Args) >= 2 {
				ref = l1.ControllerRef{Type: c.Args[0], ID: c.Args[1]}
			} else {
				var typ string
				if len(c.Args) == 1 {
					typ = c.Args[0]
				}
				ref, err = s.Select(typ)
			}
			if err == nil {
				err = s.Connect(ref)
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes the connection.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "close the connection",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main parses flags and runs the shell with auto connect.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
