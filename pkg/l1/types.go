// Package l1 defines how x10d (the controller owning a power line
// interface) and its clients find and talk to each other, independent
// of the transport.
package l1

import (
	"context"

	fx "github.com/robotalks/x10.go/pkg/framework"
)

// ControllerRef names a controller, e.g. x10/3f2a.
type ControllerRef struct {
	Type string
	ID   string
}

// Name is Type/ID, the topic suffix on MQTT.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid reports both parts are set.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ControllerMeta is published with the controller. x10d puts the
// driver and the timing profile into Labels.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo is what discovery returns.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Registrar is the controller's side of a transport.
type Registrar interface {
	// SendEvent sends an event to all clients.
	SendEvent(context.Context, fx.Message) error
}

// Command is a received command. Done sends the reply.
type Command interface {
	Msg() fx.Message
	Done(reply fx.Message) error
}

// CommandMsg posts a Command to the controller's loop.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// Connector is the client's side of a transport.
type Connector interface {
	Discover(context.Context) ([]ControllerInfo, error)
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn sends commands to one controller.
type ControllerConn interface {
	DoCommand(fx.Message) CommandFuture
}

// Result is the reply to a command. Err is set for a CommandErr reply,
// a transport failure or expiration.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture delivers exactly one Result.
type CommandFuture interface {
	ResultChan() <-chan Result
}
