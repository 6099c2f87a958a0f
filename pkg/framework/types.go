package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable is a background worker owned by a Loop or a Runner.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is anything posted to the loop: commands from the wire,
// frames decoded from the power line, replies and events.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller is invoked once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// ControlContext is the state of the current iteration.
type ControlContext interface {
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// Messages collected before the iteration started.
	Messages() MessageStore

	LoopControl
}

// LoopControl is the part of the loop reachable from Runnables.
type LoopControl interface {
	// PostMessage queues a message for the next iteration.
	PostMessage(Message)
	// TriggerNext runs the next iteration without waiting for the ticker.
	TriggerNext()
}

// Priority levels, lower runs first within an iteration.
const (
	// PrLvSense runs first, for components turning input into messages.
	PrLvSense int = iota
	// PrLvControl is where commands are executed.
	PrLvControl
	// PrLvPostProc sees what controllers left or added.
	PrLvPostProc
	// PrLvIdle gets whatever nothing else took.
	PrLvIdle

	PriorityLevels
)

// MessageStore gives controllers access to queued messages.
type MessageStore interface {
	// ProcessMessages walks the messages in order.
	ProcessMessages(MessageProcessor)
	// AddMessages appends messages visible to later priority levels of
	// the same iteration.
	AddMessages(msgs ...Message)
}

// MessageProcessor is used by MessageStore to process messages.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the cursor of ProcessMessages.
type MessageProcessingContext interface {
	CurrentMessage() Message
	// MessageTaken removes the current message from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages.
	StopProcessing()
}
