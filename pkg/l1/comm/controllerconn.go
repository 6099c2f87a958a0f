package comm

import (
	"context"
	"sync"
	"time"

	fx "github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/l1"
	"github.com/robotalks/x10.go/pkg/l1/msgs"
)

// DefaultCommandExpiration is how long a client waits for a reply.
// It covers the slowest X10 command, programming an XTB interface.
const DefaultCommandExpiration = 15 * time.Second

// ControllerConn is the client side of a Pipe. Events are posted to the
// loop, replies resolve the pending command with the same sequence.
type ControllerConn struct {
	Expiration time.Duration

	pipe    Pipe
	lock    sync.Mutex
	seq     uint32
	pending map[uint32]*commandFuture
}

// Init attaches the transport.
func (c *ControllerConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.pending = make(map[uint32]*commandFuture)
}

// SetExpiration changes how long a reply is waited for.
func (c *ControllerConn) SetExpiration(d time.Duration) {
	c.lock.Lock()
	c.Expiration = d
	c.lock.Unlock()
}

// DoCommand implements l1.ControllerConn.
func (c *ControllerConn) DoCommand(msg fx.Message) l1.CommandFuture {
	c.lock.Lock()
	defer c.lock.Unlock()
	// 0 is reserved for events.
	if c.seq++; c.seq == 0 {
		c.seq++
	}
	f := &commandFuture{
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan l1.Result, 1),
	}
	if err := c.pipe.Send(msg, c.seq); err != nil {
		f.resolve(l1.Result{Err: err})
		return f
	}
	c.pending[c.seq] = f
	return f
}

// AddToLoop implements LoopAdder.
func (c *ControllerConn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.expire))
}

func (c *ControllerConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	}
	c.lock.Lock()
	f := c.pending[typed.Sequence]
	delete(c.pending, typed.Sequence)
	c.lock.Unlock()
	if f == nil {
		return nil
	}
	result := l1.Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.resolve(result)
	return nil
}

func (c *ControllerConn) expire(cc fx.ControlContext) error {
	now := cc.Time()
	c.lock.Lock()
	defer c.lock.Unlock()
	for seq, f := range c.pending {
		if now.After(f.expireAt) {
			delete(c.pending, seq)
			f.resolve(l1.Result{Err: context.DeadlineExceeded})
		}
	}
	return nil
}

type commandFuture struct {
	expireAt time.Time
	result   chan l1.Result
}

func (f *commandFuture) resolve(r l1.Result) {
	f.result <- r
	close(f.result)
}

func (f *commandFuture) ResultChan() <-chan l1.Result {
	return f.result
}
