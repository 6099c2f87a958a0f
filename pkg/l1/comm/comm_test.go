package comm

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/l1"
	"github.com/robotalks/x10.go/pkg/l1/msgs"
	x10msgs "github.com/robotalks/x10.go/pkg/x10/msgs"
)

type chanReadWriter struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once sync.Once
}

func linkedPair() (*chanReadWriter, *chanReadWriter) {
	a, b := make(chan []byte, 16), make(chan []byte, 16)
	return &chanReadWriter{in: a, out: b, done: make(chan struct{})},
		&chanReadWriter{in: b, out: a, done: make(chan struct{})}
}

func (c *chanReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-c.in:
		return pkt, nil
	case <-c.done:
		return nil, io.EOF
	}
}

func (c *chanReadWriter) WritePacket(pkt []byte) error {
	select {
	case c.out <- append([]byte(nil), pkt...):
		return nil
	case <-c.done:
		return io.ErrClosedPipe
	}
}

func (c *chanReadWriter) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *chanReadWriter) Run(ctx context.Context) error {
	<-ctx.Done()
	c.Close()
	return ctx.Err()
}

func runLoop(t *testing.T, loop *fx.Loop) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRegistrarAndControllerConn(t *testing.T) {
	serverRW, clientRW := linkedPair()

	reg := &Registrar{}
	reg.Init(serverRW)
	server := fx.NewLoop()
	server.Interval = 5 * time.Millisecond
	server.Add(reg, &UnsupportedCommands{})
	server.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			cmd, ok := mctx.CurrentMessage().(*l1.CommandMsg)
			if !ok {
				return
			}
			if _, ok := cmd.Command.Msg().(*x10msgs.X10StatusQuery); ok {
				mctx.MessageTaken()
				cmd.Command.Done(msgs.NewCommandOK())
				reg.SendEvent(cc.Context(), &x10msgs.X10Received{
					Command: &x10msgs.X10Command{House: "A", Unit: 1, Function: "ON"},
				})
			}
		}))
		return nil
	}))
	runLoop(t, server)

	conn := &ControllerConn{}
	conn.Init(clientRW)
	events := make(chan *x10msgs.X10Received, 1)
	client := fx.NewLoop()
	client.Interval = 5 * time.Millisecond
	client.Add(conn)
	client.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			if ev, ok := mctx.CurrentMessage().(*x10msgs.X10Received); ok {
				mctx.MessageTaken()
				events <- ev
			}
		}))
		return nil
	}))
	runLoop(t, client)

	res := <-conn.DoCommand(&x10msgs.X10StatusQuery{}).ResultChan()
	require.NoError(t, res.Err)
	require.IsType(t, &msgs.CommandOK{}, res.Msg)
	ev := <-events
	require.Equal(t, "A", ev.Command.House)
	require.Equal(t, "ON", ev.Command.Function)

	res = <-conn.DoCommand(&x10msgs.X10Send{House: "A", Unit: 1}).ResultChan()
	require.EqualError(t, res.Err, msgs.ErrUnsupportedCommand.Error())
}

func TestControllerConnExpiration(t *testing.T) {
	_, clientRW := linkedPair()
	conn := &ControllerConn{}
	conn.Init(clientRW)
	conn.SetExpiration(time.Millisecond)
	client := fx.NewLoop()
	client.Interval = 5 * time.Millisecond
	client.Add(conn)
	runLoop(t, client)

	res := <-conn.DoCommand(&x10msgs.X10StatusQuery{}).ResultChan()
	require.True(t, errors.Is(res.Err, context.DeadlineExceeded))
}

func TestControllerConnSendFailure(t *testing.T) {
	_, clientRW := linkedPair()
	conn := &ControllerConn{}
	conn.Init(clientRW)
	res := <-conn.DoCommand(&testUnserializable{}).ResultChan()
	require.True(t, errors.Is(res.Err, msgs.ErrNotSerializable))
}

type testUnserializable struct{}

func (m *testUnserializable) NewMessage() fx.Message { return &testUnserializable{} }
