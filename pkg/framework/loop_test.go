package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	val int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

func TestLoopDeliversPostedMessages(t *testing.T) {
	got := make(chan int, 4)
	loop := NewLoop()
	loop.Interval = time.Hour
	loop.AddRunnable(RunFunc(func(ctx context.Context) error {
		ctl := LoopCtlFrom(ctx)
		ctl.PostMessage(&testMsg{val: 1})
		ctl.PostMessage(&testMsg{val: 2})
		ctl.TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			if msg, ok := mctx.CurrentMessage().(*testMsg); ok {
				mctx.MessageTaken()
				got <- msg.val
			}
		}))
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	require.Equal(t, 1, <-got)
	require.Equal(t, 2, <-got)
	cancel()
	require.True(t, errors.Is(<-done, context.Canceled))
}

func TestLoopStopsOnRunnableFailure(t *testing.T) {
	boom := errors.New("boom")
	stopped := make(chan struct{})
	loop := NewLoop()
	loop.AddRunnable(
		RunFunc(func(ctx context.Context) error { return boom }),
		NamedRun("waiter", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return ctx.Err()
		})),
	)
	err := loop.Run(context.Background())
	require.True(t, errors.Is(err, boom))
	<-stopped
}

func TestLoopMessagePriority(t *testing.T) {
	var order []string
	done := make(chan struct{})
	loop := NewLoop()
	loop.Interval = time.Millisecond
	loop.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			order = append(order, "post")
			close(done)
		}))
		return nil
	}))
	loop.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		if len(order) == 0 {
			order = append(order, "sense")
			cc.Messages().AddMessages(&testMsg{})
		}
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	<-done
	require.Equal(t, []string{"sense", "post"}, order)
}
