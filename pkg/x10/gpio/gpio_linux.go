//go:build linux

package gpio

import (
	"context"
	"fmt"
	"sync"

	"github.com/davecheney/gpio"
	"github.com/golang/glog"
)

// Line is an x10.Line on sysfs GPIO pins.
type Line struct {
	pins Pins

	zeroCross gpio.Pin
	transmit  gpio.Pin
	receive   gpio.Pin
	indicator gpio.Pin

	lock    sync.Mutex
	handler func()
	cancel  func()
	done    chan struct{}
}

// Open exports and configures the pins.
func Open(pins Pins) (*Line, error) {
	l := &Line{pins: pins}
	var err error
	if l.zeroCross, err = gpio.OpenPin(pins.ZeroCross, gpio.ModeInput); err != nil {
		return nil, fmt.Errorf("zero-cross pin %d: %w", pins.ZeroCross, err)
	}
	if l.transmit, err = gpio.OpenPin(pins.Transmit, gpio.ModeOutput); err != nil {
		l.Close()
		return nil, fmt.Errorf("transmit pin %d: %w", pins.Transmit, err)
	}
	l.transmit.Clear()
	if pins.Receive > 0 {
		if l.receive, err = gpio.OpenPin(pins.Receive, gpio.ModeInput); err != nil {
			l.Close()
			return nil, fmt.Errorf("receive pin %d: %w", pins.Receive, err)
		}
	}
	if pins.Indicator > 0 {
		if l.indicator, err = gpio.OpenPin(pins.Indicator, gpio.ModeOutput); err != nil {
			l.Close()
			return nil, fmt.Errorf("indicator pin %d: %w", pins.Indicator, err)
		}
		l.indicator.Clear()
	}
	glog.Infof("gpio: zero-cross=%d tx=%d rx=%d led=%d",
		pins.ZeroCross, pins.Transmit, pins.Receive, pins.Indicator)
	return l, nil
}

// ZeroCross implements x10.Line.
func (l *Line) ZeroCross() bool {
	return l.zeroCross.Get()
}

// Receive implements x10.Line. Without a receive pin the line is idle.
func (l *Line) Receive() bool {
	if l.receive == nil {
		return true
	}
	return l.receive.Get()
}

// Drive implements x10.Line.
func (l *Line) Drive(level bool) {
	if level {
		l.transmit.Set()
	} else {
		l.transmit.Clear()
	}
}

// Indicate implements x10.Line.
func (l *Line) Indicate(on bool) {
	if l.indicator == nil {
		return
	}
	if on {
		l.indicator.Set()
	} else {
		l.indicator.Clear()
	}
}

// Attach implements x10.Line. Edges are detected by a goroutine
// polling the zero-crossing pin.
func (l *Line) Attach(handler func()) error {
	if handler == nil {
		return fmt.Errorf("nil edge handler")
	}
	if err := l.Detach(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.lock.Lock()
	l.handler, l.cancel, l.done = handler, cancel, done
	l.lock.Unlock()
	go l.watch(ctx, handler, done)
	return nil
}

// Detach implements x10.Line. It returns after the watcher stopped so
// no handler call overlaps a transmission.
func (l *Line) Detach() error {
	l.lock.Lock()
	cancel, done := l.cancel, l.done
	l.handler, l.cancel, l.done = nil, nil, nil
	l.lock.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (l *Line) watch(ctx context.Context, handler func(), done chan struct{}) {
	defer close(done)
	level := l.zeroCross.Get()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if v := l.zeroCross.Get(); v != level {
			level = v
			handler()
		}
	}
}

// Close implements io.Closer.
func (l *Line) Close() error {
	l.Detach()
	for _, pin := range []gpio.Pin{l.indicator, l.receive, l.transmit, l.zeroCross} {
		if pin != nil {
			pin.Close()
		}
	}
	return nil
}
