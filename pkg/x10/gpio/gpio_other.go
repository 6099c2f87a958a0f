//go:build !linux

package gpio

import "errors"

// ErrUnsupported is returned by Open off Linux.
var ErrUnsupported = errors.New("gpio: not supported on this platform")

// Line is unavailable on this platform.
type Line struct{}

// Open always fails.
func Open(pins Pins) (*Line, error) {
	return nil, ErrUnsupported
}

// ZeroCross implements x10.Line.
func (l *Line) ZeroCross() bool { return false }

// Receive implements x10.Line.
func (l *Line) Receive() bool { return true }

// Drive implements x10.Line.
func (l *Line) Drive(bool) {}

// Indicate implements x10.Line.
func (l *Line) Indicate(bool) {}

// Attach implements x10.Line.
func (l *Line) Attach(func()) error { return ErrUnsupported }

// Detach implements x10.Line.
func (l *Line) Detach() error { return nil }

// Close implements io.Closer.
func (l *Line) Close() error { return nil }
