package x10

import "time"

// ZeroCrossReader samples the zero-crossing input.
type ZeroCrossReader interface {
	ZeroCross() bool
}

// Line is the hardware side of a transceiver.
type Line interface {
	ZeroCrossReader
	// Receive samples the receive data input. The line is active low:
	// false means a carrier burst is present.
	Receive() bool
	// Drive sets the transmit data output.
	Drive(level bool)
	// Indicate sets the status indicator, may be a no-op.
	Indicate(on bool)
	// Attach installs handler to be called on both edges of the
	// zero-crossing input.
	Attach(handler func()) error
	// Detach removes the edge handler.
	Detach() error
}

// Clock provides the time base used for burst timing.
type Clock interface {
	// Now returns a monotonic timestamp.
	Now() time.Duration
	// Delay blocks for d.
	Delay(d time.Duration)
}

// SystemClock is a Clock on the process monotonic clock. Delay spins
// because scheduler sleeps are far coarser than a bit burst.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a SystemClock.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now implements Clock.
func (c *SystemClock) Now() time.Duration {
	return time.Since(c.start)
}

// Delay implements Clock.
func (c *SystemClock) Delay(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// waitZeroCross polls r until it has changed level n times. A positive
// timeout bounds the wait for each single edge.
func waitZeroCross(r ZeroCrossReader, clock Clock, n int, timeout time.Duration) error {
	for i := 0; i < n; i++ {
		level := r.ZeroCross()
		start := clock.Now()
		for r.ZeroCross() == level {
			if timeout > 0 && clock.Now()-start > timeout {
				return ErrNoZeroCross
			}
		}
	}
	return nil
}
