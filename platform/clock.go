package platform

import (
	"sync/atomic"
	"time"
)

// Clock is the boot-time clock. Both readings are monotonically
// non-decreasing.
type Clock interface {
	BootMicroseconds() uint64
	BootNanoseconds() uint64
}

// CounterClock is a placeholder clock that advances by one tick on every
// query instead of tracking elapsed time. It stands in until a timer-backed
// source is wired for the board. Guests sharing one platform may query it
// from several goroutines; every reading is distinct.
type CounterClock struct {
	ticks atomic.Uint64
}

// NewCounterClock returns a counter starting at zero.
func NewCounterClock() *CounterClock {
	return &CounterClock{}
}

func (c *CounterClock) BootMicroseconds() uint64 {
	return c.ticks.Add(1)
}

// BootNanoseconds shares the counter with BootMicroseconds, scaled so the
// two units stay consistent.
func (c *CounterClock) BootNanoseconds() uint64 {
	return c.BootMicroseconds() * 1000
}

// MonotonicClock reports time elapsed since it was created.
type MonotonicClock struct {
	startTime time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{startTime: time.Now()}
}

func (c *MonotonicClock) BootMicroseconds() uint64 {
	return uint64(time.Since(c.startTime).Microseconds())
}

func (c *MonotonicClock) BootNanoseconds() uint64 {
	return uint64(time.Since(c.startTime).Nanoseconds())
}
