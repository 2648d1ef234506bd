package revolution

import (
	"sync/atomic"
	"time"
)

// Clock is a free-running microsecond counter that never blocks.
type Clock interface {
	Micros() int64
}

// MonotonicClock counts microseconds since it was created.
type MonotonicClock struct {
	t0 time.Time
}

func NewMonotonicClock() *MonotonicClock { return &MonotonicClock{t0: time.Now()} }

func (c *MonotonicClock) Micros() int64 { return time.Since(c.t0).Microseconds() }

// ManualClock only moves when told to. Safe for concurrent use.
type ManualClock struct {
	us atomic.Int64
}

func (c *ManualClock) Micros() int64 { return c.us.Load() }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.us.Add(d.Microseconds()) }

// Set jumps the clock to us.
func (c *ManualClock) Set(us int64) { c.us.Store(us) }
