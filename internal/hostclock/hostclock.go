// Package hostclock implements simtemp.Clock against the process's
// monotonic clock.
package hostclock

import "time"

// Clock reports nanoseconds on a monotonic timeline anchored at the
// moment New was called, analogous to ktime_get_ns() in the original driver. Absolute
// values are not meaningful across processes; only differences are.
type Clock struct {
	base time.Time
}

// New returns a ready-to-use Clock.
func New() *Clock {
	return &Clock{base: time.Now()}
}

func (c *Clock) NowNanos() uint64 {
	return uint64(time.Since(c.base).Nanoseconds())
}
