// Package rtscheduler implements simtemp.Scheduler with real wall-clock
// timers, grounded on the context.CancelFunc + sync.WaitGroup shutdown
// discipline in modules/framesupplier/internal/supplier.go's Start/Stop,
// adapted here from "cancel a running loop" to "cancel a single pending
// timer callback".
package rtscheduler

import (
	"sync"
	"time"

	"github.com/PyCharmGuy123/simtemp/simtemp"
)

// Scheduler schedules callbacks with time.AfterFunc. It guarantees at
// most one pending callback per call returned from Schedule, and
// CancelAndWait blocks until any in-flight callback has returned —
// the Go analogue of cancel_delayed_work_sync.
type Scheduler struct{}

// New returns a ready-to-use Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Schedule(d time.Duration, fn func()) simtemp.ScheduledCall {
	c := &call{done: make(chan struct{})}
	c.timer = time.AfterFunc(d, func() {
		defer close(c.done)
		fn()
	})
	return c
}

type call struct {
	mu     sync.Mutex
	timer  *time.Timer
	done   chan struct{}
	waited bool
}

// CancelAndWait stops the timer if it hasn't fired, then waits for any
// already-started fn to finish. Idempotent.
func (c *call) CancelAndWait() {
	c.mu.Lock()
	if c.waited {
		c.mu.Unlock()
		return
	}
	c.waited = true
	stopped := c.timer.Stop()
	c.mu.Unlock()

	if stopped {
		return
	}
	<-c.done
}
