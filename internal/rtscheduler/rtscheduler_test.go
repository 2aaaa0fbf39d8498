package rtscheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleRunsAfterDelay(t *testing.T) {
	s := New()
	var ran atomic.Bool
	s.Schedule(10*time.Millisecond, func() { ran.Store(true) })

	time.Sleep(100 * time.Millisecond)
	if !ran.Load() {
		t.Fatalf("scheduled callback did not run within 100ms of a 10ms delay")
	}
}

func TestCancelAndWaitBeforeFirePreventsCallback(t *testing.T) {
	s := New()
	var ran atomic.Bool
	call := s.Schedule(50*time.Millisecond, func() { ran.Store(true) })
	call.CancelAndWait()

	time.Sleep(100 * time.Millisecond)
	if ran.Load() {
		t.Fatalf("cancelled callback ran anyway")
	}
}

func TestCancelAndWaitAfterFireWaitsForCompletion(t *testing.T) {
	s := New()
	var ran atomic.Bool
	call := s.Schedule(5*time.Millisecond, func() {
		time.Sleep(20 * time.Millisecond)
		ran.Store(true)
	})

	time.Sleep(15 * time.Millisecond) // let the timer fire, callback now in flight
	call.CancelAndWait()
	if !ran.Load() {
		t.Fatalf("CancelAndWait returned before an in-flight callback finished")
	}
}

func TestCancelAndWaitIsIdempotent(t *testing.T) {
	s := New()
	call := s.Schedule(time.Hour, func() {})
	call.CancelAndWait()
	call.CancelAndWait() // must not block or panic
}
