package simtemp_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PyCharmGuy123/simtemp/simtemp"
)

// fakeClock supplies deterministic, test-controlled timestamps.
type fakeClock struct {
	mu sync.Mutex
	ns uint64
}

func (c *fakeClock) NowNanos() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ns
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.ns += uint64(d.Nanoseconds())
	c.mu.Unlock()
}

// fakeScheduler replaces real wall-clock timers with an explicit Fire,
// so producer ticks can be driven one at a time from a test without
// sleeping. Only one pending call is tracked at a time, matching the
// real Scheduler's contract.
type fakeScheduler struct {
	mu           sync.Mutex
	pending      *fakeCall
	lastDuration time.Duration
}

type fakeCall struct {
	mu        sync.Mutex
	fn        func()
	cancelled bool
}

func (s *fakeScheduler) Schedule(d time.Duration, fn func()) simtemp.ScheduledCall {
	c := &fakeCall{fn: fn}
	s.mu.Lock()
	s.pending = c
	s.lastDuration = d
	s.mu.Unlock()
	return c
}

func (c *fakeCall) CancelAndWait() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
}

// Fire runs the most recently scheduled call synchronously, unless it
// was cancelled first.
func (s *fakeScheduler) Fire() {
	s.mu.Lock()
	c := s.pending
	s.mu.Unlock()
	if c == nil {
		return
	}
	c.mu.Lock()
	cancelled := c.cancelled
	c.mu.Unlock()
	if !cancelled {
		c.fn()
	}
}

func newTestDevice(t *testing.T) (*simtemp.Device, *fakeScheduler, *fakeClock) {
	t.Helper()
	sched := &fakeScheduler{}
	clock := &fakeClock{}
	dev, err := simtemp.Probe(simtemp.ProbeOptions{
		InstanceID:         "test",
		Scheduler:          sched,
		Clock:              clock,
		DefaultSamplingMs:  100,
		DefaultThresholdMC: 45000,
	})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		dev.Remove(ctx)
	})
	return dev, sched, clock
}

func readOne(t *testing.T, h *simtemp.Handle) simtemp.Record {
	t.Helper()
	buf := make([]byte, simtemp.RecordSize)
	n, err := h.Read(context.Background(), buf, true)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != simtemp.RecordSize {
		t.Fatalf("Read() n = %d, want %d", n, simtemp.RecordSize)
	}
	return simtemp.DecodeRecord(buf)
}

// S1: ramp mode produces temp_mC = 25000, 25200, 25400 on successive
// ticks, each flagged NEW_SAMPLE.
func TestScenarioS1RampSequence(t *testing.T) {
	dev, sched, _ := newTestDevice(t)
	dev.SetMode(simtemp.ModeRamp)

	h, err := dev.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	want := []int32{25000, 25200, 25400}
	for i, w := range want {
		sched.Fire()
		rec := readOne(t, h)
		if rec.TempMC != w {
			t.Fatalf("tick %d: TempMC = %d, want %d", i, rec.TempMC, w)
		}
		if rec.Flags&simtemp.FlagNewSample == 0 {
			t.Fatalf("tick %d: FlagNewSample not set", i)
		}
	}
}

// S2: a threshold crossing arms the latch exactly once, and consuming
// the threshold-bearing record clears it.
func TestScenarioS2ThresholdArmsAndClears(t *testing.T) {
	dev, sched, _ := newTestDevice(t)
	dev.SetMode(simtemp.ModeNormal)
	dev.SetThresholdMC(20000)

	h, err := dev.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	sched.Fire()

	if mask := h.Poll(); !mask.Priority {
		t.Fatalf("Poll() Priority = false after a threshold crossing")
	}
	stats := dev.CountersSnapshot()
	if stats.Alerts != 1 {
		t.Fatalf("Alerts = %d, want 1", stats.Alerts)
	}

	rec := readOne(t, h)
	if rec.Flags&simtemp.FlagThreshold == 0 {
		t.Fatalf("consumed record missing FlagThreshold")
	}
	if mask := h.Poll(); mask.Priority {
		t.Fatalf("Poll() Priority = true after consuming the only threshold record")
	}
}

// S3: with no reader draining the queue, drops grow as ticks exceed
// queue capacity, and size never exceeds capacity.
func TestScenarioS3SustainedOverflowDrops(t *testing.T) {
	dev, sched, _ := newTestDevice(t)

	const ticks = 500
	for i := 0; i < ticks; i++ {
		sched.Fire()
		if depth := dev.QueueDepth(); depth > simtemp.QueueCapacity {
			t.Fatalf("QueueDepth() = %d exceeds capacity %d at tick %d", depth, simtemp.QueueCapacity, i)
		}
	}

	stats := dev.CountersSnapshot()
	wantDrops := uint64(ticks - simtemp.QueueCapacity)
	if stats.Drops != wantDrops {
		t.Fatalf("Drops = %d, want %d", stats.Drops, wantDrops)
	}
	if stats.Drops < 300 {
		t.Fatalf("Drops = %d, want >= 300", stats.Drops)
	}
}

// S4: writing sampling_ms=0 is rejected and leaves the sampling period
// unchanged.
func TestScenarioS4RejectsZeroSamplingMs(t *testing.T) {
	dev, _, _ := newTestDevice(t)

	before := dev.Snapshot().SamplingMs
	if err := dev.SetSamplingMs(0); !errors.Is(err, simtemp.ErrInvalidArgument) {
		t.Fatalf("SetSamplingMs(0) error = %v, want ErrInvalidArgument", err)
	}
	if after := dev.Snapshot().SamplingMs; after != before {
		t.Fatalf("SamplingMs changed after a rejected write: got %d, want %d", after, before)
	}
}

// S5: a reader blocked in Read returns ErrIoFatal promptly once
// tear-down begins, without consuming a record.
func TestScenarioS5TeardownWakesBlockedReader(t *testing.T) {
	dev, _, _ := newTestDevice(t)

	h, err := dev.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		buf := make([]byte, simtemp.RecordSize)
		_, err := h.Read(context.Background(), buf, false)
		// Release the pin as soon as the blocked read wakes, so
		// Remove's wait for open handles can complete.
		h.Close()
		errCh <- err
	}()

	// Give the reader a chance to actually block before tearing down.
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := dev.Remove(ctx); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, simtemp.ErrIoFatal) {
			t.Fatalf("blocked Read() error = %v, want ErrIoFatal", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("blocked Read() did not return within 1s of Remove")
	}
}

// S6: writing an unknown mode name is rejected and leaves the mode
// unchanged.
func TestScenarioS6RejectsUnknownMode(t *testing.T) {
	dev, _, _ := newTestDevice(t)
	dev.SetMode(simtemp.ModeNoisy)

	if err := dev.SetModeText("scorching"); !errors.Is(err, simtemp.ErrInvalidArgument) {
		t.Fatalf("SetModeText(invalid) error = %v, want ErrInvalidArgument", err)
	}
	if m := dev.Snapshot().Mode; m != simtemp.ModeNoisy {
		t.Fatalf("Mode = %v after a rejected write, want ModeNoisy", m)
	}
}

// S8: SetSamplingMs cancels any pending tick and reschedules with the
// new period.
func TestScenarioS8SamplingMsReschedules(t *testing.T) {
	dev, sched, _ := newTestDevice(t)

	if err := dev.SetSamplingMs(250); err != nil {
		t.Fatalf("SetSamplingMs() error = %v", err)
	}

	sched.mu.Lock()
	got := sched.lastDuration
	sched.mu.Unlock()

	if got != 250*time.Millisecond {
		t.Fatalf("scheduled duration = %v, want 250ms", got)
	}
	if after := dev.Snapshot().SamplingMs; after != 250 {
		t.Fatalf("SamplingMs = %d, want 250", after)
	}
}

// Invariant 3: updates increments exactly once per committed record.
func TestInvariantUpdatesCountsCommits(t *testing.T) {
	dev, sched, _ := newTestDevice(t)
	const ticks = 37
	for i := 0; i < ticks; i++ {
		sched.Fire()
	}
	if got := dev.CountersSnapshot().Updates; got != uint64(ticks) {
		t.Fatalf("Updates = %d, want %d", got, ticks)
	}
}

// Invariant 6: after Remove, no further tick executes even if the
// scheduler is fired again.
func TestInvariantNoTickAfterStopping(t *testing.T) {
	dev, sched, _ := newTestDevice(t)
	sched.Fire()
	before := dev.CountersSnapshot().Updates

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := dev.Remove(ctx); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	sched.Fire()
	if after := dev.CountersSnapshot().Updates; after != before {
		t.Fatalf("Updates changed after Remove: before=%d after=%d", before, after)
	}
}

// Boundary: a read buffer shorter than RecordSize is rejected.
func TestReadRejectsShortBuffer(t *testing.T) {
	dev, sched, _ := newTestDevice(t)
	sched.Fire()

	h, err := dev.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	buf := make([]byte, simtemp.RecordSize-1)
	if _, err := h.Read(context.Background(), buf, true); !errors.Is(err, simtemp.ErrInvalidArgument) {
		t.Fatalf("Read() with short buffer error = %v, want ErrInvalidArgument", err)
	}
}

// Boundary: a read buffer larger than RecordSize still yields exactly
// one record.
func TestReadOversizedBufferYieldsOneRecord(t *testing.T) {
	dev, sched, _ := newTestDevice(t)
	sched.Fire()

	h, err := dev.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	buf := make([]byte, 1000)
	n, err := h.Read(context.Background(), buf, true)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != simtemp.RecordSize {
		t.Fatalf("Read() n = %d, want %d", n, simtemp.RecordSize)
	}
}

// Non-blocking read on an empty queue returns ErrAgain without
// blocking.
func TestReadNonBlockingOnEmptyQueueReturnsAgain(t *testing.T) {
	dev, _, _ := newTestDevice(t)

	h, err := dev.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	buf := make([]byte, simtemp.RecordSize)
	if _, err := h.Read(context.Background(), buf, true); !errors.Is(err, simtemp.ErrAgain) {
		t.Fatalf("Read() on empty queue error = %v, want ErrAgain", err)
	}
}

// A context cancelled while a reader is blocked unblocks it with the
// context's error, without the queue losing a state transition.
func TestReadContextCancellationUnblocks(t *testing.T) {
	dev, _, _ := newTestDevice(t)

	h, err := dev.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		buf := make([]byte, simtemp.RecordSize)
		_, err := h.Read(ctx, buf, false)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Read() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Read() did not return within 1s of context cancellation")
	}
}

// Round trip: writing then reading a text attribute returns the
// written value in canonical form.
func TestAttributeRoundTripModeCanonicalization(t *testing.T) {
	dev, _, _ := newTestDevice(t)
	if err := dev.SetModeText(" ramp \n"); err != nil {
		t.Fatalf("SetModeText() error = %v", err)
	}
	if got := dev.Snapshot().Mode.String(); got != "ramp" {
		t.Fatalf("Mode.String() = %q, want %q", got, "ramp")
	}
}
