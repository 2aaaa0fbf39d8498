package simtemp

import (
	"strconv"
	"strings"
	"time"
)

// scheduleNext installs a fresh producer tick under the current
// scheduling generation, unless the device is stopping. Matches
// simdev_schedule_next in the original driver: at most one pending
// callback is tracked at a time in d.pending. A caller that is
// superseding whatever is currently pending (SetSamplingMs) must
// have already bumped schedGen and cancelled the old pending call before
// calling this, so that a stale in-flight tick's own trailing reschedule
// (see continueChain) cannot race this install and leave a second,
// unreferenced timer chain running.
func (d *Device) scheduleNext() {
	if d.stopping.Load() {
		return
	}
	period := time.Duration(d.cfg.getSamplingMs()) * time.Millisecond

	d.schedMu.Lock()
	defer d.schedMu.Unlock()
	// Re-check under schedMu: a concurrent Remove may have flipped
	// stopping and cleared d.pending between the Load above and here.
	if d.stopping.Load() {
		return
	}
	gen := d.schedGen
	d.pending = d.scheduler.Schedule(period, func() { d.tick(gen) })
}

// tick is one invocation of the sample producer, per spec.md §4.2. gen is
// the scheduling generation this invocation was installed under; it is
// threaded through to continueChain so a tick that was superseded while
// running (by SetSamplingMs or Remove) does not install a competing timer.
func (d *Device) tick(gen uint64) {
	if d.stopping.Load() {
		return
	}

	nowNs := d.clock.NowNanos()
	mode := d.cfg.getMode()
	ramp := d.cfg.ramp
	d.cfg.ramp++

	tempMC := synthesize(mode, ramp)

	rec := Record{
		TimestampNs: nowNs,
		TempMC:      tempMC,
		Flags:       FlagNewSample,
	}

	d.mu.Lock()
	// The Open Question in spec.md §9 is resolved here by reading
	// thresholdMC directly rather than re-snapshotting it under the
	// configuration store's sleeping lock: this matches what the
	// original driver's simdev_work_fn actually does (it reads
	// s->threshold_mC without taking attr_lock, inside the same
	// spin_lock_irqsave section that commits the sample). The property
	// that matters — the value used was current no earlier than the
	// start of this tick — still holds. thresholdMC is an atomic.Int32
	// precisely so this cross-lock read is well-defined: setThresholdMC
	// stores it without taking d.mu at all.
	if rec.TempMC >= d.cfg.thresholdMC.Load() {
		rec.Flags |= FlagThreshold
	}

	evicted := d.queue.forcePush(rec)
	if evicted {
		d.cfg.drops.Add(1)
	}

	if rec.Flags&FlagThreshold != 0 {
		if d.alert.armIfClear() {
			d.cfg.alerts.Add(1)
		}
	}
	d.cfg.updates.Add(1)
	d.cond.Broadcast()
	d.mu.Unlock()

	if d.cfg.getDebug() {
		d.log.Debug("simtemp tick",
			"instance_id", d.instanceID,
			"temp_mC", rec.TempMC,
			"flags", rec.Flags,
			"evicted", evicted,
		)
	}

	d.continueChain(gen)
}

// continueChain installs the next tick on behalf of a self-rescheduling
// producer, but only if gen is still the current scheduling generation.
// SetSamplingMs and Remove bump schedGen under schedMu before cancelling
// whatever is pending; if that bump happened before this tick reaches
// here, gen is stale and this is a no-op — the bumper owns installing
// whatever comes next, and this tick must not install a second, competing
// timer behind its back. Grounded on the observation that
// ScheduledCall.CancelAndWait only waits for tick's function to return,
// not for any timer that function itself installs.
func (d *Device) continueChain(gen uint64) {
	if d.stopping.Load() {
		return
	}
	period := time.Duration(d.cfg.getSamplingMs()) * time.Millisecond

	d.schedMu.Lock()
	defer d.schedMu.Unlock()
	if d.stopping.Load() || gen != d.schedGen {
		return
	}
	d.pending = d.scheduler.Schedule(period, func() { d.tick(gen) })
}

// synthesize computes temp_mC for the given mode and producer-private
// ramp counter, per spec.md §4.2. All three formulas are reproduced
// verbatim from the original driver's simdev_work_fn.
func synthesize(mode Mode, ramp int64) int32 {
	switch mode {
	case ModeRamp:
		return int32(25000 + ((ramp * 200) % 40000))
	case ModeNoisy:
		return int32(30000 + ((ramp*37)%4001) - 2000)
	default: // ModeNormal
		return int32(30000 + (ramp % 20000))
	}
}

// SetSamplingMs validates and applies a new sampling period, then
// synchronously cancels any pending tick and reschedules with the new
// period, per spec.md §4.4. The cancel-and-reschedule sequence checks
// stopping after cancelling and before rescheduling so it cannot race a
// concurrent Remove (spec.md §9, "Cancellation/rescheduling race"). The
// schedGen bump happens in the same critical section as grabbing the
// pending call, before CancelAndWait is ever called: that way, whether an
// in-flight tick's own continueChain runs before or after this section,
// it is forced to observe either the old pending call (which this
// function then correctly cancels/waits for) or the bumped generation
// (which makes its own reschedule attempt a no-op) — never both a stale
// pending reference and a matching generation at once.
func (d *Device) SetSamplingMs(v uint32) error {
	if err := d.cfg.setSamplingMs(v); err != nil {
		return err
	}

	d.schedMu.Lock()
	d.schedGen++
	pending := d.pending
	d.pending = nil
	d.schedMu.Unlock()
	if pending != nil {
		pending.CancelAndWait()
	}

	d.scheduleNext()
	return nil
}

// SetSamplingMsText parses the textual attribute form before delegating
// to SetSamplingMs.
func (d *Device) SetSamplingMsText(text string) error {
	v, err := strconv.ParseUint(strings.TrimSpace(text), 10, 32)
	if err != nil {
		return ErrInvalidArgument
	}
	return d.SetSamplingMs(uint32(v))
}

// SetThresholdMC applies a new alert threshold. No rescheduling is
// needed; the next tick observes the new value via its atomic load.
func (d *Device) SetThresholdMC(v int32) {
	d.cfg.setThresholdMC(v)
}

// SetThresholdMCText parses the textual attribute form.
func (d *Device) SetThresholdMCText(text string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
	if err != nil {
		return ErrInvalidArgument
	}
	d.SetThresholdMC(int32(v))
	return nil
}

// SetMode applies a new sample-generation mode.
func (d *Device) SetMode(m Mode) {
	d.cfg.setMode(m)
}

// SetModeText parses the textual attribute form, rejecting unknown mode
// names with ErrInvalidArgument and leaving the mode unchanged.
func (d *Device) SetModeText(text string) error {
	m, ok := ParseMode(strings.TrimSpace(text))
	if !ok {
		return ErrInvalidArgument
	}
	d.SetMode(m)
	return nil
}

// SetDebug toggles verbose tick logging.
func (d *Device) SetDebug(v bool) {
	d.cfg.setDebug(v)
}

// SetDebugText parses the textual attribute form: any nonzero value is
// true, matching kstrtoint + "!= 0" in the original driver.
func (d *Device) SetDebugText(text string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return ErrInvalidArgument
	}
	d.SetDebug(v != 0)
	return nil
}

// StatsText renders the read-only stats attribute exactly as spec.md §6
// specifies: "updates=<u> alerts=<a> drops=<d>\n" (the trailing newline
// is added by the attribute transport, not here).
func (d *Device) StatsText() string {
	s := d.cfg.stats()
	return "updates=" + strconv.FormatUint(s.Updates, 10) +
		" alerts=" + strconv.FormatUint(s.Alerts, 10) +
		" drops=" + strconv.FormatUint(s.Drops, 10)
}
