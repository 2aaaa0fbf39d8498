package simtemp

import (
	"sync"
	"sync/atomic"
)

// Mode selects the sample-generation formula used by the producer.
type Mode int

const (
	ModeNormal Mode = iota
	ModeRamp
	ModeNoisy
)

var modeNames = [...]string{"normal", "ramp", "noisy"}

// String renders the canonical lowercase attribute text for a Mode.
func (m Mode) String() string {
	if m < ModeNormal || m > ModeNoisy {
		return modeNames[ModeNormal]
	}
	return modeNames[m]
}

// ParseMode parses the canonical attribute text for a Mode. Unknown
// names report ok=false; callers should translate that to
// ErrInvalidArgument.
func ParseMode(s string) (Mode, bool) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), true
		}
	}
	return ModeNormal, false
}

const (
	defaultSamplingMs  = 1000
	defaultThresholdMC = 45000
)

// configStore holds the mutable device configuration behind a sleeping
// mutex, plus three lock-free counters, per spec.md §4.4. Grounded on the
// attr_lock + atomic counters split in the original kernel module, and on
// the RWMutex-guarded config snapshot in
// References/orion-prototipe/internal/core/commands.go's getStatus.
type configStore struct {
	mu sync.RWMutex

	samplingMs uint32
	mode       Mode
	debug      bool

	// thresholdMC is read by the producer's tick under the device's
	// short critical section (d.mu), not under mu, per the Open Question
	// resolution in producer.go's tick. It is an atomic.Int32 rather
	// than a plain field guarded by mu so that cross-lock read (tick)
	// and write (setThresholdMC) are actually synchronized instead of
	// merely mirroring the original driver's hardware-atomic aligned-int
	// read, which has no equivalent without an explicit atomic in Go.
	thresholdMC atomic.Int32

	// ramp is producer-private; it is owned exclusively by the sample
	// producer goroutine and is never read or written under mu. See
	// spec.md §9, "Producer ownership of ramp_counter".
	ramp int64

	updates atomic.Uint64
	alerts  atomic.Uint64
	drops   atomic.Uint64
}

func newConfigStore(samplingMs uint32, thresholdMC int32) *configStore {
	if samplingMs == 0 {
		samplingMs = defaultSamplingMs
	}
	c := &configStore{
		samplingMs: samplingMs,
		mode:       ModeNormal,
	}
	c.thresholdMC.Store(thresholdMC)
	return c
}

// ConfigSnapshot is an immutable point-in-time view of the configuration
// store, safe to log or serve without holding any lock.
type ConfigSnapshot struct {
	SamplingMs  uint32
	ThresholdMC int32
	Mode        Mode
	Debug       bool
}

func (c *configStore) snapshot() ConfigSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ConfigSnapshot{
		SamplingMs:  c.samplingMs,
		ThresholdMC: c.thresholdMC.Load(),
		Mode:        c.mode,
		Debug:       c.debug,
	}
}

func (c *configStore) getSamplingMs() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.samplingMs
}

// setSamplingMs validates and assigns, per spec.md §4.4. Rescheduling the
// producer is the caller's responsibility (Device.SetSamplingMs), since
// that requires coordinating with the scheduler outside this lock.
func (c *configStore) setSamplingMs(v uint32) error {
	if v == 0 {
		return ErrInvalidArgument
	}
	c.mu.Lock()
	c.samplingMs = v
	c.mu.Unlock()
	return nil
}

func (c *configStore) getThresholdMC() int32 {
	return c.thresholdMC.Load()
}

func (c *configStore) setThresholdMC(v int32) {
	c.thresholdMC.Store(v)
}

func (c *configStore) getMode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

func (c *configStore) setMode(m Mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

func (c *configStore) getDebug() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debug
}

func (c *configStore) setDebug(v bool) {
	c.mu.Lock()
	c.debug = v
	c.mu.Unlock()
}

// Stats is a snapshot of the three lock-free counters.
type Stats struct {
	Updates uint64
	Alerts  uint64
	Drops   uint64
}

func (c *configStore) stats() Stats {
	return Stats{
		Updates: c.updates.Load(),
		Alerts:  c.alerts.Load(),
		Drops:   c.drops.Load(),
	}
}
