// Package simtemp implements the core of a virtual temperature sensor:
// a periodic sample producer, a bounded record queue, an edge-triggered
// alert latch, a locked configuration store, and the reader-facing
// stream surface that ties them together.
//
// The package has no knowledge of how it is exposed to the outside
// world — character device nodes, sysfs-like attributes, HTTP, or a
// Unix socket are all concerns of the collaborators in collaborators.go
// and the transports under internal/transport. This mirrors the
// original kernel module's own collaborators (cdev, sysfs, Device Tree)
// being swappable around a fixed core.
package simtemp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

const streamName = "simtemp"

// Device is one instance of the virtual temperature sensor core. The
// zero value is not usable; construct with Probe.
type Device struct {
	instanceID string
	log        *slog.Logger

	clock     Clock
	scheduler Scheduler

	// mu is the short critical section guarding queue, alert and the
	// alert-transition counter touch together, per spec.md §4.1 and
	// §5. It must never be held across a blocking call.
	mu    sync.Mutex
	cond  *sync.Cond
	queue recordQueue
	alert alertLatch

	cfg *configStore

	stopping atomic.Bool

	schedMu  sync.Mutex
	pending  ScheduledCall
	schedGen uint64

	openHandles sync.WaitGroup

	unregister []func()
}

// ProbeOptions configures bring-up. Scheduler and Clock are required;
// the registries and BindingLookup may be nil, in which case the
// corresponding step of bring-up is skipped (useful for unit tests that
// only need the core's direct API).
type ProbeOptions struct {
	InstanceID string
	Logger     *slog.Logger

	Scheduler Scheduler
	Clock     Clock

	StreamRegistry    StreamRegistry
	AttributeRegistry AttributeRegistry
	BindingLookup     BindingLookup

	// DefaultSamplingMs/DefaultThresholdMC seed the configuration store
	// before BindingLookup is consulted; BindingLookup values, if
	// present, take precedence. Matches the original driver's
	// attr_lock defaults followed by of_property_read_u32 overrides.
	DefaultSamplingMs  uint32
	DefaultThresholdMC int32
}

// Probe brings up a Device following spec.md §4.6: allocate, initialize
// RQ/AL/CS, read optional bring-up properties, register the stream and
// attribute surfaces, then schedule the first producer tick. Any failure
// undoes every prior step in reverse order, leaving no trace — grounded
// on the fail-stop pattern in References/orion-prototipe/internal/core/orion.go.
func Probe(opts ProbeOptions) (*Device, error) {
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("simtemp: ProbeOptions.Scheduler is required")
	}
	if opts.Clock == nil {
		return nil, fmt.Errorf("simtemp: ProbeOptions.Clock is required")
	}

	samplingMs := opts.DefaultSamplingMs
	if samplingMs == 0 {
		samplingMs = defaultSamplingMs
	}
	thresholdMC := opts.DefaultThresholdMC
	if thresholdMC == 0 {
		thresholdMC = defaultThresholdMC
	}

	d := &Device{
		instanceID: opts.InstanceID,
		log:        opts.Logger,
		clock:      opts.Clock,
		scheduler:  opts.Scheduler,
		cfg:        newConfigStore(samplingMs, thresholdMC),
	}
	d.cond = sync.NewCond(&d.mu)
	if d.log == nil {
		d.log = slog.Default()
	}

	// Step 3: optional bring-up configuration from the binding-property
	// collaborator.
	if opts.BindingLookup != nil {
		if v, ok := opts.BindingLookup.LookupUint32("sampling-ms"); ok && v > 0 {
			d.cfg.samplingMs = v
		}
		if v, ok := opts.BindingLookup.LookupInt32("threshold-mC"); ok {
			d.cfg.thresholdMC.Store(v)
		}
	}

	// Step 4: register the stream surface endpoint and control
	// attributes. Neither collaborator in this design can fail bring-up
	// (they report registration problems, if any, by logging rather
	// than erroring, matching device_create_file's dev_warn-on-failure
	// behavior in the original driver) so there is nothing to unwind
	// here; Remove() releases these same registrations in reverse order.
	if opts.StreamRegistry != nil {
		d.unregister = append(d.unregister, opts.StreamRegistry.Register(streamName, StreamHandlers{Open: d.Open}))
	}
	if opts.AttributeRegistry != nil {
		for _, reg := range d.attributeRegistrations() {
			d.unregister = append(d.unregister, opts.AttributeRegistry.RegisterAttr(reg.name, reg.mode, reg.attr))
		}
	}

	// Steps 5-6: initialize SP scheduling state and schedule the first
	// tick.
	d.scheduleNext()

	d.log.Info("simtemp device probed",
		"instance_id", d.instanceID,
		"sampling_ms", d.cfg.samplingMs,
		"threshold_mC", d.cfg.thresholdMC.Load(),
	)
	return d, nil
}

type attrRegistration struct {
	name string
	mode AttrMode
	attr Attribute
}

func (d *Device) attributeRegistrations() []attrRegistration {
	return []attrRegistration{
		{"sampling_ms", AttrReadWrite, Attribute{
			Show:  func() (string, error) { return fmt.Sprintf("%d", d.cfg.getSamplingMs()), nil },
			Store: func(v string) error { return d.SetSamplingMsText(v) },
		}},
		{"threshold_mC", AttrReadWrite, Attribute{
			Show:  func() (string, error) { return fmt.Sprintf("%d", d.cfg.getThresholdMC()), nil },
			Store: func(v string) error { return d.SetThresholdMCText(v) },
		}},
		{"mode", AttrReadWrite, Attribute{
			Show:  func() (string, error) { return d.cfg.getMode().String(), nil },
			Store: func(v string) error { return d.SetModeText(v) },
		}},
		{"debug", AttrReadWrite, Attribute{
			Show:  func() (string, error) { return boolAttrText(d.cfg.getDebug()), nil },
			Store: func(v string) error { return d.SetDebugText(v) },
		}},
		{"stats", AttrReadOnly, Attribute{
			Show: func() (string, error) { return d.StatsText(), nil },
		}},
	}
}

// Remove tears the Device down, per spec.md §4.6: set stopping, cancel
// and wait for any in-flight tick, unregister attributes then the
// stream endpoint, wake all waiters, and wait for every open handle to
// release its pin; if ctx ends first, Remove returns ctx.Err() without
// waiting further. No SP tick executes after this returns, and no
// reader blocks indefinitely past the wake step.
func (d *Device) Remove(ctx context.Context) error {
	debug := d.cfg.getDebug()
	if debug {
		d.log.Debug("simtemp device remove: start", "instance_id", d.instanceID)
	}

	d.stopping.Store(true)

	d.schedMu.Lock()
	d.schedGen++
	pending := d.pending
	d.pending = nil
	d.schedMu.Unlock()
	if pending != nil {
		pending.CancelAndWait()
	}
	if debug {
		d.log.Debug("simtemp device remove: cancelled producer", "instance_id", d.instanceID)
	}

	for i := len(d.unregister) - 1; i >= 0; i-- {
		d.unregister[i]()
	}

	d.mu.Lock()
	d.cond.Broadcast()
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.openHandles.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	d.log.Info("simtemp device removed", "instance_id", d.instanceID)
	return nil
}

// InstanceID returns the identity assigned at Probe time.
func (d *Device) InstanceID() string {
	return d.instanceID
}

// Snapshot returns the current configuration, for logging and metrics.
func (d *Device) Snapshot() ConfigSnapshot {
	return d.cfg.snapshot()
}

// CountersSnapshot returns the current updates/alerts/drops counters.
func (d *Device) CountersSnapshot() Stats {
	return d.cfg.stats()
}

// QueueDepth returns the current number of buffered records. Intended
// for metrics; takes the short critical section briefly.
func (d *Device) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.size()
}

func boolAttrText(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
