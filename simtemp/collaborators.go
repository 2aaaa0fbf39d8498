package simtemp

import "time"

// Scheduler schedules a single delayed callback, per spec.md §6. An
// implementation must guarantee at most one pending callback per
// ScheduledCall — Device never calls Schedule again on the same call
// without first cancelling it.
type Scheduler interface {
	// Schedule arranges for fn to run after d. fn must not block.
	Schedule(d time.Duration, fn func()) ScheduledCall
}

// ScheduledCall is a handle to one pending (or in-flight) scheduled
// callback.
type ScheduledCall interface {
	// CancelAndWait prevents fn from starting if it hasn't already, and
	// blocks until any already-running fn has returned. Idempotent.
	CancelAndWait()
}

// Clock supplies monotonic timestamps for record commits.
type Clock interface {
	NowNanos() uint64
}

// AttrMode is the read/write mode of a control attribute.
type AttrMode int

const (
	AttrReadOnly AttrMode = iota
	AttrReadWrite
)

// Attribute is a textual control attribute, per spec.md §6. Show renders
// the current value (without a trailing newline; transports add one).
// Store parses and applies new text (transports strip any trailing
// newline before calling Store).
type Attribute struct {
	Show  func() (string, error)
	Store func(value string) error // nil for read-only attributes
}

// AttributeRegistry is the control-attribute registry collaborator.
// Production transports (internal/transport/httpattrs) implement this by
// exposing each registered attribute over HTTP; tests use an in-memory
// fake.
type AttributeRegistry interface {
	RegisterAttr(name string, mode AttrMode, a Attribute) (unregister func())
}

// StreamHandlers is the set of operations the stream endpoint registry
// wires up for the record stream named "simtemp".
type StreamHandlers struct {
	Open  func() (*Handle, error)
	// Read/Poll/Close live on *Handle itself; Open is the only entry
	// point a registry needs, matching simdev_open's role in the
	// original character device.
}

// StreamRegistry is the stream endpoint registry collaborator.
type StreamRegistry interface {
	Register(name string, h StreamHandlers) (unregister func())
}

// BindingLookup is the optional bring-up property source, modeled on
// Device Tree of_property_read_u32 lookups in the original kernel module.
type BindingLookup interface {
	LookupUint32(key string) (uint32, bool)
	LookupInt32(key string) (int32, bool)
}
