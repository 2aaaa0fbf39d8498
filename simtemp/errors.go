package simtemp

import "errors"

// Error taxonomy for the device's reader and control-attribute surfaces.
// Callers should compare with errors.Is, not equality, since transports
// may wrap these.
var (
	// ErrInvalidArgument is returned for a bad attribute write or a read
	// buffer smaller than RecordSize. No state changes.
	ErrInvalidArgument = errors.New("simtemp: invalid argument")
	// ErrAgain is returned by a non-blocking read that finds no data.
	// No state changes.
	ErrAgain = errors.New("simtemp: resource temporarily unavailable")
	// ErrIoFatal is returned to any reader operation that observes the
	// device tearing down.
	ErrIoFatal = errors.New("simtemp: device is tearing down")
	// ErrFault is returned when a dequeued record could not be delivered
	// to the caller. The record is lost.
	ErrFault = errors.New("simtemp: failed to deliver record to caller")
	// ErrNoDevice is returned by a handle whose backing device is gone.
	ErrNoDevice = errors.New("simtemp: no such device")
)
