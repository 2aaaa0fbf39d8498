package simtemp

import (
	"context"
	"sync"
)

// PollMask is the readiness mask returned by Handle.Poll, per spec.md
// §4.5: composed of Readable (queue non-empty) and Priority (alert
// armed), with no other bits — the Go analogue of POLLIN/POLLPRI.
type PollMask struct {
	Readable bool
	Priority bool
}

// Handle is one open reference to the record stream. It pins its Device
// for as long as it is open, per spec.md §3 ("Ownership"): the
// Lifecycle Controller's Remove does not return nil until every open
// Handle has been Closed; if Remove's ctx ends first, it returns ctx.Err().
type Handle struct {
	d         *Device
	closeOnce sync.Once
}

// Open pins d and returns a new Handle, unless d is tearing down.
// Grounded on simdev_open's get_device/-ENODEV pair in the original
// driver.
func (d *Device) Open() (*Handle, error) {
	if d.stopping.Load() {
		return nil, ErrIoFatal
	}
	d.openHandles.Add(1)
	return &Handle{d: d}, nil
}

// Close unpins the Device. Idempotent; never fails.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.d.openHandles.Done()
	})
	return nil
}

// Read blocks (unless nonBlocking) until exactly one record is available,
// ctx is cancelled, or the device is torn down, per spec.md §4.5.
// len(buf) must be at least RecordSize. On success it returns
// RecordSize. A ctx cancellation while blocked returns ctx.Err() cleanly,
// per spec.md §5 ("a waiting reader cancelled externally returns
// cleanly without losing or consuming a record") — no record is popped
// and the predicate is left exactly as it was.
func (h *Handle) Read(ctx context.Context, buf []byte, nonBlocking bool) (int, error) {
	if len(buf) < RecordSize {
		return 0, ErrInvalidArgument
	}

	d := h.d

	// sync.Cond has no native cancellation; a watcher goroutine wakes
	// the waiter on ctx.Done so the for loop below can re-check and
	// bail out, mirroring how Remove wakes blocked readers via
	// Broadcast on stopping.
	watchDone := make(chan struct{})
	defer close(watchDone)
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				d.mu.Lock()
				d.cond.Broadcast()
				d.mu.Unlock()
			case <-watchDone:
			}
		}()
	}

	d.mu.Lock()
	for d.queue.isEmpty() {
		if d.stopping.Load() {
			d.mu.Unlock()
			return 0, ErrIoFatal
		}
		if nonBlocking {
			d.mu.Unlock()
			return 0, ErrAgain
		}
		if ctx != nil && ctx.Err() != nil {
			d.mu.Unlock()
			return 0, ctx.Err()
		}
		// Wait releases d.mu and re-acquires it on wake. Spurious
		// wakeups are handled by the enclosing for loop re-checking
		// the predicate, per spec.md §5.
		d.cond.Wait()
	}

	rec, ok := d.queue.popOne()
	if !ok {
		// Unreachable: the loop above only exits with a non-empty
		// queue or an error return. Kept defensive to mirror the
		// original driver's own belt-and-suspenders kfifo_out check.
		d.mu.Unlock()
		return 0, ErrIoFatal
	}
	if rec.Flags&FlagThreshold != 0 {
		d.alert.clear()
	}
	d.mu.Unlock()

	rec.Encode(buf)
	return RecordSize, nil
}

// Poll reports current readiness without blocking, per spec.md §4.5.
func (h *Handle) Poll() PollMask {
	d := h.d
	d.mu.Lock()
	defer d.mu.Unlock()
	return PollMask{
		Readable: !d.queue.isEmpty(),
		Priority: d.alert.isArmed(),
	}
}
