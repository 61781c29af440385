package timer

import (
	"sync"
	"time"
)

// Debouncer runs the most recent trigger once the input has been quiet for Delay.
type Debouncer struct {
	sched Scheduler
	delay time.Duration

	mu     sync.Mutex
	handle Handle
	gen    uint64
}

// NewDebouncer creates a Debouncer. A zero delay runs triggers immediately.
func NewDebouncer(sched Scheduler, delay time.Duration) *Debouncer {
	if sched == nil {
		sched = Real()
	}
	return &Debouncer{sched: sched, delay: delay}
}

// Trigger replaces any pending call with f.
func (d *Debouncer) Trigger(f func()) {
	if d.delay <= 0 {
		d.Cancel()
		f()
		return
	}

	d.mu.Lock()
	if d.handle != nil {
		d.handle.Stop()
	}
	d.gen++
	gen := d.gen
	d.handle = d.sched.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a newer trigger or a cancel superseded this one
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.handle = nil
		d.mu.Unlock()
		f()
	})
	d.mu.Unlock()
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle != nil {
		d.handle.Stop()
		d.handle = nil
	}
	d.gen++
}

// Pending reports whether a call is waiting.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handle != nil
}
