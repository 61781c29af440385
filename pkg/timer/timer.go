// Package timer gives components owned, cancellable delayed tasks. A
// Scheduler decides where callbacks run: on a timer goroutine, posted back
// onto a host event loop, or under a manually advanced clock in tests.
package timer

import (
	"sort"
	"sync"
	"time"
)

// Handle is a pending task. Stop reports whether it prevented the call.
type Handle interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Handle
}

// Real schedules with time.AfterFunc. Callbacks run on their own goroutine.
func Real() Scheduler { return realScheduler{} }

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Handle {
	return time.AfterFunc(d, f)
}

// Dispatch wraps a Scheduler so callbacks are handed to post instead of being
// run directly. Hosts with a single event loop pass a post that enqueues the
// callback there, which keeps every state mutation on one goroutine.
func Dispatch(inner Scheduler, post func(func())) Scheduler {
	if inner == nil {
		inner = Real()
	}
	return dispatcher{inner: inner, post: post}
}

type dispatcher struct {
	inner Scheduler
	post  func(func())
}

func (d dispatcher) AfterFunc(delay time.Duration, f func()) Handle {
	return d.inner.AfterFunc(delay, func() { d.post(f) })
}

// Manual is a deterministic clock for tests. Nothing fires until Advance.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTask
}

type manualTask struct {
	m       *Manual
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// NewManual creates a Manual clock at time zero.
func NewManual() *Manual { return &Manual{} }

func (m *Manual) AfterFunc(d time.Duration, f func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{m: m, at: m.now + d, seq: m.seq, f: f}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d and runs every task that came due,
// in due order. Callbacks run on the calling goroutine.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	now := m.now
	var due, rest []*manualTask
	for _, t := range m.pending {
		switch {
		case t.stopped:
		case t.at <= now:
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	m.pending = rest
	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.fired = true
	}
	m.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// Pending returns the number of tasks that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}
