// Package arming implements two-step confirmation for destructive actions:
// the first activation arms, a second one within the window executes.
package arming

import (
	"sync"
	"time"

	"github.com/darksworm/backoffice/pkg/timer"
)

// DefaultDuration is how long an action stays armed.
const DefaultDuration = 3 * time.Second

// State of a Machine.
type State int

const (
	Idle State = iota
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

// Machine is the Idle/Armed state machine. Expiry and Cancel return it to
// Idle without running anything.
type Machine struct {
	sched    timer.Scheduler
	duration time.Duration
	onChange func(State)

	mu     sync.Mutex
	state  State
	handle timer.Handle
	gen    uint64
}

// New creates an idle Machine. A non-positive duration uses DefaultDuration.
func New(sched timer.Scheduler, duration time.Duration) *Machine {
	if sched == nil {
		sched = timer.Real()
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Machine{sched: sched, duration: duration}
}

// OnChange registers a callback for state transitions, used by hosts to redraw.
func (m *Machine) OnChange(f func(State)) {
	m.mu.Lock()
	m.onChange = f
	m.mu.Unlock()
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsArmed reports whether the next activation executes.
func (m *Machine) IsArmed() bool {
	return m.State() == Armed
}

// Duration returns the arm window.
func (m *Machine) Duration() time.Duration {
	return m.duration
}

// Activate arms the machine, or, when already armed, disarms it and runs
// action. Returns true if action ran.
func (m *Machine) Activate(action func()) bool {
	m.mu.Lock()
	if m.state == Armed {
		m.stopLocked()
		m.state = Idle
		notify := m.onChange
		m.mu.Unlock()
		if notify != nil {
			notify(Idle)
		}
		action()
		return true
	}

	m.state = Armed
	m.gen++
	gen := m.gen
	m.handle = m.sched.AfterFunc(m.duration, func() { m.expire(gen) })
	notify := m.onChange
	m.mu.Unlock()
	if notify != nil {
		notify(Armed)
	}
	return false
}

// Cancel returns to Idle and drops the pending expiry.
func (m *Machine) Cancel() {
	m.mu.Lock()
	if m.state == Idle && m.handle == nil {
		m.mu.Unlock()
		return
	}
	m.stopLocked()
	changed := m.state == Armed
	m.state = Idle
	notify := m.onChange
	m.mu.Unlock()
	if changed && notify != nil {
		notify(Idle)
	}
}

func (m *Machine) stopLocked() {
	if m.handle != nil {
		m.handle.Stop()
		m.handle = nil
	}
	// any expiry already in flight belongs to an older generation
	m.gen++
}

func (m *Machine) expire(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state != Armed {
		m.mu.Unlock()
		return
	}
	m.state = Idle
	m.handle = nil
	notify := m.onChange
	m.mu.Unlock()
	if notify != nil {
		notify(Idle)
	}
}
