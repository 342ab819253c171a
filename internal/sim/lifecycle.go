// SPDX-License-Identifier: Unlicense OR MIT

package sim

import "sync"

// State is one node of the simulation's lifecycle (spec.md §4.7).
type State int

const (
	Uninitialized State = iota
	DeviceReady
	BuffersReady
	Running
	Paused
	TornDown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case DeviceReady:
		return "device-ready"
	case BuffersReady:
		return "buffers-ready"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case TornDown:
		return "torn-down"
	default:
		return "unknown"
	}
}

// legalTransitions enumerates the edges the lifecycle allows; any
// transition not listed here is rejected with a configuration error
// rather than silently coerced.
var legalTransitions = map[State][]State{
	Uninitialized: {DeviceReady},
	DeviceReady:   {BuffersReady, Uninitialized},
	BuffersReady:  {Running, Uninitialized},
	Running:       {Paused, BuffersReady, Uninitialized, TornDown},
	Paused:        {Running, BuffersReady, Uninitialized, TornDown},
	TornDown:      {},
}

// Lifecycle is the simulation's state machine: device loss forces a
// transition straight to Uninitialized from any state, and
// reallocating buffers (a population or canvas change past the
// grid's current sizing) requires dropping back to BuffersReady
// before Running resumes.
type Lifecycle struct {
	mu    sync.Mutex
	state State
}

// NewLifecycle returns a lifecycle starting at Uninitialized.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: Uninitialized}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Transition moves to next, or returns a configuration error if the
// edge isn't legal.
func (l *Lifecycle) Transition(next State) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, allowed := range legalTransitions[l.state] {
		if allowed == next {
			l.state = next
			return nil
		}
	}
	return newError(KindConfiguration, "Lifecycle.Transition", &illegalTransitionError{from: l.state, to: next})
}

// DeviceLost forces the lifecycle to Uninitialized from any state, the
// one transition legal everywhere — spec.md §7's environmental
// recovery path.
func (l *Lifecycle) DeviceLost() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = Uninitialized
}

type illegalTransitionError struct {
	from, to State
}

func (e *illegalTransitionError) Error() string {
	return e.from.String() + " -> " + e.to.String() + " is not a legal transition"
}
