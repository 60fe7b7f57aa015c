// File: cascade/machine.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fault-cascade state machine. Legal transitions:
//
//	Armed --fault--> Handling(1)
//	Handling(k) --fault, reentry allowed, under depth bound--> Handling(k+1)
//	Handling(k) --fault, reentry denied or bound reached--> Terminated (default action)
//	Handling(k) --terminate--> Terminated
//
// There is no transition out of Handling back to Armed: resuming after
// a fault is not part of the model. Faults are delivered synchronously
// on one thread, so the machine needs no internal locking; callers that
// share one across threads must serialize externally.

package cascade

import "github.com/momentics/faultstack/api"

// State is the handler life-cycle position.
type State int

const (
	// Armed means the handler is registered and no fault is in flight.
	Armed State = iota
	// Handling means at least one fault delivery is on the stack.
	Handling
	// Terminated is absorbing: the process outcome is decided.
	Terminated
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Handling:
		return "handling"
	default:
		return "terminated"
	}
}

// Machine tracks one process-wide cascade.
type Machine struct {
	allowReentry bool
	maxDepth     int32 // 0 means unbounded
	state        State
	depth        int32
}

// NewMachine builds an armed machine from the registered policy.
func NewMachine(cfg api.HandlerConfig) *Machine {
	return &Machine{
		allowReentry: !cfg.DeferSameSignal,
		maxDepth:     int32(cfg.MaxRecursionDepth),
		state:        Armed,
	}
}

// Fault applies one delivery. It returns the depth the handler runs at
// and true when the handler is entered, or the current depth and false
// when the delivery escalates to default fatal behavior instead.
func (m *Machine) Fault() (int32, bool) {
	switch m.state {
	case Armed:
		m.state = Handling
		m.depth = 1
		return m.depth, true
	case Handling:
		if !m.allowReentry {
			// Deferred signal raised while blocked: default action.
			m.state = Terminated
			return m.depth, false
		}
		if m.maxDepth > 0 && m.depth >= m.maxDepth {
			m.state = Terminated
			return m.depth, false
		}
		m.depth++
		return m.depth, true
	default:
		return m.depth, false
	}
}

// Terminate records the policy's terminal decision.
func (m *Machine) Terminate() {
	m.state = Terminated
}

// ExhaustBudget records alternate-stack exhaustion, which the platform
// converts into default fatal behavior rather than another entry.
func (m *Machine) ExhaustBudget() {
	m.state = Terminated
}

// State returns the current position.
func (m *Machine) State() State { return m.state }

// Depth returns the nesting depth reached so far. It never decreases
// while the process lives.
func (m *Machine) Depth() int32 { return m.depth }
