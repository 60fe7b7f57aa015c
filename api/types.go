// File: api/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Core value types: signal kinds, handler configuration, and the
// machine state exposed to the fault path.

package api

// Signal identifies a synchronous fault kind deliverable to the
// faulting thread. Values mirror the platform signal numbers so the
// linux binding can pass them through unchanged.
type Signal int

const (
	SigSegv Signal = 11 // invalid memory access
	SigBus  Signal = 7  // unaligned or nonexistent physical address
	SigFPE  Signal = 8  // integer/floating arithmetic fault
	SigIll  Signal = 4  // illegal instruction
)

// String returns the conventional signal name.
func (s Signal) String() string {
	switch s {
	case SigSegv:
		return "SIGSEGV"
	case SigBus:
		return "SIGBUS"
	case SigFPE:
		return "SIGFPE"
	case SigIll:
		return "SIGILL"
	default:
		return "SIG?"
	}
}

// HandlerConfig is the delivery policy for a registered fault callback.
// Immutable once registered; shared read-only by every thread.
// RunOnAltStack takes effect only on threads that installed a
// diagnostic region beforehand.
type HandlerConfig struct {
	Signals           []Signal
	RunOnAltStack     bool
	DeferSameSignal   bool // true: same signal blocked during one invocation, escalates to default action if raised
	MaxRecursionDepth int  // 0 means unbounded; honored only when DeferSameSignal is false
}

// DefaultHandlerConfig returns the deferred, alt-stack delivery policy.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		Signals:         []Signal{SigSegv, SigBus},
		RunOnAltStack:   true,
		DeferSameSignal: true,
	}
}

// FaultEvent is the per-delivery record created by the platform.
// Read-only to the capture path; never persisted by the fault path.
type FaultEvent struct {
	Signal       Signal
	FaultingAddr uintptr // address whose access faulted; 0 when unknown
	Depth        int32   // 1 on the first delivery of a cascade
	StackPointer uintptr // machine stack pointer saved at delivery
}

// FaultContext is the read-only view handed to DiagnosticCapture.
// StackBase/StackSize describe the alternate stack when delivery
// happened there, and are zero otherwise.
type FaultContext struct {
	Event     FaultEvent
	StackBase uintptr
	StackSize uintptr
}

// OnAltStack reports whether delivery landed on a diagnostic region.
func (fc *FaultContext) OnAltStack() bool {
	return fc.StackBase != 0 &&
		fc.Event.StackPointer >= fc.StackBase &&
		fc.Event.StackPointer < fc.StackBase+fc.StackSize
}

// RemainingBudget returns the bytes left between the saved stack
// pointer and the region base. Stacks are modeled as growing toward
// lower addresses; a pointer at or below base yields zero.
func (fc *FaultContext) RemainingBudget() uintptr {
	if !fc.OnAltStack() {
		return 0
	}
	return fc.Event.StackPointer - fc.StackBase
}

// FaultCallback is the process-wide fault entry point invoked by the
// platform on every delivery. It runs under signal-handler constraints:
// no heap allocation, no locks, no non-reentrant routines.
type FaultCallback func(*FaultContext)

// Action is the terminal decision for one handler invocation.
type Action int

const (
	// TerminateImmediately ends the process through the non-returning
	// primitive that bypasses cleanup paths.
	TerminateImmediately Action = iota
	// ReRaiseFault provokes another fault of the same kind. Probing
	// aid only; its outcome is platform stack-accounting dependent.
	ReRaiseFault
)

func (a Action) String() string {
	if a == ReRaiseFault {
		return "re-raise"
	}
	return "terminate"
}
