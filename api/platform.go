// File: api/platform.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Host platform boundary. Concrete bindings live in the platform
// package (linux cgo) and in fake (deterministic in-process simulator
// used by the test suite and the cascade probe).

package api

// DeliveryFlags request OS-level delivery behavior for a registered
// fault callback.
type DeliveryFlags uint32

const (
	// DeliverOnAltStack asks the OS to run the callback on the
	// thread's registered alternate stack (SA_ONSTACK equivalent).
	DeliverOnAltStack DeliveryFlags = 1 << iota
	// NoDeferSameSignal keeps the triggering signal unblocked while
	// its callback runs (SA_NODEFER equivalent), enabling cascades.
	NoDeferSameSignal
)

// Platform is the minimal surface consumed from the host. Every method
// except Terminate and RaiseFault is restricted to setup/teardown time.
type Platform interface {
	// AllocateRegion obtains a page-aligned memory region of at least
	// size bytes suitable for use as an execution stack.
	AllocateRegion(size uintptr) (base uintptr, actual uintptr, err error)
	// ReleaseRegion returns a region obtained from AllocateRegion.
	ReleaseRegion(base, size uintptr) error

	// SetAltStack registers [base, base+size) as the calling thread's
	// alternate execution stack. A zero base disables it.
	SetAltStack(base, size uintptr) error
	// MinRegionSize is the smallest size SetAltStack accepts.
	MinRegionSize() uintptr

	// RegisterFaultCallback installs cb as the process-wide handler
	// for sig. A later registration replaces the former. A nil cb
	// restores default disposition.
	RegisterFaultCallback(sig Signal, flags DeliveryFlags, cb FaultCallback) error

	// UnblockSignal clears any pending block of sig on the calling
	// thread. Used only by manual nodefer emulation.
	UnblockSignal(sig Signal) error

	// RaiseFault synchronously provokes a fault of kind sig on the
	// calling thread. Probing aid for the re-raise policy.
	RaiseFault(sig Signal)

	// Terminate ends the process immediately with status, bypassing
	// cleanup and flush paths. It does not return.
	Terminate(status int)
}

// ThreadID returns a stable identifier for the calling OS thread, used
// to enforce exclusive region ownership.
type ThreadID func() int
