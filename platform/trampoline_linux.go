//go:build linux
// +build linux

// File: platform/trampoline_linux.go
// Author: momentics <momentics@gmail.com>
//
// C-to-Go entry for fault deliveries. Split from platform_linux.go
// because files carrying //export may not define C symbols in their
// preamble.

package platform

import "C"

import (
	"github.com/momentics/faultstack/api"
)

// goFaultEntry runs inside the signal handler frame. It must obey the
// same constraints as the capture path: the context is built in this
// frame and handed down by pointer, no map lookups, no locks.
//
//export goFaultEntry
func goFaultEntry(sig C.int, addr, sp, base, size C.ulong) {
	depth := faultDepth.Add(1)
	cb := loadCallback(api.Signal(sig))
	if cb == nil {
		return
	}
	fc := api.FaultContext{
		Event: api.FaultEvent{
			Signal:       api.Signal(sig),
			FaultingAddr: uintptr(addr),
			Depth:        depth,
			StackPointer: uintptr(sp),
		},
		StackBase: uintptr(base),
		StackSize: uintptr(size),
	}
	cb(&fc)
}
