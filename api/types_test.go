// File: api/types_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"errors"
	"testing"
)

func TestRemainingBudget(t *testing.T) {
	fc := FaultContext{
		Event:     FaultEvent{StackPointer: 0x2400},
		StackBase: 0x2000,
		StackSize: 0x1000,
	}
	if got := fc.RemainingBudget(); got != 0x400 {
		t.Fatalf("budget %#x, want 0x400", got)
	}
}

func TestRemainingBudgetOffStack(t *testing.T) {
	fc := FaultContext{
		Event:     FaultEvent{StackPointer: 0x9000},
		StackBase: 0x2000,
		StackSize: 0x1000,
	}
	if fc.OnAltStack() {
		t.Fatal("pointer above region reported on-stack")
	}
	if got := fc.RemainingBudget(); got != 0 {
		t.Fatalf("off-stack budget %d, want 0", got)
	}
}

func TestRemainingBudgetNoRegion(t *testing.T) {
	fc := FaultContext{Event: FaultEvent{StackPointer: 0x9000}}
	if fc.OnAltStack() || fc.RemainingBudget() != 0 {
		t.Fatal("zero region must report off-stack, zero budget")
	}
}

func TestSignalString(t *testing.T) {
	cases := map[Signal]string{
		SigSegv:     "SIGSEGV",
		SigBus:      "SIGBUS",
		SigFPE:      "SIGFPE",
		SigIll:      "SIGILL",
		Signal(250): "SIG?",
	}
	for sig, want := range cases {
		if got := sig.String(); got != want {
			t.Errorf("Signal(%d).String() = %q, want %q", sig, got, want)
		}
	}
}

func TestStructuredErrorUnwrap(t *testing.T) {
	err := NewError(ErrCodeAllocation, "mmap failed").WithContext("size", 16384)
	if !errors.Is(err, ErrRegionExhausted) {
		t.Fatal("allocation error does not unwrap to ErrRegionExhausted")
	}
	if msg := err.Error(); msg == "mmap failed" {
		t.Fatal("context dropped from message")
	}
}

func TestActionString(t *testing.T) {
	if TerminateImmediately.String() != "terminate" || ReRaiseFault.String() != "re-raise" {
		t.Fatal("unexpected action names")
	}
}
