// File: fake/fakeplatform_test.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"testing"

	"github.com/momentics/faultstack/api"
	"github.com/momentics/faultstack/cascade"
)

func TestUnregisteredSignalDiesByDefault(t *testing.T) {
	p := New()
	if !p.Inject(api.SigSegv, 0x1) {
		t.Fatal("injection did not terminate")
	}
	if !p.DiedByDefaultAction() {
		t.Fatal("expected default action death")
	}
	if p.ExitStatus() != 128+int(api.SigSegv) {
		t.Fatalf("status %d", p.ExitStatus())
	}
}

func TestCallbackReturnIsFlagged(t *testing.T) {
	p := New()
	err := p.RegisterFaultCallback(api.SigSegv, api.DeliverOnAltStack, func(*api.FaultContext) {
		// Returning without terminating is outside the model.
	})
	if err != nil {
		t.Fatal(err)
	}
	p.Inject(api.SigSegv, 0x1)
	if !p.CallbackReturned() {
		t.Fatal("returning callback not flagged")
	}
}

func TestCascadeModelTracksDelivery(t *testing.T) {
	p := New()
	if p.CascadeState() != cascade.Armed {
		t.Fatalf("state before injection: %v", p.CascadeState())
	}

	var during cascade.State
	p.RegisterFaultCallback(api.SigSegv, api.DeliverOnAltStack, func(*api.FaultContext) {
		during = p.CascadeState()
		p.Terminate(7)
	})
	if !p.Inject(api.SigSegv, 0x5) {
		t.Fatal("no termination")
	}
	if during != cascade.Handling {
		t.Fatalf("state inside callback: %v", during)
	}
	if p.CascadeState() != cascade.Terminated {
		t.Fatalf("state after termination: %v", p.CascadeState())
	}
}

func TestDeferredReRaiseEndsCascadeModel(t *testing.T) {
	p := New()
	base, size, _ := p.AllocateRegion(8192)
	if err := p.SetAltStack(base, size); err != nil {
		t.Fatal(err)
	}
	// Deferred delivery: a self-fault inside the callback is masked
	// and must escalate to the default action with no second entry.
	entries := 0
	p.RegisterFaultCallback(api.SigSegv, api.DeliverOnAltStack, func(*api.FaultContext) {
		entries++
		p.RaiseFault(api.SigSegv)
	})
	if !p.Inject(api.SigSegv, 0x9) {
		t.Fatal("no termination")
	}
	if entries != 1 {
		t.Fatalf("handler entered %d times", entries)
	}
	if !p.DiedByDefaultAction() {
		t.Fatal("expected default action death")
	}
	if p.CascadeState() != cascade.Terminated {
		t.Fatalf("state after cascade: %v", p.CascadeState())
	}
}

func TestRegionReuseIsDeterministic(t *testing.T) {
	p := New()
	b1, _, err := p.AllocateRegion(4096)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ReleaseRegion(b1, 4096); err != nil {
		t.Fatal(err)
	}
	b2, _, _ := p.AllocateRegion(4096)
	if b1 != b2 {
		t.Fatalf("bases differ: %#x vs %#x", b1, b2)
	}
}

func TestDeliveryOnAltStackReportsBounds(t *testing.T) {
	p := New()
	base, size, err := p.AllocateRegion(8192)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetAltStack(base, size); err != nil {
		t.Fatal(err)
	}
	var got api.FaultContext
	p.RegisterFaultCallback(api.SigBus, api.DeliverOnAltStack, func(fc *api.FaultContext) {
		got = *fc
		p.Terminate(9)
	})
	if !p.Inject(api.SigBus, 0x77) {
		t.Fatal("no termination")
	}
	if got.StackBase != base || got.StackSize != size {
		t.Fatalf("bounds %#x/%d, want %#x/%d", got.StackBase, got.StackSize, base, size)
	}
	if !got.OnAltStack() {
		t.Fatal("delivery not recognized as on-stack")
	}
	if got.Event.FaultingAddr != 0x77 {
		t.Fatalf("addr %#x", got.Event.FaultingAddr)
	}
}
