// File: fake/fakeplatform.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Deterministic in-process api.Platform for tests and the cascade
// probe. Faults are injected synchronously on the calling goroutine;
// alternate-stack accounting is simulated under either of the two
// platform contracts the design has to surface: shrinking budget
// (each re-entry lands below the previous frame) or static budget
// (every re-entry restarts at the top of the region). Termination
// unwinds via a private panic sentinel so Terminate keeps its
// non-returning contract from the callback's point of view.

package fake

import (
	"sync"

	"github.com/momentics/faultstack/api"
	"github.com/momentics/faultstack/cascade"
)

// BudgetModel selects the simulated stack-accounting contract.
type BudgetModel int

const (
	// BudgetShrinking mirrors platforms where nested deliveries
	// consume additional alternate-stack space until exhaustion.
	BudgetShrinking BudgetModel = iota
	// BudgetStatic mirrors platforms where every re-entry restarts at
	// the same position and the cascade never exhausts on its own.
	BudgetStatic
)

// arenaBase is where simulated region addresses start. Fixed so a
// given install sequence always yields the same bases.
const arenaBase uintptr = 0x7f00_0000_0000

type terminationSentinel struct{ status int }

type slot struct {
	flags api.DeliveryFlags
	cb    api.FaultCallback
}

// Platform is a simulated host. Zero value is not usable; call New.
type Platform struct {
	mu sync.Mutex

	// Model and FrameCost shape cascade accounting. Mutate only
	// between injections.
	Model     BudgetModel
	FrameCost uintptr

	// NormalStackExhausted simulates a thread whose ordinary stack is
	// already unusable: deliveries off the alternate stack die with
	// the default action before the handler can run.
	NormalStackExhausted bool

	// RegisterErr fails callback installation for the listed signals.
	// Restoring default disposition is never failed, so rollback
	// paths stay exercisable. Mutate only between injections.
	RegisterErr map[api.Signal]error

	minRegion uintptr
	nextBase  uintptr
	regions   map[uintptr]uintptr
	freed     map[uintptr][]uintptr

	altBase uintptr
	altSize uintptr

	slots   map[api.Signal]slot
	blocked map[api.Signal]bool

	// machine decides entry versus default action for every delivery
	// of the in-flight cascade. Rebuilt when a fresh cascade starts.
	machine *cascade.Machine

	handling bool
	depth    int32
	sp       uintptr

	terminated   bool
	exitStatus   int
	defaultFatal bool
	returned     bool
}

// New builds an armed simulator with a 512-byte frame cost and a
// 2 KiB minimum region, roughly MINSIGSTKSZ-shaped.
func New() *Platform {
	return &Platform{
		Model:     BudgetShrinking,
		FrameCost: 512,
		minRegion: 2048,
		nextBase:  arenaBase,
		regions:   make(map[uintptr]uintptr),
		freed:     make(map[uintptr][]uintptr),
		slots:     make(map[api.Signal]slot),
		blocked:   make(map[api.Signal]bool),
	}
}

func (p *Platform) AllocateRegion(size uintptr) (uintptr, uintptr, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if free := p.freed[size]; len(free) > 0 {
		base := free[len(free)-1]
		p.freed[size] = free[:len(free)-1]
		p.regions[base] = size
		return base, size, nil
	}
	base := p.nextBase
	p.nextBase += size + 4096
	p.regions[base] = size
	return base, size, nil
}

func (p *Platform) ReleaseRegion(base, size uintptr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.regions[base]; !ok {
		return api.ErrInvalidArgument
	}
	delete(p.regions, base)
	p.freed[size] = append(p.freed[size], base)
	return nil
}

func (p *Platform) SetAltStack(base, size uintptr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if base != 0 && size < p.minRegion {
		return api.NewError(api.ErrCodeRegistration, "region below simulated minimum").
			WithContext("size", uint64(size))
	}
	p.altBase, p.altSize = base, size
	return nil
}

func (p *Platform) MinRegionSize() uintptr { return p.minRegion }

func (p *Platform) RegisterFaultCallback(sig api.Signal, flags api.DeliveryFlags, cb api.FaultCallback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cb == nil {
		delete(p.slots, sig)
		return nil
	}
	if err := p.RegisterErr[sig]; err != nil {
		return err
	}
	p.slots[sig] = slot{flags: flags, cb: cb}
	return nil
}

func (p *Platform) UnblockSignal(sig api.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocked[sig] = false
	return nil
}

// RaiseFault provokes a nested delivery when called from inside a
// callback, or starts a cascade when called outside one.
func (p *Platform) RaiseFault(sig api.Signal) {
	p.deliver(sig, 0)
}

// Terminate records the exit and unwinds the in-flight cascade.
func (p *Platform) Terminate(status int) {
	p.mu.Lock()
	p.terminated = true
	p.exitStatus = status
	if p.machine != nil {
		p.machine.Terminate()
	}
	p.mu.Unlock()
	panic(terminationSentinel{status: status})
}

// Inject simulates one hardware fault at addr and absorbs the
// simulated process exit. It returns true when the process would have
// terminated during the cascade.
func (p *Platform) Inject(sig api.Signal, addr uintptr) (terminated bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(terminationSentinel); !ok {
				panic(r)
			}
			terminated = true
		}
	}()
	p.deliver(sig, addr)
	return p.Terminated()
}

// deliver runs one delivery, possibly nested under another.
func (p *Platform) deliver(sig api.Signal, addr uintptr) {
	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		panic(terminationSentinel{status: p.exitStatus})
	}

	s, registered := p.slots[sig]
	if !registered {
		p.failDefault(sig)
	}

	nested := p.handling
	if !nested {
		// A fresh cascade runs under the initiating registration's
		// re-entry policy. The depth bound is not modeled at this
		// level; the capture layer enforces it from inside the
		// callback, as the real platform does.
		p.machine = cascade.NewMachine(api.HandlerConfig{
			Signals:         []api.Signal{sig},
			DeferSameSignal: s.flags&api.NoDeferSameSignal == 0,
		})
	}

	onAlt := s.flags&api.DeliverOnAltStack != 0 && p.altSize != 0
	if !onAlt && p.NormalStackExhausted {
		// Nowhere to run the handler.
		p.failDefault(sig)
	}

	// The machine is the transition authority; the blocked map mirrors
	// the per-signal mask on top of it. A delivery that either is
	// masked or is denied re-entry takes the default action with no
	// second handler entry.
	depth, entered := p.machine.Fault()
	if !entered || (nested && p.blocked[sig]) {
		p.failDefault(sig)
	}
	p.depth = depth
	if !nested {
		p.handling = true
		if s.flags&api.NoDeferSameSignal == 0 {
			p.blocked[sig] = true
		}
	}

	var base, size, sp uintptr
	if onAlt {
		base, size = p.altBase, p.altSize
		top := base + size
		switch {
		case !nested || p.Model == BudgetStatic:
			sp = top - p.FrameCost
		default:
			sp = p.sp - p.FrameCost
		}
		if sp <= base {
			// Budget exhausted: the platform converts this into
			// default fatal behavior, not another handler entry.
			p.machine.ExhaustBudget()
			p.failDefault(sig)
		}
		p.sp = sp
	} else {
		// Ordinary stack: position is arbitrary but off-region.
		sp = arenaBase - 1<<20 - uintptr(p.depth)*p.FrameCost
	}

	fc := api.FaultContext{
		Event: api.FaultEvent{
			Signal:       sig,
			FaultingAddr: addr,
			Depth:        p.depth,
			StackPointer: sp,
		},
		StackBase: base,
		StackSize: size,
	}
	cb := s.cb
	p.mu.Unlock()

	cb(&fc)

	// A callback that returns instead of terminating is outside the
	// model; remember it so tests can flag the misuse.
	p.mu.Lock()
	p.returned = true
	p.blocked[sig] = false
	p.mu.Unlock()
}

// failDefault ends the simulated process with the conventional
// signal-death status. Caller holds p.mu.
func (p *Platform) failDefault(sig api.Signal) {
	p.terminated = true
	p.defaultFatal = true
	p.exitStatus = 128 + int(sig)
	if p.machine != nil {
		p.machine.Terminate()
	}
	p.mu.Unlock()
	panic(terminationSentinel{status: p.exitStatus})
}

// Terminated reports whether the simulated process has exited.
func (p *Platform) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

// ExitStatus returns the recorded exit status.
func (p *Platform) ExitStatus() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitStatus
}

// DiedByDefaultAction reports whether the exit came from default
// signal disposition rather than TerminationPolicy.
func (p *Platform) DiedByDefaultAction() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.defaultFatal
}

// CascadeState reports the model position of the current or finished
// cascade. Armed before the first injection.
func (p *Platform) CascadeState() cascade.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.machine == nil {
		return cascade.Armed
	}
	return p.machine.State()
}

// Depth returns the deepest nesting reached.
func (p *Platform) Depth() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.depth
}

// CallbackReturned reports whether a callback returned without
// terminating, which the model disallows.
func (p *Platform) CallbackReturned() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.returned
}

// AltStackInstalled reports the simulated sigaltstack registration.
func (p *Platform) AltStackInstalled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.altSize != 0
}
