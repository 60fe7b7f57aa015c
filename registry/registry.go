// File: registry/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FaultHandlerRegistry: process-wide registration of the fault
// callback and its delivery policy. One callback per signal kind;
// registering again replaces, there is no chaining. Mutation is
// serialized here, but that only covers the registry's own state:
// (de)registering while another thread may fault is a documented
// usage error, so callers confine these calls to single-threaded
// startup and shutdown phases.

package registry

import (
	"sync"

	"github.com/momentics/faultstack/api"
)

// Registry owns the process-wide handler registration.
type Registry struct {
	mu         sync.Mutex
	plat       api.Platform
	cfg        api.HandlerConfig
	cb         api.FaultCallback
	registered []api.Signal
}

// New builds an empty registry over the platform binding.
func New(plat api.Platform) *Registry {
	return &Registry{plat: plat}
}

// flagsFor maps the immutable config onto platform delivery flags.
func flagsFor(cfg api.HandlerConfig) api.DeliveryFlags {
	var flags api.DeliveryFlags
	if cfg.RunOnAltStack {
		flags |= api.DeliverOnAltStack
	}
	if !cfg.DeferSameSignal {
		flags |= api.NoDeferSameSignal
	}
	return flags
}

// Register installs cb for every signal kind in cfg.Signals,
// replacing any previous registration. RunOnAltStack is honored only
// on threads that installed a diagnostic region beforehand; elsewhere
// delivery lands on the ordinary, possibly exhausted, stack.
func (r *Registry) Register(cfg api.HandlerConfig, cb api.FaultCallback) error {
	if cb == nil {
		return api.NewError(api.ErrCodeMisuse, "nil fault callback")
	}
	if len(cfg.Signals) == 0 {
		return api.NewError(api.ErrCodeMisuse, "empty signal set")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prevCfg, prevCB, prevSigs := r.cfg, r.cb, r.registered

	// A failed replacement must not strip a working handler: back out
	// every new installation and reinstate the previous one.
	installed := make([]api.Signal, 0, len(cfg.Signals))
	rollback := func() {
		for _, sig := range installed {
			_ = r.plat.RegisterFaultCallback(sig, 0, nil)
		}
		if prevCB == nil {
			return
		}
		pf := flagsFor(prevCfg)
		for _, sig := range prevSigs {
			_ = r.plat.RegisterFaultCallback(sig, pf, prevCB)
		}
	}

	flags := flagsFor(cfg)
	for _, sig := range cfg.Signals {
		if err := r.plat.RegisterFaultCallback(sig, flags, cb); err != nil {
			rollback()
			return err
		}
		installed = append(installed, sig)
	}

	// Drop signals the replaced registration covered but this one
	// does not.
	keep := make(map[api.Signal]bool, len(cfg.Signals))
	for _, sig := range cfg.Signals {
		keep[sig] = true
	}
	for _, sig := range prevSigs {
		if !keep[sig] {
			if err := r.plat.RegisterFaultCallback(sig, 0, nil); err != nil {
				rollback()
				return err
			}
		}
	}

	r.cfg = cfg
	r.cb = cb
	r.registered = installed
	return nil
}

// Deregister restores default disposition for every registered signal.
// Must precede the release of any diagnostic region still installed.
func (r *Registry) Deregister() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.registered) == 0 {
		return api.NewError(api.ErrCodeMisuse, "no fault handler registered")
	}
	for _, sig := range r.registered {
		if err := r.plat.RegisterFaultCallback(sig, 0, nil); err != nil {
			return err
		}
	}
	r.registered = nil
	r.cfg = api.HandlerConfig{}
	r.cb = nil
	return nil
}

// Active reports whether a callback is currently registered.
func (r *Registry) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registered) > 0
}

// Config returns the policy of the live registration.
func (r *Registry) Config() api.HandlerConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Signals returns the currently registered signal kinds.
func (r *Registry) Signals() []api.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]api.Signal, len(r.registered))
	copy(out, r.registered)
	return out
}
