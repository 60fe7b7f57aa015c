// File: facade/faultstack.go
// Unified facade layer for the faultstack library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This file defines Install and Handle, which aggregate the core
// components (region manager, handler registry, diagnostic capture,
// termination policy) behind a single surface. Install wires the
// components in the only safe order (region before handler) and
// Teardown unwinds them in reverse (handler before region). The handle
// also exposes a Control surface with the configuration snapshot and
// probe-backed stats.

package facade

import (
	"runtime"
	"sync"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"github.com/momentics/faultstack/api"
	"github.com/momentics/faultstack/capture"
	"github.com/momentics/faultstack/control"
	"github.com/momentics/faultstack/platform"
	"github.com/momentics/faultstack/policy"
	"github.com/momentics/faultstack/region"
	"github.com/momentics/faultstack/registry"
)

// Config holds parameters immutable per installation.
type Config struct {
	StackSizeBytes    int          // Diagnostic region size per thread
	Signals           []api.Signal // Fault kinds to isolate
	OnAltStack        bool         // Deliver on the diagnostic region
	AllowReentry      bool         // Keep the signal unblocked during handling
	MaxRecursionDepth int          // Cascade bound when reentry is allowed; 0 = unbounded
	ExitStatus        int          // Termination status, 1..255
	DiagnosticFD      int          // Destination descriptor; 0 = stderr

	// Policy overrides the terminal decision. Nil means always
	// terminate, which is the only policy recommended for production.
	Policy policy.Policy

	// Platform overrides the host binding. Nil selects the real one
	// for this OS; tests and the cascade probe pass a fake.
	Platform api.Platform
}

// DefaultConfig returns defaults matching the reference policy:
// deferred delivery on a 64 KiB alternate stack, immediate termination.
func DefaultConfig() *Config {
	return &Config{
		StackSizeBytes: 64 * 1024,
		Signals:        []api.Signal{api.SigSegv, api.SigBus},
		OnAltStack:     true,
		AllowReentry:   false,
		ExitStatus:     2,
	}
}

// Handle is one live installation.
type Handle struct {
	cfg     *Config
	plat    api.Platform
	regions *region.Manager
	reg     *registry.Registry
	ctrl    *control.Controller
	rgn     *region.Region

	mu       sync.Mutex
	active   bool
	unlockFn func()
}

// Install sets up fault isolation for the calling thread and registers
// the process-wide handler. When OnAltStack is set, the calling
// goroutine is locked to its OS thread for the lifetime of the handle
// so the installed region keeps serving the thread that owns it.
func Install(cfg *Config) (*Handle, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if _, err := safecast.Conv[uint8](cfg.ExitStatus); err != nil || cfg.ExitStatus == 0 {
		return nil, api.NewError(api.ErrCodeMisuse, "exit status must be in 1..255").
			WithContext("status", cfg.ExitStatus)
	}

	plat := cfg.Platform
	if plat == nil {
		var err error
		if plat, err = platform.Default(); err != nil {
			return nil, err
		}
	}

	pol := cfg.Policy
	if pol == nil {
		pol = policy.Terminate{}
	}

	h := &Handle{
		cfg:     cfg,
		plat:    plat,
		regions: region.NewManager(plat),
		reg:     registry.New(plat),
		ctrl:    control.NewController(),
	}
	h.regions.SetHandlerLiveCheck(h.reg.Active)

	if cfg.OnAltStack {
		runtime.LockOSThread()
		h.unlockFn = runtime.UnlockOSThread
		rgn, err := h.regions.InstallForCurrentThread(uintptr(cfg.StackSizeBytes))
		if err != nil {
			h.unlock()
			return nil, err
		}
		h.rgn = rgn
	}

	onFault := capture.New(pol, plat, cfg.ExitStatus, cfg.DiagnosticFD, int32(cfg.MaxRecursionDepth))
	hcfg := api.HandlerConfig{
		Signals:           cfg.Signals,
		RunOnAltStack:     cfg.OnAltStack,
		DeferSameSignal:   !cfg.AllowReentry,
		MaxRecursionDepth: cfg.MaxRecursionDepth,
	}
	if err := h.reg.Register(hcfg, onFault.OnFault); err != nil {
		if h.rgn != nil {
			_ = h.rgn.Release()
		}
		h.unlock()
		return nil, err
	}

	h.wireControl()
	h.active = true

	Logger().Info("fault isolation installed",
		zap.Int("stack_bytes", cfg.StackSizeBytes),
		zap.Bool("alt_stack", cfg.OnAltStack),
		zap.Bool("reentry", cfg.AllowReentry),
		zap.Int("exit_status", cfg.ExitStatus),
		zap.Int("signals", len(cfg.Signals)),
	)
	return h, nil
}

func (h *Handle) wireControl() {
	h.ctrl.SetConfigSnapshot(map[string]any{
		"stack_bytes": h.cfg.StackSizeBytes,
		"alt_stack":   h.cfg.OnAltStack,
		"reentry":     h.cfg.AllowReentry,
		"exit_status": h.cfg.ExitStatus,
	})
	h.ctrl.RegisterDebugProbe("fault.depth", func() any {
		return platform.Depth()
	})
	h.ctrl.RegisterDebugProbe("region.bytes", func() any {
		return uint64(h.regions.TotalBytes())
	})
	h.ctrl.RegisterDebugProbe("handler.signals", func() any {
		sigs := h.reg.Signals()
		out := make([]string, len(sigs))
		for i, s := range sigs {
			out[i] = s.String()
		}
		return out
	})
}

func (h *Handle) unlock() {
	if h.unlockFn != nil {
		h.unlockFn()
		h.unlockFn = nil
	}
}

// Teardown deregisters the handler and then releases the diagnostic
// region, the reverse of installation order. A second Teardown is a
// misuse error. After Teardown a fresh Install behaves exactly like
// the first one.
func (h *Handle) Teardown() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active {
		return api.NewError(api.ErrCodeMisuse, "handle already torn down")
	}
	if err := h.reg.Deregister(); err != nil {
		return err
	}
	if h.rgn != nil {
		if err := h.rgn.Release(); err != nil {
			return err
		}
		h.rgn = nil
	}
	h.unlock()
	h.active = false

	Logger().Info("fault isolation removed")
	return nil
}

// Control returns the introspection surface for this installation.
func (h *Handle) Control() api.Control { return h.ctrl }

// Debug returns the probe registry of this installation. Probes
// registered here show up in Control().Stats().
func (h *Handle) Debug() api.Debug { return h.ctrl.Debug() }

// RegionInfo returns the installed region's base and size, when one
// exists. The base stays stable for the thread's lifetime.
func (h *Handle) RegionInfo() (base, size uintptr, ok bool) {
	if h.rgn == nil {
		return 0, 0, false
	}
	return h.rgn.Base(), h.rgn.Size(), true
}

// Active reports whether the installation is live.
func (h *Handle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}
