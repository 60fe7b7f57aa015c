// control/control.go
// Author: momentics <momentics@gmail.com>
//
// Read-only control surface for an installed fault-isolation handle:
// an immutable configuration snapshot plus probe-backed stats. Handler
// configuration cannot change at runtime, so unlike a hot-reloadable
// store this one is written once at install time.

package control

import (
	"sync"

	"github.com/momentics/faultstack/api"
)

// Controller implements api.Control for one installation.
type Controller struct {
	mu     sync.RWMutex
	config map[string]any
	probes *DebugProbes
}

var _ api.Control = (*Controller)(nil)

// NewController builds a controller with an empty config snapshot.
func NewController() *Controller {
	return &Controller{
		config: make(map[string]any),
		probes: NewDebugProbes(),
	}
}

// SetConfigSnapshot records the installed configuration. Called once
// at install time.
func (c *Controller) SetConfigSnapshot(cfg map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range cfg {
		c.config[k] = v
	}
}

// GetConfig returns a copy of the configuration snapshot.
func (c *Controller) GetConfig() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.config))
	for k, v := range c.config {
		out[k] = v
	}
	return out
}

// Stats evaluates every registered probe.
func (c *Controller) Stats() map[string]any {
	return c.probes.DumpState()
}

// RegisterDebugProbe adds a named stats source.
func (c *Controller) RegisterDebugProbe(name string, fn func() any) {
	c.probes.RegisterProbe(name, fn)
}

// Debug exposes the probe registry behind the api.Debug surface.
func (c *Controller) Debug() api.Debug { return c.probes }
