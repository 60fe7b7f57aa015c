// control/control_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/faultstack/api"
	"github.com/momentics/faultstack/control"
)

func TestConfigSnapshotIsCopied(t *testing.T) {
	c := control.NewController()
	c.SetConfigSnapshot(map[string]any{"stack_bytes": 4096})

	got := c.GetConfig()
	assert.Equal(t, 4096, got["stack_bytes"])

	// Mutating the returned map must not leak into the controller.
	got["stack_bytes"] = 0
	assert.Equal(t, 4096, c.GetConfig()["stack_bytes"])
}

func TestProbeReplacementAndNames(t *testing.T) {
	dp := control.NewDebugProbes()
	dp.RegisterProbe("b", func() any { return 1 })
	dp.RegisterProbe("a", func() any { return 2 })
	dp.RegisterProbe("b", func() any { return 3 })

	assert.Equal(t, []string{"a", "b"}, dp.Names())
	state := dp.DumpState()
	assert.Equal(t, 2, state["a"])
	assert.Equal(t, 3, state["b"])
}

func TestControllerSatisfiesDebugSurface(t *testing.T) {
	c := control.NewController()
	var dbg api.Debug = c.Debug()
	require.NotNil(t, dbg)

	dbg.RegisterProbe("fault.depth", func() any { return int32(0) })
	assert.Contains(t, c.Stats(), "fault.depth")
	assert.Contains(t, dbg.DumpState(), "fault.depth")
}
