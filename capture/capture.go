// File: capture/capture.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// DiagnosticCapture: the routine the platform invokes on every fault
// delivery. It runs under signal-handler constraints (no heap
// allocation, no locks, no buffered I/O) and holds no mutable state
// across invocations, so it tolerates being re-entered mid-flight on
// a shrinking or static alternate stack. Whatever happens, control
// ends at TerminationPolicy; this routine never returns to the
// faulting code.

package capture

import (
	"github.com/momentics/faultstack/api"
	"github.com/momentics/faultstack/internal/sigsafe"
	"github.com/momentics/faultstack/policy"
)

// lineCap bounds one diagnostic line. Sized for the longest field mix;
// anything beyond is truncated rather than grown.
const lineCap = 192

// Capture is immutable after construction. Every field read on the
// fault path is a plain load of configuration fixed at install time.
type Capture struct {
	pol      policy.Policy
	plat     api.Platform
	status   int
	fd       int
	maxDepth int32 // 0 means unbounded; forces termination past it
}

// New builds a capture routine writing to the given descriptor and
// terminating with the given status. maxDepth bounds nodefer cascades
// independently of platform stack accounting.
func New(pol policy.Policy, plat api.Platform, status, fd int, maxDepth int32) *Capture {
	if fd <= 0 {
		fd = sigsafe.Stderr
	}
	return &Capture{pol: pol, plat: plat, status: status, fd: fd, maxDepth: maxDepth}
}

// OnFault emits one bounded diagnostic line and hands control to the
// termination policy. Order matters: budget first, then the line, then
// the terminal action. If anything in between goes wrong the line is
// simply shorter, never retried.
func (c *Capture) OnFault(fc *api.FaultContext) {
	var buf [lineCap]byte
	n := sigsafe.AppendString(buf[:], 0, "faultstack: ")
	n = sigsafe.AppendString(buf[:], n, fc.Event.Signal.String())
	n = sigsafe.AppendString(buf[:], n, " addr ")
	n = sigsafe.AppendHex(buf[:], n, uint64(fc.Event.FaultingAddr))
	n = sigsafe.AppendString(buf[:], n, " depth ")
	n = sigsafe.AppendUint(buf[:], n, uint64(fc.Event.Depth))
	n = sigsafe.AppendString(buf[:], n, " base ")
	n = sigsafe.AppendHex(buf[:], n, uint64(fc.StackBase))
	n = sigsafe.AppendString(buf[:], n, " budget ")
	n = sigsafe.AppendUint(buf[:], n, uint64(fc.RemainingBudget()))
	n = sigsafe.AppendString(buf[:], n, "\n")
	sigsafe.Write(c.fd, buf[:], n)

	action := c.pol.Decide(fc.Event)
	if c.maxDepth > 0 && fc.Event.Depth >= c.maxDepth {
		action = api.TerminateImmediately
	}
	if action == api.ReRaiseFault {
		c.plat.RaiseFault(fc.Event.Signal)
		// A deferred platform may swallow the re-raise until the
		// handler returns; returning is not a legal transition, so
		// fall through to termination.
	}
	c.plat.Terminate(c.status)
}
