// File: policy/policy.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TerminationPolicy: the per-invocation terminal decision. The only
// legal outcomes of a handler invocation are immediate termination or
// a deliberate re-raise; there is no resume.

package policy

import "github.com/momentics/faultstack/api"

// Policy decides the terminal action for one fault delivery. Decide
// runs on the fault path and must obey its constraints: pure
// computation over the event, nothing else.
type Policy interface {
	Decide(ev api.FaultEvent) api.Action
}

// Terminate always chooses immediate termination. This is the
// reference policy; production installs should not use anything else.
type Terminate struct{}

// Decide implements Policy.
func (Terminate) Decide(api.FaultEvent) api.Action {
	return api.TerminateImmediately
}

// ReRaise provokes another fault of the same kind until Limit is
// reached, then terminates. It exists to probe platform cascade
// behavior (whether re-entries shrink the alternate-stack budget or
// restart at the top) and is not a recovery mechanism. Limit zero
// re-raises unboundedly, leaving termination to stack exhaustion or
// an external bound.
type ReRaise struct {
	Limit int32
}

// Decide implements Policy.
func (r ReRaise) Decide(ev api.FaultEvent) api.Action {
	if r.Limit > 0 && ev.Depth >= r.Limit {
		return api.TerminateImmediately
	}
	return api.ReRaiseFault
}
