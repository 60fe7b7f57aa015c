// File: policy/policy_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package policy

import (
	"testing"

	"github.com/momentics/faultstack/api"
)

func TestTerminateAlwaysTerminates(t *testing.T) {
	p := Terminate{}
	for depth := int32(1); depth <= 4; depth++ {
		ev := api.FaultEvent{Signal: api.SigSegv, Depth: depth}
		if got := p.Decide(ev); got != api.TerminateImmediately {
			t.Fatalf("depth %d: action %v", depth, got)
		}
	}
}

func TestReRaiseUntilLimit(t *testing.T) {
	p := ReRaise{Limit: 3}
	if got := p.Decide(api.FaultEvent{Depth: 1}); got != api.ReRaiseFault {
		t.Fatalf("depth 1: %v", got)
	}
	if got := p.Decide(api.FaultEvent{Depth: 2}); got != api.ReRaiseFault {
		t.Fatalf("depth 2: %v", got)
	}
	if got := p.Decide(api.FaultEvent{Depth: 3}); got != api.TerminateImmediately {
		t.Fatalf("depth 3: %v", got)
	}
}

func TestReRaiseUnbounded(t *testing.T) {
	p := ReRaise{}
	if got := p.Decide(api.FaultEvent{Depth: 100}); got != api.ReRaiseFault {
		t.Fatalf("unbounded re-raise stopped at depth 100: %v", got)
	}
}
