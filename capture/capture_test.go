// File: capture/capture_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package capture_test

import (
	"io"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/momentics/faultstack/api"
	"github.com/momentics/faultstack/capture"
	"github.com/momentics/faultstack/fake"
	"github.com/momentics/faultstack/policy"
	"github.com/momentics/faultstack/registry"
)

// diagLine is one parsed diagnostic record.
type diagLine struct {
	signal string
	addr   uint64
	depth  uint64
	base   uint64
	budget uint64
}

func parseLines(t *testing.T, raw string) []diagLine {
	t.Helper()
	var out []diagLine
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		f := strings.Fields(line)
		// faultstack: SIG addr 0x.. depth N base 0x.. budget M
		if len(f) != 10 || f[0] != "faultstack:" {
			t.Fatalf("malformed diagnostic line %q", line)
		}
		addr, _ := strconv.ParseUint(strings.TrimPrefix(f[3], "0x"), 16, 64)
		depth, _ := strconv.ParseUint(f[5], 10, 64)
		base, _ := strconv.ParseUint(strings.TrimPrefix(f[7], "0x"), 16, 64)
		budget, _ := strconv.ParseUint(f[9], 10, 64)
		out = append(out, diagLine{signal: f[1], addr: addr, depth: depth, base: base, budget: budget})
	}
	return out
}

// runCascade registers a capture over the fake platform, installs an
// alternate stack of the given size when asked, injects one SIGSEGV
// and returns the parsed diagnostics.
func runCascade(t *testing.T, plat *fake.Platform, pol policy.Policy, cfg api.HandlerConfig, stackSize uintptr, status int) []diagLine {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if stackSize > 0 {
		base, actual, err := plat.AllocateRegion(stackSize)
		if err != nil {
			t.Fatal(err)
		}
		if err := plat.SetAltStack(base, actual); err != nil {
			t.Fatal(err)
		}
	}

	c := capture.New(pol, plat, status, int(w.Fd()), int32(cfg.MaxRecursionDepth))
	reg := registry.New(plat)
	if err := reg.Register(cfg, c.OnFault); err != nil {
		t.Fatal(err)
	}

	if !plat.Inject(api.SigSegv, 0xdead) {
		t.Fatal("cascade did not terminate the simulated process")
	}
	w.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return parseLines(t, string(raw))
}

func TestSingleFaultEmitsOneLine(t *testing.T) {
	plat := fake.New()
	cfg := api.DefaultHandlerConfig()
	lines := runCascade(t, plat, policy.Terminate{}, cfg, 16*1024, 42)

	if len(lines) != 1 {
		t.Fatalf("emitted %d lines, want 1", len(lines))
	}
	if lines[0].signal != "SIGSEGV" {
		t.Errorf("signal %q", lines[0].signal)
	}
	if lines[0].addr != 0xdead {
		t.Errorf("addr %#x", lines[0].addr)
	}
	if lines[0].depth != 1 {
		t.Errorf("depth %d", lines[0].depth)
	}
	if plat.ExitStatus() != 42 {
		t.Errorf("exit status %d, want 42", plat.ExitStatus())
	}
	if plat.DiedByDefaultAction() {
		t.Error("termination should come from policy, not default action")
	}
}

func TestBudgetReflectsAltStackPosition(t *testing.T) {
	plat := fake.New()
	plat.FrameCost = 1024
	cfg := api.DefaultHandlerConfig()
	lines := runCascade(t, plat, policy.Terminate{}, cfg, 16*1024, 2)

	want := uint64(16*1024 - 1024)
	if lines[0].budget != want {
		t.Fatalf("budget %d, want %d", lines[0].budget, want)
	}
	if lines[0].base == 0 {
		t.Fatal("expected nonzero stack base on alt-stack delivery")
	}
}

func TestOffAltStackBudgetIsZero(t *testing.T) {
	plat := fake.New()
	cfg := api.DefaultHandlerConfig()
	cfg.RunOnAltStack = false
	lines := runCascade(t, plat, policy.Terminate{}, cfg, 0, 2)

	if len(lines) != 1 {
		t.Fatalf("emitted %d lines, want 1", len(lines))
	}
	if lines[0].base != 0 || lines[0].budget != 0 {
		t.Fatalf("off-stack delivery reported base %#x budget %d", lines[0].base, lines[0].budget)
	}
}

func TestDepthBoundForcesTermination(t *testing.T) {
	plat := fake.New()
	plat.Model = fake.BudgetStatic // would never exhaust on its own
	cfg := api.DefaultHandlerConfig()
	cfg.DeferSameSignal = false
	cfg.MaxRecursionDepth = 4
	lines := runCascade(t, plat, policy.ReRaise{}, cfg, 16*1024, 7)

	if len(lines) != 4 {
		t.Fatalf("emitted %d lines, want 4", len(lines))
	}
	if plat.DiedByDefaultAction() {
		t.Fatal("depth bound should terminate via policy")
	}
	if plat.ExitStatus() != 7 {
		t.Fatalf("exit status %d, want 7", plat.ExitStatus())
	}
}
