// File: cmd/faultprobe/cascade.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cascade probing. In --simulate mode the cascade runs against the
// in-process fake platform under a chosen stack-accounting contract
// and the observed deliveries are journaled and written as a msgpack
// report. Without --simulate the real handler is installed with
// reentry enabled and a re-raising policy, and the process dies while
// printing per-entry diagnostics on stderr; compare those budgets by
// hand (or rerun with --simulate) to classify the platform.

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/momentics/faultstack/api"
	"github.com/momentics/faultstack/cascade"
	"github.com/momentics/faultstack/facade"
	"github.com/momentics/faultstack/fake"
	"github.com/momentics/faultstack/policy"
)

var cascadeSimulate string

var cascadeCmd = &cobra.Command{
	Use:   "cascade",
	Short: "Observe nodefer re-entrant cascade stack accounting",
	RunE:  runCascade,
}

func init() {
	cascadeCmd.Flags().StringVar(&cascadeSimulate, "simulate", "",
		"run against the fake platform: 'shrinking' or 'static'")
}

func runCascade(cmd *cobra.Command, args []string) error {
	pc, err := loadProbeConfig(flagConfig)
	if err != nil {
		return err
	}
	if cascadeSimulate != "" {
		return simulateCascade(pc, cascadeSimulate)
	}
	return realCascade(pc)
}

func realCascade(pc probeConfig) error {
	cfg := facade.DefaultConfig()
	cfg.StackSizeBytes = pc.StackKiB * 1024
	cfg.ExitStatus = pc.ExitStatus
	cfg.AllowReentry = true
	cfg.MaxRecursionDepth = pc.MaxDepth
	cfg.Policy = policy.ReRaise{}
	cfg.Signals = []api.Signal{api.SigSegv}

	if _, err := facade.Install(cfg); err != nil {
		return fmt.Errorf("install fault isolation: %w", err)
	}
	fmt.Printf("starting re-raising cascade, bounded at depth %d\n", pc.MaxDepth)
	derefNil()
	return fmt.Errorf("unreachable: cascade returned")
}

func simulateCascade(pc probeConfig, model string) error {
	plat := fake.New()
	plat.FrameCost = uintptr(pc.FrameCost)
	switch model {
	case "shrinking":
		plat.Model = fake.BudgetShrinking
	case "static":
		plat.Model = fake.BudgetStatic
	default:
		return fmt.Errorf("unknown budget model %q", model)
	}

	base, size, err := plat.AllocateRegion(uintptr(pc.StackKiB * 1024))
	if err != nil {
		return err
	}
	if err := plat.SetAltStack(base, size); err != nil {
		return err
	}

	journal := cascade.NewJournal(pc.JournalCap)
	pol := policy.ReRaise{Limit: int32(pc.MaxDepth)}
	cb := func(fc *api.FaultContext) {
		action := pol.Decide(fc.Event)
		journal.Append(cascade.RecordOf(fc, false, action))
		if action == api.ReRaiseFault {
			plat.RaiseFault(fc.Event.Signal)
		}
		plat.Terminate(pc.ExitStatus)
	}
	flags := api.DeliverOnAltStack | api.NoDeferSameSignal
	if err := plat.RegisterFaultCallback(api.SigSegv, flags, cb); err != nil {
		return err
	}

	if !plat.Inject(api.SigSegv, 0xdeadbeef) {
		return fmt.Errorf("simulated cascade did not terminate")
	}
	return summarize(pc, model, journal.Snapshot(), plat)
}

func summarize(pc probeConfig, model string, records []cascade.Record, plat *fake.Platform) error {
	bold := color.New(color.Bold)
	bold.Printf("cascade under %q accounting: %d handler entries\n", model, len(records))
	for _, r := range records {
		fmt.Printf("  depth %2d  base %#x  budget %d\n", r.Depth, r.StackBase, r.Budget)
	}

	switch classifyBudgets(records) {
	case "shrinking":
		color.Green("observed: budget strictly decreasing (re-entries consume stack)")
	case "static":
		color.Yellow("observed: budget constant (re-entries restart at the stack top)")
	default:
		color.Red("observed: inconclusive budget sequence")
	}
	if plat.DiedByDefaultAction() {
		fmt.Println("cascade ended by stack exhaustion (default fatal behavior)")
	} else {
		fmt.Printf("cascade ended by policy at the depth bound, status %d\n", plat.ExitStatus())
	}

	if pc.ReportPath != "" {
		if err := writeReport(pc.ReportPath, model, records); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", pc.ReportPath)
	}
	return nil
}

// classifyBudgets names the observed contract from the journal.
func classifyBudgets(records []cascade.Record) string {
	if len(records) < 2 {
		return "inconclusive"
	}
	shrinking, static := true, true
	for i := 1; i < len(records); i++ {
		if records[i].Budget >= records[i-1].Budget {
			shrinking = false
		}
		if records[i].Budget != records[i-1].Budget {
			static = false
		}
	}
	switch {
	case shrinking:
		return "shrinking"
	case static:
		return "static"
	default:
		return "inconclusive"
	}
}
