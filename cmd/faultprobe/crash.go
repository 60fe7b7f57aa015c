// File: cmd/faultprobe/crash.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentics/faultstack/api"
	"github.com/momentics/faultstack/facade"
)

var crashNoAltStack bool

var crashCmd = &cobra.Command{
	Use:   "crash",
	Short: "Install the handler, then dereference an invalid address",
	Long: `crash provokes a single SIGSEGV after installing fault isolation.
Expected outcome: one diagnostic line on stderr, then process exit
with the configured status. This command does not return.`,
	RunE: runCrash,
}

func init() {
	crashCmd.Flags().BoolVar(&crashNoAltStack, "no-altstack", false,
		"deliver on the ordinary thread stack instead of a diagnostic region")
}

func runCrash(cmd *cobra.Command, args []string) error {
	pc, err := loadProbeConfig(flagConfig)
	if err != nil {
		return err
	}

	cfg := facade.DefaultConfig()
	cfg.StackSizeBytes = pc.StackKiB * 1024
	cfg.ExitStatus = pc.ExitStatus
	cfg.OnAltStack = !crashNoAltStack
	cfg.Signals = []api.Signal{api.SigSegv}

	if _, err := facade.Install(cfg); err != nil {
		return fmt.Errorf("install fault isolation: %w", err)
	}

	fmt.Printf("provoking SIGSEGV, expecting exit status %d\n", pc.ExitStatus)
	derefNil()
	return fmt.Errorf("unreachable: invalid dereference returned")
}

// derefNil faults. Noinline keeps the faulting frame a real call.
//
//go:noinline
func derefNil() {
	_ = *(*int)(nil)
}
