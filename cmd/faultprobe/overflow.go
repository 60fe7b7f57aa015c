// File: cmd/faultprobe/overflow.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentics/faultstack/api"
	"github.com/momentics/faultstack/facade"
)

var overflowNoAltStack bool

var overflowCmd = &cobra.Command{
	Use:   "overflow",
	Short: "Exhaust a fixed thread stack by unbounded recursion",
	Long: `overflow recurses without bound on a fixed-size C thread stack.
Without --no-altstack a diagnostic region is installed first and the
resulting fault is expected to emit one diagnostic line before
termination; with it, the process is expected to die under default
fault behavior with no diagnostic at all, since the exhausted stack
cannot host the handler. Go goroutine stacks grow on demand, so the
recursion must run on a foreign (C) stack to overflow for real.`,
	RunE: runOverflow,
}

func init() {
	overflowCmd.Flags().BoolVar(&overflowNoAltStack, "no-altstack", false,
		"skip the diagnostic region; expect silent default-action death")
}

func runOverflow(cmd *cobra.Command, args []string) error {
	pc, err := loadProbeConfig(flagConfig)
	if err != nil {
		return err
	}

	cfg := facade.DefaultConfig()
	cfg.StackSizeBytes = pc.StackKiB * 1024
	cfg.ExitStatus = pc.ExitStatus
	cfg.OnAltStack = !overflowNoAltStack
	cfg.Signals = []api.Signal{api.SigSegv, api.SigBus}

	if _, err := facade.Install(cfg); err != nil {
		return fmt.Errorf("install fault isolation: %w", err)
	}

	if overflowNoAltStack {
		fmt.Println("recursing without a diagnostic region; expecting silent death")
	} else {
		fmt.Printf("recursing with a %d KiB diagnostic region; expecting one diagnostic line\n", pc.StackKiB)
	}
	recurseForever()
	return fmt.Errorf("unreachable: unbounded recursion returned")
}
