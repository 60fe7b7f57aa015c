// File: cmd/faultprobe/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// faultprobe exercises the faultstack library against the running
// platform. Cascade stack accounting (does a re-entered handler land
// lower on the alternate stack, or restart at the top?) is not
// guaranteed by any portable specification; this tool observes it so
// the contract can be documented per target instead of assumed.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/momentics/faultstack/facade"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "faultprobe",
	Short: "Probe platform fault-delivery and cascade behavior",
	Long: `faultprobe installs the faultstack fault-isolation handler and then
provokes real or simulated faults to observe diagnostic capture,
alternate-stack delivery and cascade stack accounting.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			facade.SetLogger(logger)
		}
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "TOML probe configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log install/teardown lifecycle")

	rootCmd.AddCommand(crashCmd)
	rootCmd.AddCommand(overflowCmd)
	rootCmd.AddCommand(cascadeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
