// File: cmd/faultprobe/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// probeConfig is the TOML-settable probe tuning.
type probeConfig struct {
	StackKiB   int    `toml:"stack_kib"`
	ExitStatus int    `toml:"exit_status"`
	MaxDepth   int    `toml:"max_depth"`
	FrameCost  int    `toml:"frame_cost"`
	JournalCap int    `toml:"journal_cap"`
	ReportPath string `toml:"report"`
}

func defaultProbeConfig() probeConfig {
	return probeConfig{
		StackKiB:   64,
		ExitStatus: 2,
		MaxDepth:   16,
		FrameCost:  1024,
		JournalCap: 128,
		ReportPath: "cascade-report.msgpack",
	}
}

// loadProbeConfig merges the optional TOML file over the defaults.
func loadProbeConfig(path string) (probeConfig, error) {
	cfg := defaultProbeConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("probe config %s: %w", path, err)
	}
	if cfg.StackKiB < 16 {
		return cfg, fmt.Errorf("probe config: stack_kib %d below the 16 KiB floor", cfg.StackKiB)
	}
	return cfg, nil
}
