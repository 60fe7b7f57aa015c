// File: cmd/faultprobe/report.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/momentics/faultstack/cascade"
)

// cascadeReport is the msgpack document one probe run produces.
// Reports from different targets can be diffed to compare platform
// stack accounting.
type cascadeReport struct {
	Model     string           `msgpack:"model"`
	Host      string           `msgpack:"host"`
	Timestamp int64            `msgpack:"ts"`
	Records   []cascade.Record `msgpack:"records"`
}

func writeReport(path, model string, records []cascade.Record) error {
	host, _ := os.Hostname()
	doc := cascadeReport{
		Model:     model,
		Host:      host,
		Timestamp: time.Now().Unix(),
		Records:   records,
	}
	raw, err := msgpack.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode cascade report: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write cascade report: %w", err)
	}
	return nil
}
