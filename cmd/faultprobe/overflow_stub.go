//go:build !linux || !cgo
// +build !linux !cgo

// File: cmd/faultprobe/overflow_stub.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"fmt"
	"os"
)

func recurseForever() {
	fmt.Fprintln(os.Stderr, "overflow probe requires linux")
	os.Exit(1)
}
