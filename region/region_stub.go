//go:build !linux
// +build !linux

// File: region/region_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub thread identity for platforms without real installs.

package region

func currentThreadID() int {
	return 1
}
