//go:build linux
// +build linux

// File: region/region_linux.go
// Author: momentics <momentics@gmail.com>
//
// Thread identity on Linux comes from gettid(2), stable for the
// lifetime of a locked OS thread.

package region

import "golang.org/x/sys/unix"

func currentThreadID() int {
	return unix.Gettid()
}
