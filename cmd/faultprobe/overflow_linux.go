//go:build linux
// +build linux

// File: cmd/faultprobe/overflow_linux.go
// Author: momentics <momentics@gmail.com>
//
// The recursion runs in C on the calling thread's fixed system stack
// so it genuinely overflows; Go stacks grow and never would. The
// caller is the thread Install pinned and equipped with the region,
// so the overflow lands exactly where the diagnostic region (when
// installed) can catch it.

package main

/*
static int probe_recurse(volatile int depth) {
	volatile char pad[4096];
	pad[0] = (char)depth;
	return probe_recurse(depth + 1) + pad[0];
}

static void probe_overflow(void) {
	probe_recurse(0);
}
*/
import "C"

func recurseForever() {
	C.probe_overflow()
}
