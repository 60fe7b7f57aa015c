// Package platform
// Author: momentics <momentics@gmail.com>
//
// Host bindings for the api.Platform boundary: region allocation,
// alternate-stack registration, fault-callback installation and
// immediate termination. Linux is backed by mmap(2), sigaltstack(2)
// and sigaction(2) through CGO; other platforms get a stub that
// rejects installation. A deterministic in-process simulator for tests
// lives in the fake package.
package platform
