//go:build !linux || !cgo
// +build !linux !cgo

// File: platform/platform_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub binding for unsupported platforms. Installation fails cleanly;
// termination still works so TerminationPolicy keeps its contract.

package platform

import (
	"os"

	"github.com/momentics/faultstack/api"
)

type stubPlatform struct{}

func newPlatform() (api.Platform, error) {
	return &stubPlatform{}, nil
}

func (s *stubPlatform) AllocateRegion(size uintptr) (uintptr, uintptr, error) {
	return 0, 0, api.NewError(api.ErrCodeNotSupported, "diagnostic regions require linux")
}

func (s *stubPlatform) ReleaseRegion(base, size uintptr) error {
	return api.ErrNotSupported
}

func (s *stubPlatform) SetAltStack(base, size uintptr) error {
	return api.ErrNotSupported
}

func (s *stubPlatform) MinRegionSize() uintptr { return 0 }

func (s *stubPlatform) RegisterFaultCallback(sig api.Signal, flags api.DeliveryFlags, cb api.FaultCallback) error {
	return api.ErrNotSupported
}

func (s *stubPlatform) UnblockSignal(sig api.Signal) error {
	return api.ErrNotSupported
}

func (s *stubPlatform) RaiseFault(sig api.Signal) {}

func (s *stubPlatform) Terminate(status int) {
	os.Exit(status)
}
