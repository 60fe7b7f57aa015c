// File: region/region_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package region

import (
	"errors"
	"testing"

	"github.com/momentics/faultstack/api"
	"github.com/momentics/faultstack/fake"
)

func newTestManager(tid int) (*Manager, *fake.Platform) {
	plat := fake.New()
	m := NewManager(plat)
	m.setThreadID(func() int { return tid })
	return m, plat
}

func TestInstallRegistersAltStack(t *testing.T) {
	m, plat := newTestManager(11)
	r, err := m.InstallForCurrentThread(MinRecommendedSize)
	if err != nil {
		t.Fatal(err)
	}
	if !plat.AltStackInstalled() {
		t.Fatal("platform has no alternate stack after install")
	}
	if r.Size() < MinRecommendedSize {
		t.Fatalf("region size %d below requested %d", r.Size(), MinRecommendedSize)
	}
	if r.Base() == 0 {
		t.Fatal("region base is zero")
	}
}

func TestInstallBelowPlatformMinimum(t *testing.T) {
	m, plat := newTestManager(11)
	_, err := m.InstallForCurrentThread(plat.MinRegionSize() - 1)
	if err == nil {
		t.Fatal("undersized install succeeded")
	}
	var se *api.Error
	if !errors.As(err, &se) || se.Code != api.ErrCodeRegistration {
		t.Fatalf("error %v, want registration error", err)
	}
}

func TestDoubleInstallIsMisuse(t *testing.T) {
	m, _ := newTestManager(11)
	if _, err := m.InstallForCurrentThread(MinRecommendedSize); err != nil {
		t.Fatal(err)
	}
	_, err := m.InstallForCurrentThread(MinRecommendedSize)
	var se *api.Error
	if !errors.As(err, &se) || se.Code != api.ErrCodeMisuse {
		t.Fatalf("error %v, want misuse error", err)
	}
}

func TestReleaseBlockedWhileHandlerLive(t *testing.T) {
	m, _ := newTestManager(11)
	live := true
	m.SetHandlerLiveCheck(func() bool { return live })

	r, err := m.InstallForCurrentThread(MinRecommendedSize)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Release(); err == nil {
		t.Fatal("release succeeded while handler registered")
	}
	live = false
	if err := r.Release(); err != nil {
		t.Fatalf("release after deregistration: %v", err)
	}
}

func TestReleaseFromForeignThread(t *testing.T) {
	m, _ := newTestManager(11)
	r, err := m.InstallForCurrentThread(MinRecommendedSize)
	if err != nil {
		t.Fatal(err)
	}
	m.setThreadID(func() int { return 99 })
	err = r.Release()
	var se *api.Error
	if !errors.As(err, &se) || se.Code != api.ErrCodeMisuse {
		t.Fatalf("error %v, want misuse error", err)
	}
}

func TestDoubleReleaseIsMisuse(t *testing.T) {
	m, _ := newTestManager(11)
	r, err := m.InstallForCurrentThread(MinRecommendedSize)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Release(); err != nil {
		t.Fatal(err)
	}
	if err := r.Release(); err == nil {
		t.Fatal("second release succeeded")
	}
}

func TestReinstallCycleIsIdempotent(t *testing.T) {
	m, plat := newTestManager(11)

	r1, err := m.InstallForCurrentThread(MinRecommendedSize)
	if err != nil {
		t.Fatal(err)
	}
	base1 := r1.Base()
	if err := r1.Release(); err != nil {
		t.Fatal(err)
	}
	if plat.AltStackInstalled() {
		t.Fatal("alternate stack still registered after release")
	}

	r2, err := m.InstallForCurrentThread(MinRecommendedSize)
	if err != nil {
		t.Fatalf("second cycle install: %v", err)
	}
	if r2.Base() != base1 {
		t.Fatalf("second cycle base %#x, first %#x", r2.Base(), base1)
	}
	if err := r2.Release(); err != nil {
		t.Fatalf("second cycle release: %v", err)
	}
}

func TestTotalBytes(t *testing.T) {
	m, _ := newTestManager(11)
	if m.TotalBytes() != 0 {
		t.Fatal("fresh manager reports installed bytes")
	}
	r, err := m.InstallForCurrentThread(MinRecommendedSize)
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalBytes() != r.Size() {
		t.Fatalf("TotalBytes %d, want %d", m.TotalBytes(), r.Size())
	}
}
