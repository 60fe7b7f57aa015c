// File: region/region.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// AltStackManager. InstallForCurrentThread must run on a locked OS
// thread; the region registers with that thread only and cross-thread
// release is rejected. Install/release are setup-time operations and
// may lock freely; nothing here executes on the fault path.

package region

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"github.com/momentics/faultstack/api"
)

// MinRecommendedSize is the smallest region worth installing. The
// platform lower bound (MINSIGSTKSZ) is usually smaller but leaves no
// room for diagnostics.
const MinRecommendedSize = 16 * 1024

// Manager owns every diagnostic region in the process.
type Manager struct {
	mu       sync.Mutex
	plat     api.Platform
	tid      api.ThreadID
	installs map[int]*Region

	// handlerLive reports whether a fault handler is still registered.
	// Release refuses to run while it returns true: a later fault
	// would have nowhere safe to land.
	handlerLive func() bool
}

// Region is one installed diagnostic region.
type Region struct {
	mgr      *Manager
	base     uintptr
	size     uintptr
	tid      int
	released bool
}

// NewManager builds a manager over the given platform binding.
func NewManager(p api.Platform) *Manager {
	return &Manager{
		plat:     p,
		tid:      currentThreadID,
		installs: make(map[int]*Region),
	}
}

// SetHandlerLiveCheck wires the registry's registration state into
// release ordering. Install-time use only.
func (m *Manager) SetHandlerLiveCheck(fn func() bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlerLive = fn
}

// setThreadID overrides thread identification. Test hook.
func (m *Manager) setThreadID(fn api.ThreadID) { m.tid = fn }

// InstallForCurrentThread allocates a region of at least size bytes
// and registers it as the calling thread's alternate execution stack.
// The calling goroutine must be locked to its OS thread and stay
// locked for the thread's lifetime; the region cannot move or shrink
// afterwards.
func (m *Manager) InstallForCurrentThread(size uintptr) (*Region, error) {
	if _, err := safecast.Conv[int](uint64(size)); err != nil || size == 0 {
		return nil, api.NewError(api.ErrCodeMisuse, "region size out of range").
			WithContext("size", uint64(size))
	}
	if min := m.plat.MinRegionSize(); size < min {
		return nil, api.NewError(api.ErrCodeRegistration,
			fmt.Sprintf("region size %d below platform minimum %d", size, min))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tid := m.tid()
	if _, ok := m.installs[tid]; ok {
		return nil, api.NewError(api.ErrCodeMisuse,
			"diagnostic region already installed on this thread").
			WithContext("tid", tid)
	}

	base, actual, err := m.plat.AllocateRegion(size)
	if err != nil {
		return nil, err
	}
	if err := m.plat.SetAltStack(base, actual); err != nil {
		_ = m.plat.ReleaseRegion(base, actual)
		return nil, err
	}

	r := &Region{mgr: m, base: base, size: actual, tid: tid}
	m.installs[tid] = r
	return r, nil
}

// InstalledOnCurrentThread returns the calling thread's region, if any.
func (m *Manager) InstalledOnCurrentThread() (*Region, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.installs[m.tid()]
	return r, ok
}

// TotalBytes reports the memory held by installed regions.
func (m *Manager) TotalBytes() uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n uintptr
	for _, r := range m.installs {
		n += r.size
	}
	return n
}

// Base returns the region's usable base address.
func (r *Region) Base() uintptr { return r.base }

// Size returns the region's usable size in bytes.
func (r *Region) Size() uintptr { return r.size }

// Release disables alternate-stack delivery for the owning thread and
// returns the memory. It must run on the installing thread, and only
// after the fault handler has been deregistered, the reverse of
// installation order.
func (r *Region) Release() error {
	m := r.mgr
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.released {
		return api.NewError(api.ErrCodeMisuse, "region already released")
	}
	if tid := m.tid(); tid != r.tid {
		return api.NewError(api.ErrCodeMisuse, "region released from foreign thread").
			WithContext("owner", r.tid).
			WithContext("caller", tid)
	}
	if m.handlerLive != nil && m.handlerLive() {
		return api.NewError(api.ErrCodeMisuse,
			"fault handler still registered; deregister before releasing the region")
	}

	if err := m.plat.SetAltStack(0, 0); err != nil {
		return err
	}
	if err := m.plat.ReleaseRegion(r.base, r.size); err != nil {
		return err
	}
	r.released = true
	delete(m.installs, r.tid)
	return nil
}
