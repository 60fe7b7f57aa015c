// File: platform/platform.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform selection and the process-wide callback slots shared with
// the fault trampoline. Slot reads happen inside a signal handler, so
// they are atomic pointers indexed by signal number, never a map.

package platform

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/faultstack/api"
)

// maxSignal bounds the callback slot table. Realtime signals are out
// of scope; synchronous faults all fall well below this.
const maxSignal = 32

var (
	callbackSlots [maxSignal]atomic.Pointer[api.FaultCallback]
	faultDepth    atomic.Int32

	defaultOnce sync.Once
	defaultPlat api.Platform
	defaultErr  error
)

// Default returns the process-wide platform binding for this OS.
func Default() (api.Platform, error) {
	defaultOnce.Do(func() {
		defaultPlat, defaultErr = newPlatform()
	})
	return defaultPlat, defaultErr
}

// Depth returns the number of fault deliveries seen by the trampoline
// since process start. It only ever grows; a cascade never completes.
func Depth() int32 { return faultDepth.Load() }

func storeCallback(sig api.Signal, cb api.FaultCallback) error {
	if sig <= 0 || int(sig) >= maxSignal {
		return api.NewError(api.ErrCodeRegistration, "signal out of range").
			WithContext("signal", int(sig))
	}
	if cb == nil {
		callbackSlots[sig].Store(nil)
		return nil
	}
	callbackSlots[sig].Store(&cb)
	return nil
}

func loadCallback(sig api.Signal) api.FaultCallback {
	if sig <= 0 || int(sig) >= maxSignal {
		return nil
	}
	p := callbackSlots[sig].Load()
	if p == nil {
		return nil
	}
	return *p
}
