//go:build linux
// +build linux

// File: platform/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux binding: anonymous mmap regions with a PROT_NONE guard page,
// sigaltstack registration, sigaction-based callback installation via
// CGO, and exit_group termination.

package platform

/*
#include <signal.h>
#include <string.h>
#include <errno.h>
#include <ucontext.h>
#include <pthread.h>

extern void goFaultEntry(int sig, unsigned long addr, unsigned long sp,
                         unsigned long base, unsigned long size);

// faultstack_handler forwards a delivery into Go with the saved stack
// pointer and, when executing on the alternate stack, that stack's
// bounds as reported by sigaltstack(2) for the current thread.
static void faultstack_handler(int sig, siginfo_t *info, void *uctx) {
	unsigned long sp = 0;
	unsigned long base = 0;
	unsigned long size = 0;
#if defined(__x86_64__)
	ucontext_t *uc = (ucontext_t *)uctx;
	sp = (unsigned long)uc->uc_mcontext.gregs[REG_RSP];
#elif defined(__aarch64__)
	ucontext_t *uc = (ucontext_t *)uctx;
	sp = (unsigned long)uc->uc_mcontext.sp;
#endif
	stack_t ss;
	if (sigaltstack(NULL, &ss) == 0 && (ss.ss_flags & SS_ONSTACK) != 0) {
		base = (unsigned long)ss.ss_sp;
		size = (unsigned long)ss.ss_size;
	}
	goFaultEntry(sig, (unsigned long)info->si_addr, sp, base, size);
}

static int faultstack_install(int sig, int onstack, int nodefer) {
	struct sigaction sa;
	memset(&sa, 0, sizeof sa);
	sa.sa_sigaction = faultstack_handler;
	sa.sa_flags = SA_SIGINFO;
	if (onstack) {
		sa.sa_flags |= SA_ONSTACK;
	}
	if (nodefer) {
		sa.sa_flags |= SA_NODEFER;
	}
	sigemptyset(&sa.sa_mask);
	if (sigaction(sig, &sa, NULL) != 0) {
		return errno;
	}
	return 0;
}

static int faultstack_restore(int sig) {
	struct sigaction sa;
	memset(&sa, 0, sizeof sa);
	sa.sa_handler = SIG_DFL;
	sigemptyset(&sa.sa_mask);
	if (sigaction(sig, &sa, NULL) != 0) {
		return errno;
	}
	return 0;
}

static int faultstack_set_altstack(unsigned long base, unsigned long size) {
	stack_t ss;
	memset(&ss, 0, sizeof ss);
	if (base == 0) {
		ss.ss_flags = SS_DISABLE;
	} else {
		ss.ss_sp = (void *)base;
		ss.ss_size = (size_t)size;
	}
	if (sigaltstack(&ss, NULL) != 0) {
		return errno;
	}
	return 0;
}

static int faultstack_unblock(int sig) {
	sigset_t set;
	sigemptyset(&set);
	sigaddset(&set, sig);
	return pthread_sigmask(SIG_UNBLOCK, &set, NULL);
}

static unsigned long faultstack_minsigstksz(void) {
	return (unsigned long)MINSIGSTKSZ;
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/faultstack/api"
)

// linuxPlatform is the real host binding.
type linuxPlatform struct {
	pageSize uintptr
}

func newPlatform() (api.Platform, error) {
	return &linuxPlatform{pageSize: uintptr(unix.Getpagesize())}, nil
}

func (p *linuxPlatform) roundUp(n uintptr) uintptr {
	return (n + p.pageSize - 1) &^ (p.pageSize - 1)
}

// AllocateRegion maps size bytes plus one guard page below the usable
// range. A capture overrun then faults deterministically at the guard
// instead of corrupting adjacent mappings.
func (p *linuxPlatform) AllocateRegion(size uintptr) (uintptr, uintptr, error) {
	usable := p.roundUp(size)
	total := int(usable + p.pageSize)

	data, err := unix.Mmap(-1, 0, total,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANONYMOUS|unix.MAP_PRIVATE|unix.MAP_STACK)
	if err != nil {
		return 0, 0, api.NewError(api.ErrCodeAllocation,
			fmt.Sprintf("mmap diagnostic region: %v", err)).
			WithContext("size", int(size))
	}
	if err := unix.Mprotect(data[:p.pageSize], unix.PROT_NONE); err != nil {
		_ = unix.Munmap(data)
		return 0, 0, api.NewError(api.ErrCodeAllocation,
			fmt.Sprintf("mprotect guard page: %v", err))
	}
	base := uintptr(unsafe.Pointer(&data[0])) + p.pageSize
	return base, usable, nil
}

// ReleaseRegion unmaps a region returned by AllocateRegion, guard page
// included.
func (p *linuxPlatform) ReleaseRegion(base, size uintptr) error {
	if base < p.pageSize {
		return api.ErrInvalidArgument
	}
	mapBase := base - p.pageSize
	total := int(p.roundUp(size) + p.pageSize)
	mapping := unsafe.Slice((*byte)(unsafe.Pointer(mapBase)), total)
	return unix.Munmap(mapping)
}

func (p *linuxPlatform) SetAltStack(base, size uintptr) error {
	if rc := C.faultstack_set_altstack(C.ulong(base), C.ulong(size)); rc != 0 {
		return api.NewError(api.ErrCodeRegistration,
			fmt.Sprintf("sigaltstack: %v", unix.Errno(rc))).
			WithContext("base", uint64(base)).
			WithContext("size", uint64(size))
	}
	return nil
}

func (p *linuxPlatform) MinRegionSize() uintptr {
	return uintptr(C.faultstack_minsigstksz())
}

func (p *linuxPlatform) RegisterFaultCallback(sig api.Signal, flags api.DeliveryFlags, cb api.FaultCallback) error {
	if err := storeCallback(sig, cb); err != nil {
		return err
	}
	if cb == nil {
		if rc := C.faultstack_restore(C.int(sig)); rc != 0 {
			return api.NewError(api.ErrCodeRegistration,
				fmt.Sprintf("sigaction restore %s: %v", sig, unix.Errno(rc)))
		}
		return nil
	}
	onstack := C.int(0)
	if flags&api.DeliverOnAltStack != 0 {
		onstack = 1
	}
	nodefer := C.int(0)
	if flags&api.NoDeferSameSignal != 0 {
		nodefer = 1
	}
	if rc := C.faultstack_install(C.int(sig), onstack, nodefer); rc != 0 {
		storeCallback(sig, nil)
		return api.NewError(api.ErrCodeRegistration,
			fmt.Sprintf("sigaction %s: %v", sig, unix.Errno(rc)))
	}
	return nil
}

func (p *linuxPlatform) UnblockSignal(sig api.Signal) error {
	if rc := C.faultstack_unblock(C.int(sig)); rc != 0 {
		return api.NewError(api.ErrCodeInternal,
			fmt.Sprintf("pthread_sigmask unblock %s: %v", sig, unix.Errno(rc)))
	}
	return nil
}

// RaiseFault provokes sig on the calling thread. SIGSEGV is provoked
// by a genuine invalid dereference so si_addr and the machine context
// match a real fault; other kinds go through tgkill(2).
func (p *linuxPlatform) RaiseFault(sig api.Signal) {
	if sig == api.SigSegv {
		provokeSegv()
		return
	}
	_ = unix.Tgkill(unix.Getpid(), unix.Gettid(), unix.SignalNum(sig.String()))
}

// Terminate exits through exit_group, bypassing Go runtime shutdown,
// atexit handlers and stream flushing. Those paths are not guaranteed
// safe after a fault.
func (p *linuxPlatform) Terminate(status int) {
	unix.Exit(status)
}

// provokeSegv dereferences nil. Kept noinline so the faulting frame is
// a real call frame with spilled registers.
//
//go:noinline
func provokeSegv() {
	_ = *(*int)(nil)
}
