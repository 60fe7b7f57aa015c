// File: internal/sigsafe/sigsafe.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Async-signal-safe text emission. Everything here appends into a
// caller-owned fixed buffer and writes through the raw write(2)
// wrapper: no heap allocation, no locks, no buffered streams. The
// fault path depends on these properties; keep fmt and friends out.

package sigsafe

import "golang.org/x/sys/unix"

// Stderr is the file descriptor diagnostics are written to.
const Stderr = 2

// AppendString copies s into dst starting at off and returns the new
// offset. Truncates silently at the buffer end.
func AppendString(dst []byte, off int, s string) int {
	for i := 0; i < len(s) && off < len(dst); i++ {
		dst[off] = s[i]
		off++
	}
	return off
}

// AppendUint renders v in decimal into dst at off.
func AppendUint(dst []byte, off int, v uint64) int {
	// 20 digits cover the full uint64 range.
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
	for ; i < len(tmp) && off < len(dst); i++ {
		dst[off] = tmp[i]
		off++
	}
	return off
}

// AppendHex renders v as 0x-prefixed lowercase hex into dst at off.
func AppendHex(dst []byte, off int, v uint64) int {
	const digits = "0123456789abcdef"
	off = AppendString(dst, off, "0x")
	var tmp [16]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = digits[v&0xf]
		v >>= 4
		if v == 0 {
			break
		}
	}
	for ; i < len(tmp) && off < len(dst); i++ {
		dst[off] = tmp[i]
		off++
	}
	return off
}

// Write emits b[:n] on fd through the raw syscall, retrying on EINTR.
// Short writes abandon the remainder: a partial diagnostic is
// acceptable, a loop that could wedge the fault path is not.
func Write(fd int, b []byte, n int) {
	if n > len(b) {
		n = len(b)
	}
	for written := 0; written < n; {
		m, err := unix.Write(fd, b[written:n])
		if err == unix.EINTR {
			continue
		}
		if err != nil || m <= 0 {
			return
		}
		written += m
	}
}
