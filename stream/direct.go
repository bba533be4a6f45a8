/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

//go:build linux

package stream

import (
	"golang.org/x/sys/unix"
)

// TryDirect attempts a zero-copy kernel-side transfer of up to max bytes
// from src to dst using splice. It is only ever attempted when both ends
// are pipes, sockets or regular files, which is exactly the capability set
// a Stream's DirectMask negotiates with a Handler before calling OnDirect.
//
// Returns ok=false (never an error) when splice is not supported between
// this fd pair (e.g. ENOSYS on an old kernel, or EINVAL for an
// unsupported combination) so the caller can silently fall back to
// OnData.
func TryDirect(dst, src int, max int64) (n int64, ok bool, err error) {
	if max <= 0 {
		return 0, true, nil
	}

	n, serr := unix.Splice(src, nil, dst, nil, int(max), unix.SPLICE_F_NONBLOCK|unix.SPLICE_F_MOVE)
	if serr != nil {
		switch serr {
		case unix.ENOSYS, unix.EINVAL:
			return 0, false, nil
		case unix.EAGAIN:
			return 0, true, nil
		default:
			return 0, true, serr
		}
	}
	return n, true, nil
}

// NewPipe allocates an OS pipe pair for use as a Pipe filter's in-memory
// to direct-transfer bridge.
func NewPipe() (r, w int, err error) {
	var fds [2]int
	if err = unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}
