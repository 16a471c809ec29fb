// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

// RingBuf is a fixed-capacity FIFO byte store. Elements occupy logical
// positions [(start+i) mod capacity : i in [0, size)]. It never allocates
// beyond its initial capacity except through UpscaleIfNeeded.
type RingBuf struct {
	buf   []byte
	start int
	size  int
}

// NewRingBuf allocates a ring buffer with the given fixed byte capacity.
func NewRingBuf(capacity int) *RingBuf {
	if capacity < 0 {
		capacity = 0
	}
	return &RingBuf{buf: make([]byte, capacity)}
}

// Capacity returns the fixed byte capacity.
func (r *RingBuf) Capacity() int { return len(r.buf) }

// Size returns the number of bytes currently stored.
func (r *RingBuf) Size() int { return r.size }

// RemainingCapacity returns Capacity() - Size().
func (r *RingBuf) RemainingCapacity() int { return len(r.buf) - r.size }

// IsEmpty reports whether the buffer currently holds no bytes.
func (r *RingBuf) IsEmpty() bool { return r.size == 0 }

// Clear empties the buffer without reallocating.
func (r *RingBuf) Clear() { r.size = 0 }

// SendChunk appends src to the tail of the buffer. If the write would
// overrun capacity, the oldest bytes are overwritten and the number of
// overwritten bytes is returned (callers that pre-check RemainingCapacity
// never observe a nonzero result).
func (r *RingBuf) SendChunk(src []byte) int {
	n := len(r.buf)
	if n == 0 || len(src) == 0 {
		return 0
	}
	base := r.start + r.size
	for i, b := range src {
		r.buf[(base+i)%n] = b
	}
	r.size += len(src)
	if exceeded := r.size - n; exceeded > 0 {
		r.start = (r.start + exceeded) % n
		r.size = n
		return exceeded
	}
	return 0
}

// ReceiveChunk copies up to len(dst) bytes from the head of the buffer into
// dst, consuming them, and returns the number of bytes copied.
func (r *RingBuf) ReceiveChunk(dst []byte) int {
	if r.size == 0 || len(dst) == 0 {
		return 0
	}
	n := len(r.buf)
	k := len(dst)
	if k > r.size {
		k = r.size
	}
	for i := 0; i < k; i++ {
		dst[i] = r.buf[(r.start+i)%n]
	}
	r.start = (r.start + k) % n
	r.size -= k
	return k
}

// ReturnChunk is the inverse of the most recent ReceiveChunk: it prepends
// src back onto the head of the buffer. The caller must pass the same (or a
// prefix of the same) bytes most recently received, and Size()+len(src)
// must not exceed Capacity().
func (r *RingBuf) ReturnChunk(src []byte) {
	n := len(r.buf)
	if n == 0 || len(src) == 0 {
		return
	}
	r.start = (r.start - len(src) + n) % n
	r.size += len(src)
	for i, b := range src {
		r.buf[(r.start+i)%n] = b
	}
}

// Transfer moves up to min(maxLen, src.Size(), dst.RemainingCapacity-or-overwrite)
// bytes from src into dst, consuming them from src. It returns the number of
// bytes actually moved. If dst would overflow, the oldest bytes already in
// dst are overwritten (same semantics as SendChunk).
func Transfer(dst, src *RingBuf, maxLen int) int {
	return moveBetween(dst, src, maxLen, true)
}

// Copy is identical to Transfer but leaves src untouched.
func Copy(dst, src *RingBuf, maxLen int) int {
	return moveBetween(dst, src, maxLen, false)
}

func moveBetween(dst, src *RingBuf, maxLen int, consume bool) int {
	if len(dst.buf) == 0 || src.size == 0 || maxLen <= 0 {
		return 0
	}
	n := maxLen
	if n > src.size {
		n = src.size
	}
	dn := len(dst.buf)
	sn := len(src.buf)
	base := dst.start + dst.size
	for i := 0; i < n; i++ {
		dst.buf[(base+i)%dn] = src.buf[(src.start+i)%sn]
	}
	dst.size += n
	if exceeded := dst.size - dn; exceeded > 0 {
		dst.start = (dst.start + exceeded) % dn
		dst.size = dn
	}
	if consume {
		src.start = (src.start + n) % sn
		src.size -= n
	}
	return n
}

// UpscaleIfNeeded grows the buffer's capacity to newCap if newCap exceeds
// the current capacity, relinearizing contents so the logical start moves
// to offset 0. It is a no-op if newCap does not exceed the current capacity.
func (r *RingBuf) UpscaleIfNeeded(newCap int) {
	if newCap <= len(r.buf) {
		return
	}
	nb := make([]byte, newCap)
	n := len(r.buf)
	for i := 0; i < r.size; i++ {
		nb[i] = r.buf[(r.start+i)%n]
	}
	r.buf = nb
	r.start = 0
}
