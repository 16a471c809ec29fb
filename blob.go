// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

// blobAlignment is the power-of-two granularity capacity growth rounds up
// to, matching the original C implementation's align_default behavior.
const blobAlignment = 16

// Blob is an append-only, growable byte container. Size grows monotonically
// except via Clear. Capacity grows in powers of two, rounded up to
// blobAlignment, on demand.
type Blob struct {
	buf  []byte
	size int
}

// NewBlob allocates a blob with the given initial capacity.
func NewBlob(initialCapacity int) *Blob {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	return &Blob{buf: make([]byte, initialCapacity)}
}

// Size returns the number of committed bytes.
func (b *Blob) Size() int { return b.size }

// Capacity returns the current backing capacity.
func (b *Blob) Capacity() int { return len(b.buf) }

// Clear resets Size to zero without releasing capacity.
func (b *Blob) Clear() { b.size = 0 }

// Bytes returns the committed portion of the blob. The returned slice
// aliases the blob's internal storage and is invalidated by the next
// mutating call.
func (b *Blob) Bytes() []byte { return b.buf[:b.size] }

func alignUp(n int) int {
	if n <= 0 {
		return blobAlignment
	}
	size := blobAlignment
	for size < n {
		size *= 2
	}
	return size
}

func (b *Blob) growFor(addend int) {
	if b.size+addend <= len(b.buf) {
		return
	}
	newCap := alignUp(b.size + addend)
	nb := make([]byte, newCap)
	copy(nb, b.buf[:b.size])
	b.buf = nb
}

// SendChunk appends src to the blob, growing capacity as needed.
func (b *Blob) SendChunk(src []byte) {
	b.growFor(len(src))
	copy(b.buf[b.size:], src)
	b.size += len(src)
}

// ReceiveChunk copies a window [offset, offset+k) of the blob's committed
// bytes into dst (k = min(len(dst), size-offset), clamped to >= 0) and
// returns k. Restartable: passing offset=0 replays from the start.
func (b *Blob) ReceiveChunk(dst []byte, offset int) int {
	remain := b.size - offset
	if remain < 0 {
		remain = 0
	}
	k := len(dst)
	if k > remain {
		k = remain
	}
	if k <= 0 {
		return 0
	}
	copy(dst, b.buf[offset:offset+k])
	return k
}

// Preallocate guarantees capacity >= size+n and returns a mutable window of
// length n starting at the current size. The caller writes into the window
// and then calls Commit with the number of bytes actually written.
func (b *Blob) Preallocate(n int) []byte {
	b.growFor(n)
	return b.buf[b.size : b.size+n]
}

// Commit advances Size by k, the number of bytes the caller wrote into the
// window returned by the preceding Preallocate call. If k would push Size
// beyond Capacity, Size is clamped to Capacity and ErrNoEnoughCapacity is
// returned.
func (b *Blob) Commit(k int) error {
	b.size += k
	if b.size > len(b.buf) {
		b.size = len(b.buf)
		return wrapErr("blob.commit", ErrCodeNoEnoughCapacity, nil)
	}
	return nil
}
