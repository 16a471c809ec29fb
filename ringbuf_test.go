package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingBufRoundTrip(t *testing.T) {
	r := NewRingBuf(16)
	in := []byte("hello, world!!!!")
	require.Equal(t, 0, r.SendChunk(in))
	require.Equal(t, len(in), r.Size())

	out := make([]byte, len(in))
	k := r.ReceiveChunk(out)
	require.Equal(t, len(in), k)
	require.Equal(t, in, out)
	require.True(t, r.IsEmpty())
}

func TestRingBufWrapsAround(t *testing.T) {
	r := NewRingBuf(8)
	r.SendChunk([]byte("abcd"))
	got := make([]byte, 2)
	r.ReceiveChunk(got)
	require.Equal(t, "ab", string(got))

	r.SendChunk([]byte("efghij"))
	rest := make([]byte, r.Size())
	r.ReceiveChunk(rest)
	require.Equal(t, "cdefghij", string(rest))
}

func TestRingBufSendChunkOverwritesOldest(t *testing.T) {
	r := NewRingBuf(4)
	r.SendChunk([]byte("ab"))
	exceeded := r.SendChunk([]byte("cdef"))
	require.Equal(t, 2, exceeded)
	out := make([]byte, 4)
	r.ReceiveChunk(out)
	require.Equal(t, "cdef", string(out))
}

func TestRingBufReturnChunkUndoesReceive(t *testing.T) {
	r := NewRingBuf(8)
	r.SendChunk([]byte("abcdef"))
	got := make([]byte, 3)
	r.ReceiveChunk(got)
	r.ReturnChunk(got)
	require.Equal(t, 6, r.Size())
	out := make([]byte, 6)
	r.ReceiveChunk(out)
	require.Equal(t, "abcdef", string(out))
}

func TestRingBufTransferConsumesSource(t *testing.T) {
	src := NewRingBuf(8)
	dst := NewRingBuf(8)
	src.SendChunk([]byte("abcdef"))

	n := Transfer(dst, src, 4)
	require.Equal(t, 4, n)
	require.Equal(t, 2, src.Size())
	require.Equal(t, 4, dst.Size())

	out := make([]byte, 4)
	dst.ReceiveChunk(out)
	require.Equal(t, "abcd", string(out))
}

func TestRingBufCopyLeavesSourceIntact(t *testing.T) {
	src := NewRingBuf(8)
	dst := NewRingBuf(8)
	src.SendChunk([]byte("abcd"))

	n := Copy(dst, src, 4)
	require.Equal(t, 4, n)
	require.Equal(t, 4, src.Size())
	require.Equal(t, 4, dst.Size())
}

func TestRingBufUpscaleIfNeededRelinearizes(t *testing.T) {
	r := NewRingBuf(4)
	r.SendChunk([]byte("ab"))
	got := make([]byte, 1)
	r.ReceiveChunk(got)
	r.SendChunk([]byte("cd")) // start is now offset 1; bytes sit at offsets 1..3

	r.UpscaleIfNeeded(8)
	require.Equal(t, 8, r.Capacity())
	out := make([]byte, r.Size())
	r.ReceiveChunk(out)
	require.Equal(t, "bcd", string(out))
}

func TestRingBufUpscaleIfNeededNoopWhenSmaller(t *testing.T) {
	r := NewRingBuf(8)
	r.UpscaleIfNeeded(4)
	require.Equal(t, 8, r.Capacity())
}
