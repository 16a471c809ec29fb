package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingQueueEnqueueDequeueFIFO(t *testing.T) {
	q := NewRingQueue[int](3)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.NoError(t, q.Enqueue(3))
	require.True(t, q.IsFull())

	err := q.Enqueue(4)
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeInternalBufferFullFilled))

	v, err := q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.True(t, q.HasSpace())
}

func TestRingQueueDequeueEmptyFails(t *testing.T) {
	q := NewRingQueue[int](2)
	_, err := q.Dequeue()
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeNoDataToParse))
}

func TestTransferQueueDrainsWhileSpaceAndItems(t *testing.T) {
	src := NewRingQueue[int](5)
	dst := NewRingQueue[int](2)
	for i := 1; i <= 5; i++ {
		require.NoError(t, src.Enqueue(i))
	}

	moved := TransferQueue(dst, src)
	require.Equal(t, 2, moved)
	require.Equal(t, 3, src.Size())
	require.True(t, dst.IsFull())

	v, _ := dst.Dequeue()
	require.Equal(t, 1, v)
	v, _ = dst.Dequeue()
	require.Equal(t, 2, v)
}

func TestTransferQueuePreservesOrderAcrossChain(t *testing.T) {
	a := NewRingQueue[int](4)
	b := NewRingQueue[int](4)
	c := NewRingQueue[int](4)
	for i := 1; i <= 4; i++ {
		require.NoError(t, a.Enqueue(i))
	}
	TransferQueue(b, a)
	TransferQueue(c, b)

	var out []int
	for !c.IsEmpty() {
		v, _ := c.Dequeue()
		out = append(out, v)
	}
	require.Equal(t, []int{1, 2, 3, 4}, out)
}
