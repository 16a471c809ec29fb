package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriorityQueueShiftsMinimumFirst(t *testing.T) {
	pq := NewPriorityQueue[int](4, func(a, b int) bool { return a <= b })
	for _, v := range []int{5, 1, 9, 3, 7} {
		require.NoError(t, pq.Insert(v))
	}

	var out []int
	for !pq.IsEmpty() {
		v, err := pq.Shift()
		require.NoError(t, err)
		out = append(out, v)
	}
	require.Equal(t, []int{1, 3, 5, 7, 9}, out)
}

func TestPriorityQueueShiftEmptyFails(t *testing.T) {
	pq := NewPriorityQueue[int](2, func(a, b int) bool { return a <= b })
	_, err := pq.Shift()
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeNoDataToParse))
}

func TestPriorityQueueInsertFullFails(t *testing.T) {
	pq := NewPriorityQueue[int](1, func(a, b int) bool { return a <= b })
	require.NoError(t, pq.Insert(1))
	require.NoError(t, pq.Insert(2))
	require.True(t, pq.IsFull())

	err := pq.Insert(3)
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeInternalBufferFullFilled))
}

func TestPriorityQueueUpscale(t *testing.T) {
	pq := NewPriorityQueue[int](1, func(a, b int) bool { return a <= b })
	pq.Insert(1)
	pq.Insert(2)
	pq.Upscale(3)
	require.Equal(t, 8, pq.Capacity())
	require.NoError(t, pq.Insert(3))
}

func TestPriorityQueueTieBreakShiftsEarliestInsertedFirst(t *testing.T) {
	type labeled struct {
		key   int
		label string
	}
	pq := NewPriorityQueue[labeled](4, func(a, b labeled) bool { return a.key <= b.key })
	require.NoError(t, pq.Insert(labeled{1, "a"}))
	require.NoError(t, pq.Insert(labeled{1, "b"}))
	require.NoError(t, pq.Insert(labeled{1, "c"}))

	first, err := pq.Shift()
	require.NoError(t, err)
	require.Equal(t, "a", first.label)
}
