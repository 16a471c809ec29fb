// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

// PriorityQueue is a binary min-heap over elements of type T, ordered by an
// injected leq predicate rather than a fixed comparator, matching the
// original implementation's closure-based comparison. The backing array is
// 1-indexed; index 0 is unused.
type PriorityQueue[T any] struct {
	heap []T
	leq  func(a, b T) bool
	size int
}

// NewPriorityQueue allocates a priority queue with room for 2^m elements and
// the given less-or-equal predicate: leq(a, b) must report whether a sorts
// no later than b.
func NewPriorityQueue[T any](m int, leq func(a, b T) bool) *PriorityQueue[T] {
	cap := 1 << uint(m)
	h := make([]T, cap+1)
	return &PriorityQueue[T]{heap: h, leq: leq}
}

// Size returns the number of elements currently queued.
func (pq *PriorityQueue[T]) Size() int { return pq.size }

// Capacity returns the maximum number of elements the queue can hold before
// an Upscale is required.
func (pq *PriorityQueue[T]) Capacity() int { return len(pq.heap) - 1 }

// IsEmpty reports whether the queue holds no elements.
func (pq *PriorityQueue[T]) IsEmpty() bool { return pq.size == 0 }

// IsFull reports whether the queue is at capacity.
func (pq *PriorityQueue[T]) IsFull() bool { return pq.size == pq.Capacity() }

func (pq *PriorityQueue[T]) swap(i, j int) { pq.heap[i], pq.heap[j] = pq.heap[j], pq.heap[i] }

func (pq *PriorityQueue[T]) floatUp(i int) {
	for i > 1 {
		parent := i / 2
		if pq.leq(pq.heap[parent], pq.heap[i]) {
			break
		}
		pq.swap(parent, i)
		i = parent
	}
}

func (pq *PriorityQueue[T]) sinkDown(i int) {
	for {
		left, right := 2*i, 2*i+1
		smallest := i
		if left <= pq.size && pq.leq(pq.heap[left], pq.heap[smallest]) {
			smallest = left
		}
		if right <= pq.size && pq.leq(pq.heap[right], pq.heap[smallest]) {
			smallest = right
		}
		if smallest == i {
			return
		}
		pq.swap(i, smallest)
		i = smallest
	}
}

// Insert pushes v onto the queue. The caller must have checked !IsFull();
// Insert into a full queue returns ErrInternalBufferFullFilled.
func (pq *PriorityQueue[T]) Insert(v T) error {
	if pq.IsFull() {
		return newErr("priorityqueue.insert", ErrCodeInternalBufferFullFilled)
	}
	pq.size++
	pq.heap[pq.size] = v
	pq.floatUp(pq.size)
	return nil
}

// Shift removes and returns the minimum element. The caller must have
// checked !IsEmpty(); Shift on an empty queue returns ErrNoDataToParse and
// the zero value.
func (pq *PriorityQueue[T]) Shift() (T, error) {
	var zero T
	if pq.size == 0 {
		return zero, newErr("priorityqueue.shift", ErrCodeNoDataToParse)
	}
	top := pq.heap[1]
	pq.heap[1] = pq.heap[pq.size]
	pq.heap[pq.size] = zero
	pq.size--
	if pq.size > 0 {
		pq.sinkDown(1)
	}
	return top, nil
}

// Upscale grows capacity to 2^m elements if that exceeds the current
// capacity. It is a no-op otherwise.
func (pq *PriorityQueue[T]) Upscale(m int) {
	newCap := 1 << uint(m)
	if newCap <= pq.Capacity() {
		return
	}
	nh := make([]T, newCap+1)
	copy(nh, pq.heap[:pq.size+1])
	pq.heap = nh
}
