// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package notify

// Stub is an in-memory Notifier for tests: WaitOnce returns whatever has
// been queued via Push, without touching any real descriptor table.
type Stub struct {
	interest map[int]uint32
	queued   []Event
}

// NewStub allocates an empty stub notifier.
func NewStub() *Stub {
	return &Stub{interest: make(map[int]uint32)}
}

const (
	stubRead  uint32 = 1 << 0
	stubWrite uint32 = 1 << 1
)

// Register implements Notifier.
func (s *Stub) Register(fd int, read, write bool) error {
	var mask uint32
	if read {
		mask |= stubRead
	}
	if write {
		mask |= stubWrite
	}
	if mask == 0 {
		delete(s.interest, fd)
		return nil
	}
	s.interest[fd] = mask
	return nil
}

// Deregister implements Notifier.
func (s *Stub) Deregister(fd int) error {
	delete(s.interest, fd)
	return nil
}

// Pending implements Notifier.
func (s *Stub) Pending(fd int) (read, write bool) {
	mask := s.interest[fd]
	return mask&stubRead != 0, mask&stubWrite != 0
}

// Push queues an event to be returned by the next WaitOnce call, regardless
// of whether Register was called for its fd (tests drive scenarios
// directly).
func (s *Stub) Push(ev Event) { s.queued = append(s.queued, ev) }

// WaitOnce implements Notifier: it drains and returns whatever was queued
// via Push, up to budget events (0 means unlimited).
func (s *Stub) WaitOnce(budget int) ([]Event, error) {
	if budget <= 0 || budget > len(s.queued) {
		budget = len(s.queued)
	}
	out := s.queued[:budget]
	s.queued = s.queued[budget:]
	return out, nil
}

// Close implements Notifier.
func (s *Stub) Close() error { return nil }
