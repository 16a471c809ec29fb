// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStubRegisterTracksPendingInterest(t *testing.T) {
	s := NewStub()
	require.NoError(t, s.Register(5, true, false))
	read, write := s.Pending(5)
	require.True(t, read)
	require.False(t, write)

	require.NoError(t, s.Register(5, true, true))
	read, write = s.Pending(5)
	require.True(t, read)
	require.True(t, write)
}

func TestStubRegisterWithNeitherDirectionDeregisters(t *testing.T) {
	s := NewStub()
	require.NoError(t, s.Register(5, true, true))
	require.NoError(t, s.Register(5, false, false))
	read, write := s.Pending(5)
	require.False(t, read)
	require.False(t, write)
}

func TestStubDeregisterIsNoopOnUnknownFD(t *testing.T) {
	s := NewStub()
	require.NoError(t, s.Deregister(42))
}

func TestStubWaitOnceDrainsQueuedEventsInOrder(t *testing.T) {
	s := NewStub()
	s.Push(Event{FD: 1, Readable: true})
	s.Push(Event{FD: 2, Writable: true})

	events, err := s.WaitOnce(0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, 1, events[0].FD)
	require.Equal(t, 2, events[1].FD)

	events, err = s.WaitOnce(0)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestStubWaitOnceRespectsBudget(t *testing.T) {
	s := NewStub()
	s.Push(Event{FD: 1})
	s.Push(Event{FD: 2})
	s.Push(Event{FD: 3})

	events, err := s.WaitOnce(2)
	require.NoError(t, err)
	require.Len(t, events, 2)

	events, err = s.WaitOnce(0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, 3, events[0].FD)
}
