// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
//go:build linux

package notify

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Poller is a level-triggered epoll notifier. One iteration of the relay
// scheduler corresponds to one WaitOnce call.
type Poller struct {
	epfd int
	// interest mirrors what's currently armed per fd, since epoll_ctl
	// requires EPOLL_CTL_MOD/ADD/DEL to be chosen correctly rather than
	// inferred from the kernel.
	interest map[int]uint32
	events   []unix.EpollEvent
}

// NewPoller creates an epoll instance.
func NewPoller() (*Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("notify: epoll_create1: %w", err)
	}
	return &Poller{
		epfd:     fd,
		interest: make(map[int]uint32),
		events:   make([]unix.EpollEvent, 256),
	}, nil
}

func eventMask(read, write bool) uint32 {
	var m uint32
	if read {
		m |= unix.EPOLLIN
	}
	if write {
		m |= unix.EPOLLOUT
	}
	return m
}

// Register implements Notifier.
func (p *Poller) Register(fd int, read, write bool) error {
	mask := eventMask(read, write)
	ev := unix.EpollEvent{Events: mask, Fd: int32(fd)}
	op := unix.EPOLL_CTL_ADD
	if _, exists := p.interest[fd]; exists {
		op = unix.EPOLL_CTL_MOD
	}
	if mask == 0 {
		return p.Deregister(fd)
	}
	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return fmt.Errorf("notify: epoll_ctl fd=%d: %w", fd, err)
	}
	p.interest[fd] = mask
	return nil
}

// Deregister implements Notifier.
func (p *Poller) Deregister(fd int) error {
	if _, ok := p.interest[fd]; !ok {
		return nil
	}
	delete(p.interest, fd)
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("notify: epoll_ctl del fd=%d: %w", fd, err)
	}
	return nil
}

// Pending implements Notifier.
func (p *Poller) Pending(fd int) (read, write bool) {
	mask := p.interest[fd]
	return mask&unix.EPOLLIN != 0, mask&unix.EPOLLOUT != 0
}

// WaitOnce implements Notifier. It blocks until at least one descriptor is
// ready, equivalent to EVLOOP_ONCE: no timeout, no polling loop. A wait
// interrupted by a signal (EINTR) returns an empty batch and no error.
func (p *Poller) WaitOnce(budget int) ([]Event, error) {
	if budget <= 0 || budget > len(p.events) {
		budget = len(p.events)
	}
	n, err := unix.EpollWait(p.epfd, p.events[:budget], -1)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("notify: epoll_wait: %w", err)
	}
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		e := p.events[i]
		out = append(out, Event{
			FD:       int(e.Fd),
			Readable: e.Events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0,
			Writable: e.Events&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0,
			Hup:      e.Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0,
		})
	}
	return out, nil
}

// Close implements Notifier.
func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}
