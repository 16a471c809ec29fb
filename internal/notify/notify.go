// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package notify provides the readiness-notification abstraction the relay
// scheduler suspends on. Event loop semantics vary by platform; Poller is
// the Linux epoll implementation, Stub is an in-memory implementation for
// tests that never touches a real descriptor table.
package notify

// Event reports one descriptor's readiness state as observed by a single
// WaitOnce call.
type Event struct {
	FD       int
	Readable bool
	Writable bool
	// Hup reports a peer hangup or descriptor error, observed alongside (or
	// instead of) read/write readiness depending on the platform.
	Hup bool
}

// Notifier is the scheduler's sole suspension point: WaitOnce blocks, with
// no timeout, until at least one registered descriptor is ready, then
// returns the events observed. Register/Deregister manage
// interest per descriptor per direction; Pending reports current interest.
type Notifier interface {
	// WaitOnce blocks for at most one readiness batch and returns the
	// events observed. budget caps how many events a single call returns;
	// callers pass 0 for "as many as arrived".
	WaitOnce(budget int) ([]Event, error)

	// Register arms interest in fd for the given directions, creating the
	// registration if it does not yet exist. Calling Register again with
	// different directions updates the existing registration.
	Register(fd int, read, write bool) error

	// Deregister removes all interest in fd. It is not an error to
	// deregister a descriptor with no current registration.
	Deregister(fd int) error

	// Pending reports which directions are currently registered for fd.
	Pending(fd int) (read, write bool)

	// Close releases the notifier's own resources (e.g. the epoll fd).
	Close() error
}
