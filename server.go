// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hsiaofongw/relayd/internal/notify"
)

// Server owns a listening TCP socket and a Scheduler, and is the process's
// sole event loop driver. Construction creates resources but registers no
// interests; Run binds, listens, and loops until ctx is cancelled.
type Server struct {
	cfg   Config
	log   *zap.Logger
	sched *Scheduler

	ln       *net.TCPListener
	lnFD     int
	notifier Notifier
}

// NewServer builds a server bound to cfg, with its own epoll notifier
// unless WithNotifier overrides it. It performs no network I/O yet.
func NewServer(cfg Config, opts ...ServerOption) (*Server, error) {
	o := &serverOptions{}
	for _, opt := range opts {
		opt(o)
	}
	log := o.log
	if log == nil {
		log = zap.NewNop()
	}
	notifier := o.notifier
	if notifier == nil {
		poller, err := notify.NewPoller()
		if err != nil {
			return nil, wrapErr("server.new", ErrCodeAllocFailed, err)
		}
		notifier = poller
	}
	return &Server{
		cfg:      cfg,
		log:      log,
		sched:    NewScheduler(notifier, cfg, log),
		notifier: notifier,
	}, nil
}

// listenerFD extracts the raw file descriptor backing ln without
// relinquishing ln's ownership of it (no Close is ever called on the
// syscall.RawConn side; ln.Close still closes the real fd later).
func listenerFD(ln *net.TCPListener) (int, error) {
	raw, err := ln.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd int
	ctrlErr := raw.Control(func(fdv uintptr) { fd = int(fdv) })
	if ctrlErr != nil {
		return 0, ctrlErr
	}
	return fd, nil
}

// Run binds to 0.0.0.0:port, then loops handling accepts and relay
// scheduling until ctx is cancelled or a fatal error occurs.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{Port: s.cfg.ListenPort})
	if err != nil {
		return fmt.Errorf("relay: listen on port %d: %w", s.cfg.ListenPort, err)
	}
	s.ln = ln
	defer ln.Close()

	fd, err := listenerFD(ln)
	if err != nil {
		return fmt.Errorf("relay: extract listener fd: %w", err)
	}
	s.lnFD = fd

	if err := s.notifier.Register(fd, true, false); err != nil {
		return fmt.Errorf("relay: register listener: %w", err)
	}
	defer s.notifier.Deregister(fd)
	defer s.notifier.Close()

	// Cancelling ctx does not interrupt a blocked WaitOnce by itself; a
	// throwaway loopback connection makes the listener readable so the loop
	// wakes and sees ctx.Done.
	stopWake := context.AfterFunc(ctx, func() {
		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(ln.Addr().(*net.TCPAddr).Port))
		if c, err := net.Dial("tcp", addr); err == nil {
			c.Close()
		}
	})
	defer stopWake()

	s.log.Info("listening", zap.Int("port", s.cfg.ListenPort))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("shutting down")
			return nil
		default:
		}

		events, err := s.notifier.WaitOnce(0)
		if err != nil {
			return wrapErr("server.run", ErrCodeAllocFailed, err)
		}

		for _, ev := range events {
			if ev.FD == s.lnFD {
				s.acceptAll()
				continue
			}
			s.sched.HandleEvent(ev)
		}
		s.sched.Settle()
	}
}

// acceptAll drains the listener's accept backlog, admitting every pending
// connection as a non-blocking Conn registered with the scheduler.
func (s *Server) acceptAll() {
	// AcceptTCP parks until a connection arrives; a short deadline makes it
	// return a timeout once the backlog is drained.
	_ = s.ln.SetDeadline(time.Now().Add(time.Millisecond))
	for {
		conn, err := s.ln.AcceptTCP()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return
			}
			return
		}
		if err := conn.SetNoDelay(true); err != nil {
			s.log.Warn("setnodelay failed", zap.Error(err))
		}

		// tcpConnFD dups the descriptor so conn and the duplicate have
		// independent lifetimes; conn is closed immediately afterward and
		// the duplicate is what the scheduler drives directly with raw
		// reads/writes.
		remote := conn.RemoteAddr().String()
		fd, closeFD, err := tcpConnFD(conn)
		conn.Close()
		if err != nil {
			s.log.Warn("dup fd failed", zap.Error(err))
			continue
		}

		c := NewConn(fd, s.cfg)
		c.OnTerminate = func(c *Conn) {
			closeFD()
		}
		if err := s.sched.AddConn(c); err != nil {
			s.log.Warn("register conn failed", zap.Error(err))
			closeFD()
			continue
		}
		s.log.Debug("accepted connection", zap.Int("fd", fd), zap.String("remote", remote))
	}
}
