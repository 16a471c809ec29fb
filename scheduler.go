// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

import (
	"golang.org/x/sys/unix"

	"go.uber.org/zap"
)

// Scheduler is the single-threaded cooperative relay loop: one RunOnce call
// is one iteration of spec §4.I. It owns the connection list, the central
// server TX queue, and the readiness notifier; no other goroutine may touch
// any of them.
type Scheduler struct {
	notifier Notifier
	conns    *ConnList
	serverTX *PacketQueue
	byFD     map[int]*Conn
	cfg      Config
	log      *zap.Logger
}

// NewScheduler wires a notifier and config into an empty scheduler.
func NewScheduler(notifier Notifier, cfg Config, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		notifier: notifier,
		conns:    NewConnList(),
		serverTX: NewRingQueue[*Packet](cfg.ServerQueueDepth),
		byFD:     make(map[int]*Conn),
		cfg:      cfg,
		log:      log,
	}
}

// AddConn admits a connection, registers its fd for read readiness, and
// begins tracking it for scheduling.
func (s *Scheduler) AddConn(c *Conn) error {
	s.conns.Add(c)
	s.byFD[c.FD] = c
	c.readRegistered = true
	return s.notifier.Register(c.FD, true, false)
}

// Notifier exposes the scheduler's notifier so a caller layering its own
// descriptors (e.g. a listening socket) can share the same wait point.
func (s *Scheduler) Notifier() Notifier { return s.notifier }

// HandleEvent dispatches one observed readiness event to the relevant
// connection's read and/or write callback. Events for unknown fds (already
// torn down, or belonging to a caller-managed descriptor such as a
// listening socket) are ignored.
func (s *Scheduler) HandleEvent(ev NotifyEvent) {
	c, ok := s.byFD[ev.FD]
	if !ok {
		return
	}
	if ev.Readable || ev.Hup {
		s.readCallback(c)
	}
	if ev.Writable {
		s.writeCallback(c)
	}
}

// Settle runs the collect/distribute/write-emit/GC phases that close out an
// iteration after every observed event has been dispatched.
func (s *Scheduler) Settle() {
	s.collectRxQueue()
	if !s.serverTX.IsEmpty() {
		s.distributeTxQueue()
	}
	s.writeEmitPass()
	s.conns.GC()
}

// RunOnce executes exactly one scheduling iteration in isolation: wait,
// dispatch every event, then settle. Used directly by tests and by callers
// with no descriptors of their own to interleave (e.g. no listening
// socket).
func (s *Scheduler) RunOnce() error {
	events, err := s.notifier.WaitOnce(0)
	if err != nil {
		return wrapErr("scheduler.run_once", ErrCodeAllocFailed, err)
	}
	for _, ev := range events {
		s.HandleEvent(ev)
	}
	s.Settle()
	return nil
}

// readCallback drains and parses as much as the connection's readable
// descriptor and buffers currently allow.
func (s *Scheduler) readCallback(c *Conn) {
	for {
		if c.RXQueue.IsFull() {
			s.deregisterRead(c)
			return
		}

		progressed := s.fillReadBuf(c)
		if !progressed && c.readBuf.IsEmpty() {
			return
		}

		for !c.parser.ReadyToExtract() {
			room := c.readChunkSize
			if avail := c.readBuf.Size(); avail < room {
				room = avail
			}
			if room == 0 {
				break
			}
			chunk := make([]byte, room)
			n := c.readBuf.ReceiveChunk(chunk)
			chunk = chunk[:n]

			accepted, err := c.parser.SendChunk(chunk)
			if accepted < len(chunk) {
				c.readBuf.ReturnChunk(chunk[accepted:])
			}
			if err != nil {
				if IsCode(err, ErrCodeNeedMore) {
					goto needMore
				}
				if isFramingError(err) {
					s.log.Warn("framing error, tearing down connection",
						zap.Int("fd", c.FD), zap.Error(err))
					s.teardown(c)
					return
				}
			}
		}

		if c.parser.ReadyToExtract() {
			pkt, err := c.parser.ReceivePkt()
			if err == nil {
				if enqErr := c.RXQueue.Enqueue(pkt); enqErr != nil {
					s.deregisterRead(c)
					return
				}
				continue
			}
		}

	needMore:
		if !progressed {
			return
		}
	}
}

// fillReadBuf performs at most one non-blocking read syscall into the
// connection's read ring buffer, bounded by MAX_READ_CHUNK_SIZE and
// remaining capacity. It reports whether any bytes were read.
func (s *Scheduler) fillReadBuf(c *Conn) bool {
	room := c.readChunkSize
	if rem := c.readBuf.RemainingCapacity(); rem < room {
		room = rem
	}
	if room == 0 {
		return false
	}
	tmp := make([]byte, room)
	n, err := unix.Read(c.FD, tmp)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return false
		}
		s.log.Warn("read error, tearing down connection", zap.Int("fd", c.FD), zap.Error(err))
		s.teardown(c)
		return false
	}
	if n == 0 {
		s.teardown(c)
		return false
	}
	c.readBuf.SendChunk(tmp[:n])
	return true
}

func (s *Scheduler) deregisterRead(c *Conn) {
	if !c.readRegistered {
		return
	}
	c.readRegistered = false
	_ = s.notifier.Register(c.FD, false, c.writeRegistered)
}

func (s *Scheduler) deregisterWrite(c *Conn) {
	if !c.writeRegistered {
		return
	}
	c.writeRegistered = false
	_ = s.notifier.Register(c.FD, c.readRegistered, false)
}

// teardown detaches a connection's registrations and schedules it for
// removal; the actual removal and termination hook run on the next GC pass
// so the current traversal is unaffected.
func (s *Scheduler) teardown(c *Conn) {
	_ = s.notifier.Deregister(c.FD)
	delete(s.byFD, c.FD)
	s.conns.MarkDead(c)
}

// collectRxQueue builds a min-priority queue over readable connections
// keyed by ascending nr_received, then drains each connection's RX queue
// into the server TX queue in that order, so the least-served connection
// gets first claim on the limited server queue space.
func (s *Scheduler) collectRxQueue() {
	const initialExp = 8
	m := initialExp
	pq := NewPriorityQueue[*Conn](m, func(a, b *Conn) bool {
		return a.NrReceived() <= b.NrReceived()
	})
	for _, c := range s.conns.All() {
		if !c.Readable || c.RXQueue.IsEmpty() {
			continue
		}
		for pq.IsFull() {
			m++
			pq.Upscale(m)
		}
		_ = pq.Insert(c)
	}
	for !pq.IsEmpty() && !s.serverTX.IsFull() {
		c, err := pq.Shift()
		if err != nil {
			break
		}
		before := s.serverTX.Size()
		moved := TransferQueue(s.serverTX, c.RXQueue)
		c.nrReceived += uint64(moved)
		if moved > 0 && !c.RXQueue.IsEmpty() && !s.serverTX.IsFull() {
			_ = pq.Insert(c)
		}
		if s.serverTX.Size() == before && moved == 0 {
			continue
		}
		if !c.readRegistered && !c.RXQueue.IsFull() {
			c.readRegistered = true
			_ = s.notifier.Register(c.FD, true, c.writeRegistered)
		}
	}
}

// distributeTxQueue builds a min-priority queue over writable connections
// keyed by ascending nr_transmitted, then drains the server TX queue into
// each connection's TX queue in that order.
func (s *Scheduler) distributeTxQueue() {
	pq := NewPriorityQueue[*Conn](8, func(a, b *Conn) bool {
		return a.NrTransmitted() <= b.NrTransmitted()
	})
	for _, c := range s.conns.All() {
		if !c.Writable || !c.TXQueue.HasSpace() {
			continue
		}
		_ = pq.Insert(c)
	}
	for !pq.IsEmpty() && !s.serverTX.IsEmpty() {
		c, err := pq.Shift()
		if err != nil {
			break
		}
		moved := TransferQueue(c.TXQueue, s.serverTX)
		c.nrTransmitted += uint64(moved)
		if c.TXQueue.HasSpace() && !s.serverTX.IsEmpty() {
			_ = pq.Insert(c)
		}
	}
}

// writeEmitPass arms write-readiness registration for every connection that
// now has packets waiting to go out.
func (s *Scheduler) writeEmitPass() {
	for _, c := range s.conns.All() {
		if !c.Writable || (c.TXQueue.IsEmpty() && !c.serializer.ReadyToExtract()) {
			continue
		}
		if !c.writeRegistered {
			c.writeRegistered = true
			_ = s.notifier.Register(c.FD, c.readRegistered, true)
		}
	}
}

// writeCallback serializes queued packets and flushes bytes to the
// connection's writable descriptor.
func (s *Scheduler) writeCallback(c *Conn) {
	for {
		if c.TXQueue.IsEmpty() && !c.serializer.ReadyToExtract() {
			s.deregisterWrite(c)
			return
		}

		if !c.serializer.ReadyToExtract() {
			pkt, err := c.TXQueue.Dequeue()
			if err == nil {
				_ = c.serializer.SendPkt(pkt)
			}
		}

		for c.serializer.ReadyToExtract() {
			room := c.readChunkSize
			if rem := c.writeBuf.RemainingCapacity(); rem < room {
				room = rem
			}
			if room == 0 {
				break
			}
			chunk := make([]byte, room)
			n, err := c.serializer.ReceiveChunk(chunk)
			if err != nil || n == 0 {
				break
			}
			c.writeBuf.SendChunk(chunk[:n])
		}

		if c.writeBuf.IsEmpty() {
			if c.TXQueue.IsEmpty() && !c.serializer.ReadyToExtract() {
				s.deregisterWrite(c)
			}
			return
		}
		if !s.flushWriteBuf(c) {
			return
		}
	}
}

// flushWriteBuf performs at most one non-blocking write syscall from the
// connection's write ring buffer. It reports whether the caller should keep
// looping (true) or yield until the next readiness event (false).
func (s *Scheduler) flushWriteBuf(c *Conn) bool {
	room := c.readChunkSize
	if sz := c.writeBuf.Size(); sz < room {
		room = sz
	}
	tmp := make([]byte, room)
	peeked := c.writeBuf.ReceiveChunk(tmp)
	n, err := unix.Write(c.FD, tmp[:peeked])
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			c.writeBuf.ReturnChunk(tmp[:peeked])
			return false
		}
		s.log.Warn("write error, tearing down connection", zap.Int("fd", c.FD), zap.Error(err))
		s.teardown(c)
		return false
	}
	if n < peeked {
		c.writeBuf.ReturnChunk(tmp[n:peeked])
	}
	if n == 0 {
		s.teardown(c)
		return false
	}
	return true
}
