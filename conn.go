// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

// Tunables governing per-connection buffer and queue sizing (spec.md §4.I,
// §6). Config can override these at server construction time; these are
// the shipped defaults.
const (
	DefaultMaxReadBuf          = 1 << 10       // 1 KiB
	DefaultMaxWriteBufPerConn  = 32 << 20       // 32 MiB
	DefaultMaxReadChunkSize    = 128
	DefaultConnQueueDepth      = 16
	DefaultParserRingCapacity  = 1 << 12 // 4 KiB, fixed; longer bodies are consumed in ring-sized pieces
	DefaultSerializerBlobBytes = 1 << 12
)

// Conn is the per-connection state the scheduler operates on: buffers,
// codec contexts, and the packet queues that feed the fairness scheduler.
// Conn never blocks and never spawns goroutines; all mutation happens from
// the single scheduler loop.
type Conn struct {
	FD int

	readBuf  *RingBuf
	writeBuf *RingBuf

	parser     *Parser
	serializer *Serializer

	RXQueue *PacketQueue
	TXQueue *PacketQueue

	nrReceived    uint64
	nrTransmitted uint64

	// Readable and Writable gate the collect/distribute passes independently
	// of readiness registration, mirroring the original conn_ctx's readable
	// and writable flags: a connection can be excluded from one direction
	// (e.g. a half-closed socket) while remaining registered in the other.
	Readable bool
	Writable bool

	readRegistered  bool
	writeRegistered bool

	readChunkSize int

	// OnTerminate is called by ConnList.GC as a connection marked dead by
	// the scheduler's teardown is dropped from the list, whatever caused the
	// teardown (EOF, a read or write error, or a framing error). Its
	// readiness registrations have already been released; its fd is still
	// open, and closing it is left to the hook.
	OnTerminate func(c *Conn)
}

// NewConn allocates connection state around an already-accepted,
// non-blocking file descriptor. It registers no readiness interests; the
// caller (server bootstrap) does that once the connection is admitted.
func NewConn(fd int, cfg Config) *Conn {
	return &Conn{
		FD:            fd,
		readBuf:       NewRingBuf(int(cfg.MaxReadBuf)),
		writeBuf:      NewRingBuf(int(cfg.MaxWriteBufPerConn)),
		parser:        NewParser(cfg.ParserRingCapacity),
		serializer:    NewSerializer(cfg.SerializerBlobBytes),
		RXQueue:       NewRingQueue[*Packet](cfg.ConnQueueDepth),
		TXQueue:       NewRingQueue[*Packet](cfg.ConnQueueDepth),
		readChunkSize: cfg.MaxReadChunkSize,
		Readable:      true,
		Writable:      true,
	}
}

// NrReceived is the number of packets this connection has contributed into
// the server TX queue so far; used as the fairness key when collecting.
func (c *Conn) NrReceived() uint64 { return c.nrReceived }

// NrTransmitted is the number of packets distributed from the server TX
// queue into this connection's TX queue so far; used as the fairness key
// when distributing.
func (c *Conn) NrTransmitted() uint64 { return c.nrTransmitted }
