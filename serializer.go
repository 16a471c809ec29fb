// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

// magic is the fixed 8-byte frame marker that opens every packet on the
// wire.
var magic = [8]byte{0x01, 0x02, 0x03, 0x04, 0x01, 0x02, 0x03, 0x04}

// Serializer turns a Packet into its on-wire byte representation and hands
// it out in caller-sized chunks. send_pkt is atomic: either the whole frame
// lands in the internal blob or none of it does.
type Serializer struct {
	buf        *Blob
	fulfilled  bool
	readOffset int
}

// NewSerializer allocates a serializer with the given internal blob
// starting capacity.
func NewSerializer(initialCapacity int) *Serializer {
	return &Serializer{buf: NewBlob(initialCapacity)}
}

// SendPkt encodes p into the internal blob. Fails with
// ErrInternalBufferFullFilled if a previously encoded frame has not yet been
// fully drained via ReceiveChunk.
func (s *Serializer) SendPkt(p *Packet) error {
	if s.fulfilled {
		return newErr("serializer.send_pkt", ErrCodeInternalBufferFullFilled)
	}
	total := 8 + 4 + 4 + len(p.sender) + 4 + len(p.receiver) + 4 + p.body.Size()
	if total > MaxPacketSize {
		return newErr("serializer.send_pkt", ErrCodePacketTooBig)
	}
	s.buf.Clear()
	var hdr [4]byte

	s.buf.SendChunk(magic[:])

	putUint32(hdr[:], uint32(p.typ))
	s.buf.SendChunk(hdr[:])

	putUint32(hdr[:], uint32(len(p.sender)))
	s.buf.SendChunk(hdr[:])
	s.buf.SendChunk(p.sender)

	putUint32(hdr[:], uint32(len(p.receiver)))
	s.buf.SendChunk(hdr[:])
	s.buf.SendChunk(p.receiver)

	putUint32(hdr[:], uint32(p.body.Size()))
	s.buf.SendChunk(hdr[:])

	var window [512]byte
	for offset := 0; offset < p.BodySize(); {
		n := p.BodyReceiveChunk(window[:], offset)
		if n == 0 {
			break
		}
		s.buf.SendChunk(window[:n])
		offset += n
	}

	s.fulfilled = true
	s.readOffset = 0
	return nil
}

// ReadyToExtract reports whether a fully encoded frame is waiting to be
// drained.
func (s *Serializer) ReadyToExtract() bool { return s.fulfilled }

// ReceiveChunk copies up to len(dst) bytes of the pending frame into dst and
// returns the number copied. Fails with ErrNotReadyToExtract if SendPkt has
// not been called since the last frame finished draining. When the frame is
// fully drained (a call returns 0 with no more data pending), internal state
// resets to empty/unfulfilled so the next SendPkt can proceed.
func (s *Serializer) ReceiveChunk(dst []byte) (int, error) {
	if !s.fulfilled {
		return 0, newErr("serializer.receive_chunk", ErrCodeNotReadyToExtract)
	}
	k := s.buf.ReceiveChunk(dst, s.readOffset)
	if k == 0 {
		s.fulfilled = false
		s.buf.Clear()
		s.readOffset = 0
		return 0, nil
	}
	s.readOffset += k
	return k, nil
}
