// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

// parserState enumerates the incremental frame-decode states, in the order
// fields appear on the wire.
type parserState int

const (
	ExpectMagic parserState = iota
	ExpectType
	ExpectSenderLen
	ExpectSender
	ExpectReceiverLen
	ExpectReceiver
	ExpectContentLen
	ExpectBody
)

// Parser incrementally decodes a byte stream into Packets. It owns an
// internal ring buffer that bytes are ingested into before the state
// machine advances over them; bytes never need to be re-delivered by the
// caller.
type Parser struct {
	ring *RingBuf

	state         parserState
	senderLen     uint32
	receiverLen   uint32
	bodyRemaining uint32

	pkt      *Packet
	parsed   bool
	needMore int
}

// NewParser allocates a parser with an internal ring buffer of the given
// byte capacity.
func NewParser(ringCapacity int) *Parser {
	return &Parser{ring: NewRingBuf(ringCapacity), state: ExpectMagic}
}

// needBytes reports the number of additional bytes required before the
// current state can make progress, or 0 if enough are already available.
func needBytes(have, want int) int {
	if have >= want {
		return 0
	}
	return want - have
}

// SendChunk ingests up to len(buf) bytes (bounded by the internal ring's
// remaining capacity) and advances the state machine as far as possible.
// accepted reports how many bytes of buf were actually consumed into the
// ring; if accepted < len(buf), the caller must retain the unconsumed tail
// (e.g. via RingBuf.ReturnChunk on its own buffer) and resubmit it later.
//
// Returns nil once a complete packet has been assembled (ReceivePkt is then
// ready), or ErrNeedMore with more bytes required communicated by the
// caller reading NeedMore(), or a framing error.
func (p *Parser) SendChunk(buf []byte) (accepted int, err error) {
	if p.parsed {
		return 0, newErr("parser.send_chunk", ErrCodeExtractParsedPacketFirst)
	}
	if len(buf) == 0 && p.ring.IsEmpty() {
		return 0, newErr("parser.send_chunk", ErrCodeNoDataToParse)
	}

	room := p.ring.RemainingCapacity()
	n := len(buf)
	if n > room {
		n = room
	}
	if n > 0 {
		p.ring.SendChunk(buf[:n])
	}
	accepted = n

	err = p.advance()
	return accepted, err
}

// needMoreErr records the byte deficit and returns ErrNeedMore.
func (p *Parser) needMoreErr(deficit int) error {
	p.needMore = deficit
	return wrapErr("parser.advance", ErrCodeNeedMore, nil)
}

func (p *Parser) advance() error {
	for {
		switch p.state {
		case ExpectMagic:
			if need := needBytes(p.ring.Size(), 8); need > 0 {
				return p.needMoreErr(need)
			}
			var got [8]byte
			p.ring.ReceiveChunk(got[:])
			if got != magic {
				return newErr("parser.advance", ErrCodeMagicWordsMisMatch)
			}
			p.state = ExpectType

		case ExpectType:
			if need := needBytes(p.ring.Size(), 4); need > 0 {
				return p.needMoreErr(need)
			}
			var raw [4]byte
			p.ring.ReceiveChunk(raw[:])
			typ := PktType(getUint32(raw[:]))
			if typ != PktTyMsg {
				return newErr("parser.advance", ErrCodeNonSupportedMsgType)
			}
			p.pkt = NewPacket(typ)
			p.state = ExpectSenderLen

		case ExpectSenderLen:
			if need := needBytes(p.ring.Size(), 4); need > 0 {
				return p.needMoreErr(need)
			}
			var raw [4]byte
			p.ring.ReceiveChunk(raw[:])
			v := getUint32(raw[:])
			if v > MaxHeaderValueSize {
				return newErr("parser.advance", ErrCodeInvalidHeaderValue)
			}
			p.senderLen = v
			p.state = ExpectSender

		case ExpectSender:
			want := int(p.senderLen)
			if need := needBytes(p.ring.Size(), want); need > 0 {
				return p.needMoreErr(need)
			}
			buf := make([]byte, want)
			p.ring.ReceiveChunk(buf)
			_ = p.pkt.HeaderSet(FieldSender, buf)
			p.state = ExpectReceiverLen

		case ExpectReceiverLen:
			if need := needBytes(p.ring.Size(), 4); need > 0 {
				return p.needMoreErr(need)
			}
			var raw [4]byte
			p.ring.ReceiveChunk(raw[:])
			v := getUint32(raw[:])
			if v > MaxHeaderValueSize {
				return newErr("parser.advance", ErrCodeInvalidHeaderValue)
			}
			p.receiverLen = v
			p.state = ExpectReceiver

		case ExpectReceiver:
			want := int(p.receiverLen)
			if need := needBytes(p.ring.Size(), want); need > 0 {
				return p.needMoreErr(need)
			}
			buf := make([]byte, want)
			p.ring.ReceiveChunk(buf)
			_ = p.pkt.HeaderSet(FieldReceiver, buf)
			p.state = ExpectContentLen

		case ExpectContentLen:
			if need := needBytes(p.ring.Size(), 4); need > 0 {
				return p.needMoreErr(need)
			}
			var raw [4]byte
			p.ring.ReceiveChunk(raw[:])
			v := getUint32(raw[:])
			if v > MaxBodySize {
				return newErr("parser.advance", ErrCodeBodyTooLarge)
			}
			p.bodyRemaining = v
			p.state = ExpectBody

		case ExpectBody:
			if p.bodyRemaining == 0 {
				p.parsed = true
				p.state = ExpectMagic
				return nil
			}
			avail := p.ring.Size()
			if avail > int(p.bodyRemaining) {
				avail = int(p.bodyRemaining)
			}
			if avail > 0 {
				chunk := make([]byte, avail)
				p.ring.ReceiveChunk(chunk)
				_ = p.pkt.BodySendChunk(chunk)
				p.bodyRemaining -= uint32(avail)
			}
			if p.bodyRemaining > 0 {
				need := int(p.bodyRemaining)
				if need > p.ring.Capacity() {
					need = p.ring.Capacity()
				}
				return p.needMoreErr(need)
			}
			// loop once more: bodyRemaining==0 now finalizes the packet.
		}
	}
}

// NeedMore returns the byte deficit reported by the most recent ErrNeedMore
// result from SendChunk.
func (p *Parser) NeedMore() int { return p.needMore }

// ReadyToExtract reports whether a fully parsed packet is waiting.
func (p *Parser) ReadyToExtract() bool { return p.parsed }

// ReceivePkt transfers ownership of the assembled packet out and resets the
// parser to accept a new one. Fails with ErrParsingIsIncomplete if no packet
// is ready.
func (p *Parser) ReceivePkt() (*Packet, error) {
	if !p.parsed {
		return nil, newErr("parser.receive_pkt", ErrCodeParsingIsIncomplete)
	}
	out := p.pkt
	p.pkt = nil
	p.parsed = false
	return out, nil
}
