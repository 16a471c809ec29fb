// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

import "encoding/binary"

// On-wire size limits, fixed by the protocol (spec.md §6).
const (
	MaxHeaderValueSize = 1 << 10 // 1024
	MaxBodySize        = 1 << 20 // 2^20
	MaxPacketSize      = 1 << 21 // 2^21, total framed packet size
)

// PktType is the packet's type tag. Only PktTyMsg is defined; the field is
// reserved for protocol extension.
type PktType uint32

const (
	PktTyMsg PktType = 0
)

// HeaderField identifies a settable/gettable header field on a Packet.
type HeaderField int

const (
	FieldSender HeaderField = iota
	FieldReceiver
	FieldContentLength
)

// Packet is the protocol data unit: a type tag, sender/receiver header
// values, and a growable body. Sender and receiver may be zero-length but
// are always present; body may be zero-length.
type Packet struct {
	typ      PktType
	sender   []byte
	receiver []byte
	body     *Blob
}

// NewPacket creates an empty packet of the given type.
func NewPacket(typ PktType) *Packet {
	return &Packet{typ: typ, body: NewBlob(blobAlignment)}
}

// Type returns the packet's type tag.
func (p *Packet) Type() PktType { return p.typ }

// SetType sets the packet's type tag. Only PktTyMsg is currently supported.
func (p *Packet) SetType(typ PktType) error {
	switch typ {
	case PktTyMsg:
		p.typ = typ
		return nil
	default:
		return newErr("packet.set_type", ErrCodeNonSupportedMsgType)
	}
}

// HeaderSet sets the value of field to a copy of value. Sender/receiver
// values longer than MaxHeaderValueSize are rejected.
func (p *Packet) HeaderSet(field HeaderField, value []byte) error {
	if len(value) > MaxHeaderValueSize {
		return newErr("packet.header_set", ErrCodeSizeTooLarge)
	}
	switch field {
	case FieldSender:
		p.sender = append([]byte(nil), value...)
		return nil
	case FieldReceiver:
		p.receiver = append([]byte(nil), value...)
		return nil
	default:
		return newErr("packet.header_set", ErrCodeNonSupportedField)
	}
}

// HeaderGet copies the value of field into buf, which must be at least
// MaxHeaderValueSize bytes, and returns the number of bytes written. For
// FieldContentLength, buf receives the current body size as a native-width
// integer rather than a wire-format field.
func (p *Packet) HeaderGet(field HeaderField, buf []byte) (int, error) {
	if len(buf) < MaxHeaderValueSize {
		return 0, newErr("packet.header_get", ErrCodeTooSmallBuffer)
	}
	switch field {
	case FieldSender:
		return copy(buf, p.sender), nil
	case FieldReceiver:
		return copy(buf, p.receiver), nil
	case FieldContentLength:
		binary.NativeEndian.PutUint32(buf, uint32(p.body.Size()))
		return 4, nil
	default:
		return 0, newErr("packet.header_get", ErrCodeNonSupportedField)
	}
}

// Sender returns the packet's sender header value. The returned slice
// aliases internal storage.
func (p *Packet) Sender() []byte { return p.sender }

// Receiver returns the packet's receiver header value. The returned slice
// aliases internal storage.
func (p *Packet) Receiver() []byte { return p.receiver }

// BodySize returns the current number of committed body bytes.
func (p *Packet) BodySize() int { return p.body.Size() }

// Body returns the committed body bytes. The returned slice aliases
// internal storage.
func (p *Packet) Body() []byte { return p.body.Bytes() }

// BodySendChunk appends buf to the packet's body. Fails with ErrBodyTooLarge
// if the resulting body would exceed MaxBodySize.
func (p *Packet) BodySendChunk(buf []byte) error {
	if p.body.Size()+len(buf) > MaxBodySize {
		return newErr("packet.body_send_chunk", ErrCodeBodyTooLarge)
	}
	p.body.SendChunk(buf)
	return nil
}

// BodyReceiveChunk copies a window [offset, offset+k) of the body into buf
// and returns k. See Blob.ReceiveChunk.
func (p *Packet) BodyReceiveChunk(buf []byte, offset int) int {
	return p.body.ReceiveChunk(buf, offset)
}

func putUint32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }

func getUint32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
