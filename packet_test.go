package relay

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketHeaderSetGetRoundTrip(t *testing.T) {
	p := NewPacket(PktTyMsg)
	require.NoError(t, p.HeaderSet(FieldSender, []byte("alice")))
	require.NoError(t, p.HeaderSet(FieldReceiver, []byte("bob")))
	require.Equal(t, "alice", string(p.Sender()))
	require.Equal(t, "bob", string(p.Receiver()))
}

func TestPacketHeaderSetRejectsOversizedValue(t *testing.T) {
	p := NewPacket(PktTyMsg)
	oversized := bytes.Repeat([]byte("x"), MaxHeaderValueSize+1)
	err := p.HeaderSet(FieldSender, oversized)
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeSizeTooLarge))
}

func TestPacketHeaderGetRejectsSmallBuffer(t *testing.T) {
	p := NewPacket(PktTyMsg)
	_, err := p.HeaderGet(FieldSender, make([]byte, 8))
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeTooSmallBuffer))
}

func TestPacketHeaderGetUnknownField(t *testing.T) {
	p := NewPacket(PktTyMsg)
	_, err := p.HeaderGet(HeaderField(999), make([]byte, MaxHeaderValueSize))
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeNonSupportedField))
}

func TestPacketBodySendChunkRejectsOverBodyLimit(t *testing.T) {
	p := NewPacket(PktTyMsg)
	require.NoError(t, p.BodySendChunk(bytes.Repeat([]byte("a"), MaxBodySize)))
	err := p.BodySendChunk([]byte("x"))
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeBodyTooLarge))
}

func TestPacketSetTypeRejectsUnknown(t *testing.T) {
	p := NewPacket(PktTyMsg)
	err := p.SetType(PktType(7))
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeNonSupportedMsgType))
}
