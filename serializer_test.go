// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializerReceiveChunkBeforeSendPktFails(t *testing.T) {
	s := NewSerializer(64)
	_, err := s.ReceiveChunk(make([]byte, 8))
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeNotReadyToExtract))
}

func TestSerializerSecondSendPktBeforeDrainFails(t *testing.T) {
	s := NewSerializer(64)
	require.NoError(t, s.SendPkt(mustPacket(t, "a", "b", "x")))

	err := s.SendPkt(mustPacket(t, "c", "d", "y"))
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeInternalBufferFullFilled))
}

func TestSerializerRejectsOversizedPacket(t *testing.T) {
	p := NewPacket(PktTyMsg)
	// A body within MaxBodySize always fits in MaxPacketSize, so write the
	// blob directly, past BodySendChunk's limit, to build an oversized frame.
	p.body.SendChunk(make([]byte, MaxPacketSize))
	require.Greater(t, p.BodySize(), MaxBodySize)

	s := NewSerializer(64)
	err := s.SendPkt(p)
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodePacketTooBig))
}

func TestSerializerReceiveChunkDrainsThenResets(t *testing.T) {
	s := NewSerializer(64)
	p := mustPacket(t, "alice", "bob", "hello")
	require.NoError(t, s.SendPkt(p))
	require.True(t, s.ReadyToExtract())

	var out []byte
	buf := make([]byte, 5)
	for {
		n, err := s.ReceiveChunk(buf)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		out = append(out, buf[:n]...)
	}
	require.False(t, s.ReadyToExtract())

	parser := NewParser(1 << 12)
	_, err := parser.SendChunk(out)
	require.NoError(t, err)
	got, err := parser.ReceivePkt()
	require.NoError(t, err)
	require.Equal(t, "alice", string(got.Sender()))
	require.Equal(t, "bob", string(got.Receiver()))
	require.Equal(t, "hello", string(got.Body()))
}

func TestSerializerCanSendAgainAfterFullDrain(t *testing.T) {
	s := NewSerializer(64)
	require.NoError(t, s.SendPkt(mustPacket(t, "a", "b", "first")))

	buf := make([]byte, 1024)
	for {
		n, err := s.ReceiveChunk(buf)
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}

	err := s.SendPkt(mustPacket(t, "c", "d", "second"))
	require.NoError(t, err)
	require.True(t, s.ReadyToExtract())
}
