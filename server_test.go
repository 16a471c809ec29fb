// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestServerRelaysPacketBackToSender drives the real epoll-backed Server
// end to end over a loopback TCP connection: with a single connected
// client, the scheduler's collect/distribute passes have nowhere to send a
// packet but back to its own sender, so a full round trip is observable
// without a second peer.
func TestServerRelaysPacketBackToSender(t *testing.T) {
	cfg := Config{ListenPort: 0}
	cfg.ApplyDefaults()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	cfg.ListenPort = port

	srv, err := NewServer(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(port))
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	pkt := mustPacket(t, "alice", "bob", "round trip payload")
	wire := serializeAll(t, pkt)
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = conn.Write(wire)
	require.NoError(t, err)

	parser := NewParser(1 << 12)
	buf := make([]byte, 256)
	for !parser.ReadyToExtract() {
		n, rerr := conn.Read(buf)
		require.NoError(t, rerr)
		_, perr := parser.SendChunk(buf[:n])
		if perr != nil && !IsCode(perr, ErrCodeNeedMore) {
			require.NoError(t, perr)
		}
	}
	got, err := parser.ReceivePkt()
	require.NoError(t, err)
	require.Equal(t, "alice", string(got.Sender()))
	require.Equal(t, "bob", string(got.Receiver()))
	require.Equal(t, "round trip payload", string(got.Body()))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
