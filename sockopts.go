// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

import (
	"net"

	"golang.org/x/sys/unix"
)

// tcpConnFD extracts the raw, independently-owned file descriptor backing
// conn via File()'s dup semantics, sets it non-blocking, and returns it
// along with a closer that closes the duplicate; the *os.File holding it
// stays alive until the closer runs. conn itself is left for the caller to
// close.
func tcpConnFD(conn *net.TCPConn) (fd int, closer func() error, err error) {
	f, err := conn.File()
	if err != nil {
		return 0, nil, err
	}
	fd = int(f.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		f.Close()
		return 0, nil, err
	}
	return fd, f.Close, nil
}

// TuneClientSocket applies the socket options a dialed outbound connection
// should carry: Nagle disabled, matching the server's accept-side tuning.
func TuneClientSocket(conn *net.TCPConn) error {
	return conn.SetNoDelay(true)
}
