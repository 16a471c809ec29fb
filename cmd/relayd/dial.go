// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/spf13/cobra"

	"github.com/hsiaofongw/relayd"
)

const maxUsernameLen = 32

var (
	dialAddr    string
	dialRetries uint
)

var dialCmd = &cobra.Command{
	Use:   "dial <username>",
	Short: "Client-mode scaffold: connect and identify as username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		if len(username) > maxUsernameLen {
			return fmt.Errorf("username %q exceeds %d bytes", username, maxUsernameLen)
		}
		if dialAddr == "" {
			return fmt.Errorf("-c <host>:<port> is required")
		}
		conn, err := dialWithBackoff(cmd.Context(), dialAddr, dialRetries)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", dialAddr, err)
		}
		defer conn.Close()
		fmt.Printf("connected to %s as %q (client relay logic is out of scope)\n", dialAddr, username)
		return nil
	},
}

// dialWithBackoff dials addr with exponential backoff between attempts,
// making at most maxRetries attempts in total.
func dialWithBackoff(ctx context.Context, addr string, maxRetries uint) (net.Conn, error) {
	return backoff.Retry(ctx,
		func() (net.Conn, error) {
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				return nil, err
			}
			if tc, ok := conn.(*net.TCPConn); ok {
				if err := relay.TuneClientSocket(tc); err != nil {
					conn.Close()
					return nil, err
				}
			}
			return conn, nil
		},
		backoff.WithBackOff(&backoff.ExponentialBackOff{
			InitialInterval:     200 * time.Millisecond,
			RandomizationFactor: backoff.DefaultRandomizationFactor,
			Multiplier:          backoff.DefaultMultiplier,
			MaxInterval:         5 * time.Second,
		}),
		backoff.WithMaxTries(maxRetries),
	)
}

func init() {
	dialCmd.Flags().StringVarP(&dialAddr, "connect", "c", "", "relay server address, host:port")
	dialCmd.MarkFlagRequired("connect")
	dialCmd.Flags().UintVar(&dialRetries, "retries", 5, "max connection attempts before giving up")
}
