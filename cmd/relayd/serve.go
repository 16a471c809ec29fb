// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/hsiaofongw/relayd"
)

type serveArgs struct {
	port       int
	configPath string
	logLevel   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Launch the relay server",
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := runServe(serveFlags); err != nil {
			if errors.Is(err, errInterrupted{}) {
				return nil
			}
			return err
		}
		return nil
	},
}

var serveFlags serveArgs

func init() {
	serveCmd.Flags().IntVarP(&serveFlags.port, "listen", "l", 0, "TCP port to bind to (required)")
	serveCmd.Flags().StringVar(&serveFlags.configPath, "config", "", "path to a YAML config file")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "overrides the config's log_level")
	serveCmd.MarkFlagRequired("listen")
}

func runServe(args serveArgs) error {
	cfg, err := relay.LoadConfig(args.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ListenPort = args.port
	if args.logLevel != "" {
		cfg.LogLevel = args.logLevel
	}

	log, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	srv, err := relay.NewServer(cfg, relay.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx := context.Background()
	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return srv.Run(ctx)
	})
	wg.Go(func() error {
		err := waitInterrupted(ctx)
		log.Info("caught signal", zap.Error(err))
		return err
	})

	return wg.Wait()
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zap.DebugLevel
	case "warn":
		lvl = zap.WarnLevel
	case "error":
		lvl = zap.ErrorLevel
	default:
		lvl = zap.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

type errInterrupted struct{ os.Signal }

func (e errInterrupted) Error() string { return e.String() }

// waitInterrupted blocks until SIGINT, SIGTERM, or ctx cancellation.
func waitInterrupted(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)
	select {
	case v := <-ch:
		return errInterrupted{Signal: v}
	case <-ctx.Done():
		return ctx.Err()
	}
}
