package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/winscale/internal/daemon"
	"github.com/1broseidon/winscale/internal/platform"
	"github.com/1broseidon/winscale/internal/runtimepath"
)

func newDaemonCmd(flags *globalFlags) *cobra.Command {
	var display string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the overview daemon (foreground)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := flags.load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg := res.Config

			level := new(slog.LevelVar)
			level.Set(cfg.Level())
			logger := newLogger(level)
			slog.SetDefault(logger)

			if display == "" {
				display = cfg.Display
			}
			backend, err := platform.NewLinuxBackendFromDisplay(display, cfg.XAuthority)
			if err != nil {
				return fmt.Errorf("failed to connect to display: %w", err)
			}
			defer backend.Disconnect()

			pidPath, err := runtimepath.PIDPath()
			if err != nil {
				logger.Warn("no runtime directory for pid file", "error", err)
				pidPath = ""
			}

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer signal.Stop(signals)

			d, err := daemon.New(backend, res, daemon.Options{
				SocketPath: flags.socketPath,
				PIDPath:    pidPath,
				Signals:    signals,
				Logger:     logger,
				Level:      level,
			})
			if err != nil {
				return err
			}
			return d.Run(context.Background())
		},
	}
	cmd.Flags().StringVar(&display, "display", "", "X display to connect to (default from config or $DISPLAY)")
	return cmd
}
