package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/winscale/internal/config"
	"github.com/1broseidon/winscale/internal/ipc"
)

var version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	socketPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, ipc.ErrDaemonNotRunning) {
			fmt.Fprintln(os.Stderr, "winscale daemon is not running (start it with 'winscale daemon')")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "winscale",
		Short: "Window overview for X11 desktops",
		Long: `winscale shows every window of the current (or every) workspace scaled
into a grid, so one can be picked with the mouse or keyboard.

Run 'winscale daemon' from your session startup, then bind or use the
configured hotkeys, or drive it with 'winscale toggle'.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/winscale/config.yaml)")
	root.PersistentFlags().StringVar(&flags.socketPath, "socket", "", "daemon socket (default $XDG_RUNTIME_DIR/winscale.sock)")

	root.AddCommand(
		newDaemonCmd(flags),
		newToggleCmd(flags),
		newStatusCmd(flags),
		newReloadCmd(flags),
		newWorkspaceCmd(flags),
		newConfigCmd(flags),
		newMCPCmd(flags),
		newSimulateCmd(flags),
	)
	return root
}

func (f *globalFlags) path() (string, error) {
	if f.configPath != "" {
		return f.configPath, nil
	}
	return config.DefaultConfigPath()
}

func (f *globalFlags) load() (*config.LoadResult, error) {
	path, err := f.path()
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(path)
}

func (f *globalFlags) client() *ipc.Client {
	if f.socketPath != "" {
		return ipc.NewClientWithSocket(f.socketPath)
	}
	return ipc.NewClient()
}

func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
