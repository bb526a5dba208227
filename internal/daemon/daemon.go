package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/1broseidon/winscale/internal/config"
	"github.com/1broseidon/winscale/internal/hotkeys"
	"github.com/1broseidon/winscale/internal/ipc"
	"github.com/1broseidon/winscale/internal/overview"
	"github.com/1broseidon/winscale/internal/platform"
)

// Options configure a Daemon. Empty paths disable the pid file or select
// the default socket.
type Options struct {
	SocketPath string
	PIDPath    string
	Signals    <-chan os.Signal
	Logger     *slog.Logger
	// Level, when set, follows log_level across reloads.
	Level *slog.LevelVar
}

// Daemon wires the overview manager to hotkeys, IPC and config reloads.
type Daemon struct {
	opts    Options
	res     *config.LoadResult
	manager *overview.Manager
	hotkeys *hotkeys.Handler
	loop    *Loop
	watcher *config.Watcher
	logger  *slog.Logger
}

// New creates a daemon for backend using the loaded configuration res.
func New(backend platform.Backend, res *config.LoadResult, opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	overviewOpts, err := overview.OptionsFromConfig(res.Config)
	if err != nil {
		return nil, fmt.Errorf("invalid overview options: %w", err)
	}

	d := &Daemon{
		opts:    opts,
		res:     res,
		manager: overview.NewManager(backend, overviewOpts, logger.With("component", "overview")),
		logger:  logger,
	}
	if opts.Level != nil {
		opts.Level.Set(res.Config.Level())
	}

	var ping Pinger
	if p, ok := backend.(Pinger); ok {
		ping = p
	}
	d.loop = NewLoop(d.manager, LoopConfig{
		FrameRate: res.Config.FrameRate,
		Ping:      ping,
		Signals:   opts.Signals,
		OnReload:  d.reloadLogged,
		Logger:    logger.With("component", "loop"),
	})
	d.hotkeys = hotkeys.NewHandler(backend, d)
	return d, nil
}

// Loop returns the loop owning the overview state.
func (d *Daemon) Loop() *Loop { return d.loop }

// Config returns the active configuration. Loop goroutine only.
func (d *Daemon) Config() *config.Config { return d.res.Config }

// Run serves until ctx is done or a terminating signal arrives. Every
// overview is finalized before it returns.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := d.hotkeys.RegisterConfig(d.res.Config); err != nil {
		d.logger.Warn("hotkeys unavailable", "error", err)
	} else {
		d.logger.Info("hotkeys registered",
			"toggle", d.res.Config.ToggleHotkey,
			"toggle_all", d.res.Config.ToggleAllHotkey)
	}

	server, err := ipc.NewServer(d.opts.SocketPath, d, d.loop, d.logger.With("component", "ipc"))
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}

	if d.opts.PIDPath != "" {
		if err := os.WriteFile(d.opts.PIDPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0600); err != nil {
			d.logger.Warn("failed to write pid file", "path", d.opts.PIDPath, "error", err)
		} else {
			defer os.Remove(d.opts.PIDPath)
		}
	}

	watcher, err := config.NewWatcher(d.res)
	if err != nil {
		d.logger.Warn("config hot reload disabled", "error", err)
	} else {
		d.watcher = watcher
		defer watcher.Close()
		go watcher.Run(ctx, d.loop.RequestReload, func(err error) {
			d.logger.Warn("config watcher error", "error", err)
		})
	}

	d.logger.Info("daemon started", "config", d.res.Path, "socket", server.SocketPath())
	err = d.loop.Run(ctx)

	d.manager.Shutdown()
	server.Stop()
	d.logger.Info("daemon stopped")
	return err
}

// ToggleCurrent toggles the current-workspace overview.
func (d *Daemon) ToggleCurrent() bool {
	return d.manager.Toggle(overview.ScopeCurrentWorkspace)
}

// ToggleAll toggles the all-workspaces overview.
func (d *Daemon) ToggleAll() bool {
	return d.manager.Toggle(overview.ScopeAllWorkspaces)
}

// Toggle implements ipc.Handler.
func (d *Daemon) Toggle(all bool) bool {
	if all {
		return d.ToggleAll()
	}
	return d.ToggleCurrent()
}

// SwitchWorkspace moves the active overview to a neighbouring workspace.
func (d *Daemon) SwitchWorkspace(dx, dy int) bool {
	return d.manager.SwitchWorkspace(dx, dy)
}

func (d *Daemon) Status() []overview.Status {
	return d.manager.Status()
}

func (d *Daemon) ConfigPath() string {
	return d.res.Path
}

// Reload re-reads the configuration. On error the previous configuration
// stays in effect.
func (d *Daemon) Reload() error {
	res, err := config.LoadFromPath(d.res.Path)
	if err != nil {
		return err
	}
	opts, err := overview.OptionsFromConfig(res.Config)
	if err != nil {
		return err
	}

	old := d.res.Config
	d.res = res
	cfg := res.Config

	d.manager.UpdateOptions(opts)
	d.loop.SetFrameRate(cfg.FrameRate)
	if d.opts.Level != nil {
		d.opts.Level.Set(cfg.Level())
	}

	if hotkeysChanged(old, cfg) {
		d.hotkeys.Unregister()
		if err := d.hotkeys.RegisterConfig(cfg); err != nil {
			d.logger.Warn("failed to re-register hotkeys", "error", err)
		}
	}
	if old.Display != cfg.Display || old.XAuthority != cfg.XAuthority {
		d.logger.Warn("display settings change after restart")
	}

	if d.watcher != nil {
		if err := d.watcher.Track(res); err != nil {
			d.logger.Warn("failed to watch included config files", "error", err)
		}
	}
	d.logger.Info("config reloaded", "path", res.Path, "files", len(res.Files))
	return nil
}

func (d *Daemon) reloadLogged() {
	if err := d.Reload(); err != nil {
		d.logger.Error("config reload failed", "error", err)
	}
}

func hotkeysChanged(a, b *config.Config) bool {
	return a.ToggleHotkey != b.ToggleHotkey ||
		a.ToggleAllHotkey != b.ToggleAllHotkey ||
		a.WorkspaceHotkeys != b.WorkspaceHotkeys
}
