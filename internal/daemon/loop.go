package daemon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"syscall"
	"time"
)

// ErrLoopStopped is returned by Dispatch once the loop has exited.
var ErrLoopStopped = errors.New("daemon loop stopped")

// Animator is advanced by the frame ticker while it needs frames.
type Animator interface {
	NeedsFrame() bool
	Tick(dt time.Duration) bool
}

// Pinger brackets X event processing, see x11.Connection.MainPing.
type Pinger interface {
	MainPing() (before, after, quit chan struct{})
}

// LoopConfig configures a Loop. Ping and Signals are optional.
type LoopConfig struct {
	FrameRate int
	Ping      Pinger
	Signals   <-chan os.Signal
	OnReload  func()
	Logger    *slog.Logger
}

// Loop is the single goroutine owning overview state. X callbacks, frame
// ticks, dispatched functions, reloads and signals are handled one at a time.
type Loop struct {
	animator Animator
	ping     Pinger
	signals  <-chan os.Signal
	onReload func()
	logger   *slog.Logger

	interval time.Duration
	posts    chan func()
	reloads  chan struct{}
	done     chan struct{}
}

// NewLoop creates a loop driving animator.
func NewLoop(animator Animator, cfg LoopConfig) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		animator: animator,
		ping:     cfg.Ping,
		signals:  cfg.Signals,
		onReload: cfg.OnReload,
		logger:   logger,
		posts:    make(chan func()),
		reloads:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	l.SetFrameRate(cfg.FrameRate)
	return l
}

// SetFrameRate changes the tick rate. It takes effect when the ticker is
// next started. Must be called before Run or from the loop goroutine.
func (l *Loop) SetFrameRate(fps int) {
	if fps <= 0 {
		fps = 60
	}
	l.interval = time.Second / time.Duration(fps)
}

// Interval returns the frame interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Run processes events until ctx is done, SIGINT/SIGTERM arrives or the X
// connection goes away.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	var before, after, quit chan struct{}
	if l.ping != nil {
		before, after, quit = l.ping.MainPing()
	}

	var ticker *time.Ticker
	var frames <-chan time.Time
	var last time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		needs := l.animator.NeedsFrame()
		switch {
		case needs && ticker == nil:
			ticker = time.NewTicker(l.interval)
			frames = ticker.C
			last = time.Now()
		case !needs && ticker != nil:
			ticker.Stop()
			ticker, frames = nil, nil
		}

		select {
		case <-ctx.Done():
			return nil

		case <-before:
			<-after

		case <-quit:
			l.logger.Info("x event loop quit")
			return nil

		case fn := <-l.posts:
			fn()

		case <-l.reloads:
			l.reload()

		case sig, ok := <-l.signals:
			if !ok {
				l.signals = nil
				continue
			}
			if sig == syscall.SIGHUP {
				l.logger.Info("received SIGHUP, reloading config")
				l.reload()
				continue
			}
			l.logger.Info("shutting down", "signal", sig.String())
			return nil

		case now := <-frames:
			dt := now.Sub(last)
			last = now
			l.animator.Tick(dt)
		}
	}
}

func (l *Loop) reload() {
	if l.onReload != nil {
		l.onReload()
	}
}

// Dispatch runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Dispatch(fn func()) error {
	finished := make(chan struct{})
	select {
	case l.posts <- func() {
		defer close(finished)
		fn()
	}:
	case <-l.done:
		return ErrLoopStopped
	}
	<-finished
	return nil
}

// RequestReload schedules a reload. Requests made while one is pending are
// coalesced.
func (l *Loop) RequestReload() {
	select {
	case l.reloads <- struct{}{}:
	default:
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
