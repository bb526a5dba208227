package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// RootHandlers are called for root window property changes.
type RootHandlers struct {
	ClientList     func()
	ActiveWindow   func()
	CurrentDesktop func()
	Monitors       func()
}

// ClientHandlers are called for changes on one managed client.
type ClientHandlers struct {
	Configure func(windowID xproto.Window)
	Unmap     func(windowID xproto.Window)
	State     func(windowID xproto.Window)
}

// WatchRoot selects property changes on the root window and dispatches the
// EWMH properties the overview tracks.
func (c *Connection) WatchRoot(h RootHandlers) error {
	root := xwindow.New(c.XUtil, c.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange, xproto.EventMaskStructureNotify); err != nil {
		return err
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		switch name {
		case "_NET_CLIENT_LIST":
			call(h.ClientList)
		case "_NET_ACTIVE_WINDOW":
			call(h.ActiveWindow)
		case "_NET_CURRENT_DESKTOP":
			call(h.CurrentDesktop)
		case "_NET_WORKAREA":
			call(h.Monitors)
		}
	}).Connect(c.XUtil, c.Root)

	// Root ConfigureNotify means the screen was resized, e.g. by RandR.
	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		if ev.Window == c.Root {
			call(h.Monitors)
		}
	}).Connect(c.XUtil, c.Root)
	return nil
}

// WatchClient selects structure and property events on a client.
func (c *Connection) WatchClient(windowID xproto.Window, h ClientHandlers) error {
	win := xwindow.New(c.XUtil, windowID)
	if err := win.Listen(xproto.EventMaskStructureNotify, xproto.EventMaskPropertyChange); err != nil {
		return err
	}

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		if h.Configure != nil {
			h.Configure(windowID)
		}
	}).Connect(c.XUtil, windowID)

	xevent.UnmapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		if h.Unmap != nil {
			h.Unmap(windowID)
		}
	}).Connect(c.XUtil, windowID)

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil || name != "_NET_WM_STATE" {
			return
		}
		if h.State != nil {
			h.State(windowID)
		}
	}).Connect(c.XUtil, windowID)
	return nil
}

// UnwatchClient drops every callback attached to a client.
func (c *Connection) UnwatchClient(windowID xproto.Window) {
	xevent.Detach(c.XUtil, windowID)
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
